package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ArxivReader/internal/ports"
)

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Slots is a slot store that can also report external changes.
type Slots interface {
	ports.SlotStore
	ports.SlotWatcher
	io.Closer
}

// Open builds the slot backend named by driver. For the file driver path is
// a directory; for sqlite it is the database file.
func Open(ctx context.Context, driver, path string) (Slots, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverFile:
		slots, err := NewFileSlots(path)
		if err != nil {
			return nil, err
		}
		return nopCloser{slots}, nil
	case DriverSQLite:
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "arxivreader.db")
		}
		return OpenSQLite(ctx, path)
	case DriverMemory:
		return NewMemorySlots(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

type nopCloser struct {
	*FileSlots
}

func (nopCloser) Close() error { return nil }
