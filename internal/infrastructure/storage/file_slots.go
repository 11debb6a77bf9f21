package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ArxivReader/internal/ports"
)

// FileSlots keeps every slot as <dir>/<name>.json.
type FileSlots struct {
	dir      string
	debounce time.Duration
}

var (
	_ ports.SlotStore   = (*FileSlots)(nil)
	_ ports.SlotWatcher = (*FileSlots)(nil)
)

// NewFileSlots creates the directory when missing.
func NewFileSlots(dir string) (*FileSlots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileSlots{dir: dir, debounce: defaultDebounce}, nil
}

// WithDebounce sets how long Watch waits for writes to settle.
func (f *FileSlots) WithDebounce(d time.Duration) *FileSlots {
	f.debounce = d
	return f
}

// Path returns the file backing the slot.
func (f *FileSlots) Path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

// Read returns the slot contents or ports.ErrSlotNotFound.
func (f *FileSlots) Read(ctx context.Context, name string) ([]byte, error) {
	if err := validSlotName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ports.ErrSlotNotFound)
		}
		return nil, fmt.Errorf("read slot %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the slot atomically through a temp file and rename.
func (f *FileSlots) Write(ctx context.Context, name string, data []byte) error {
	if err := validSlotName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp slot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp slot: %w", err)
	}
	if err := os.Rename(tmpName, f.Path(name)); err != nil {
		return fmt.Errorf("replace slot %s: %w", name, err)
	}
	return nil
}

// Watch calls onChange once writes to the slot file settle. It blocks
// until ctx is done.
func (f *FileSlots) Watch(ctx context.Context, name string, onChange func()) error {
	if err := validSlotName(name); err != nil {
		return err
	}
	target := f.Path(name)
	return watchDir(ctx, f.dir, f.debounce, func(file string) bool {
		return filepath.Clean(file) == target
	}, onChange)
}

func validSlotName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid slot name %q", name)
	}
	return nil
}
