package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ArxivReader/internal/ports"
)

const slotsTable = "slots"

// SQLSlots persists named slots into a single SQLite table.
type SQLSlots struct {
	db       *sql.DB
	path     string
	debounce time.Duration
	now      func() time.Time
}

var (
	_ ports.SlotStore   = (*SQLSlots)(nil)
	_ ports.SlotWatcher = (*SQLSlots)(nil)
)

// NewSQLSlots wires an existing sql.DB. Call Migrate before first use.
func NewSQLSlots(db *sql.DB) *SQLSlots {
	return &SQLSlots{db: db, debounce: defaultDebounce, now: time.Now}
}

// OpenSQLite opens (and creates when missing) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLSlots, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	slots := NewSQLSlots(db)
	slots.path = path
	if err := slots.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return slots, nil
}

// Migrate creates the slots table.
func (r *SQLSlots) Migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + slotsTable + ` (
		name       TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate slots: %w", err)
	}
	return nil
}

// Read returns the slot value or ports.ErrSlotNotFound.
func (r *SQLSlots) Read(ctx context.Context, name string) ([]byte, error) {
	query, args, err := sq.Select("value").
		From(slotsTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build read: %w", err)
	}

	var value []byte
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ports.ErrSlotNotFound)
		}
		return nil, fmt.Errorf("read slot %s: %w", name, err)
	}
	return value, nil
}

// Write upserts the slot value.
func (r *SQLSlots) Write(ctx context.Context, name string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	query, args, err := sq.Insert(slotsTable).
		Columns("name", "value", "updated_at").
		Values(name, data, r.now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build write: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	return nil
}

// Names lists the stored slots, sorted.
func (r *SQLSlots) Names(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("name").From(slotsTable).OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build names: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return names, nil
}

// Watch reports changes to the database file. Every write to the file may
// fire, so callers compare contents themselves. Without a backing file it
// blocks until ctx is done.
func (r *SQLSlots) Watch(ctx context.Context, name string, onChange func()) error {
	if r.path == "" {
		<-ctx.Done()
		return nil
	}
	base := filepath.Base(r.path)
	return watchDir(ctx, filepath.Dir(r.path), r.debounce, func(file string) bool {
		return strings.HasPrefix(filepath.Base(file), base)
	}, onChange)
}

// Close releases the database handle.
func (r *SQLSlots) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
