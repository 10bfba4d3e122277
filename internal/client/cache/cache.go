// Package cache is the client's local durable store: a small SQLite file of
// named slots, each holding one JSON document that is overwritten wholesale.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Slot names shared with the browser client's storage keys.
const (
	SlotTasks       = "tasks"
	SlotReviews     = "reviews"
	SlotCurrentUser = "currentUser"
	SlotUserID      = "userId"
	SlotToken       = "token"
)

const schema = `CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Cache is a slot store backed by a SQLite file.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache file at path, creating parent directories.
// The caller must Close it.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// One writer is all a CLI needs and it avoids SQLITE_BUSY between our own connections.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}

// Get returns the slot value and whether it exists.
func (c *Cache) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get slot %s: %w", name, err)
	}
	return value, true, nil
}

// PutMany overwrites several slots in one transaction.
func (c *Cache) PutMany(ctx context.Context, slots map[string]string) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := c.now().UTC().Format(time.RFC3339Nano)
	for name, value := range slots {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			name, value, now,
		); err != nil {
			return fmt.Errorf("put slot %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the named slots. Missing slots are ignored.
func (c *Cache) Delete(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := c.db.ExecContext(ctx, "DELETE FROM slots WHERE name = ?", name); err != nil {
			return fmt.Errorf("delete slot %s: %w", name, err)
		}
	}
	return nil
}
