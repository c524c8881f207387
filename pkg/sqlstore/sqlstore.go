// Package sqlstore is a reference ueberdb.Driver backed by SQLite via
// the pure-Go modernc.org/sqlite driver: no cgo, one file or ":memory:",
// a single table keyed on the wrapper's own keys.
package sqlstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jots/ueberDB"
)

// Driver stores keys and raw string values in a single SQLite table.
type Driver struct {
	dsn   string
	table string
	db    *sql.DB
}

// New creates a Driver against dsn, a database/sql data source name
// understood by modernc.org/sqlite (a file path, or ":memory:" for an
// ephemeral store). table defaults to "store" if empty.
func New(dsn, table string) *Driver {
	if table == "" {
		table = "store"
	}
	return &Driver{dsn: dsn, table: table}
}

// Defaults reports MemorySettings for an in-memory database, since there
// is no round-trip latency to hide, and DefaultSettings otherwise
// (spec.md §6).
func (d *Driver) Defaults() ueberdb.Settings {
	if d.dsn == ":memory:" {
		return ueberdb.MemorySettings
	}
	return ueberdb.DefaultSettings
}

// Init opens the database, tunes it for a single-writer embedded
// workload, and creates the backing table if absent.
func (d *Driver) Init(cb func(error)) {
	db, err := sql.Open("sqlite", d.dsn)
	if err != nil {
		cb(fmt.Errorf("sqlstore: open: %w", err))
		return
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			cb(fmt.Errorf("sqlstore: pragma %q: %w", p, err))
			return
		}
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT
	)`, d.table)
	if _, err := db.Exec(schema); err != nil {
		cb(fmt.Errorf("sqlstore: create table: %w", err))
		return
	}

	d.db = db
	cb(nil)
}

// Get returns the raw value for key, or a nil value if key is absent.
func (d *Driver) Get(key string, cb func(value *string, err error)) {
	var value string
	err := d.db.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE key = ?", d.table), key).Scan(&value)
	if err == sql.ErrNoRows {
		cb(nil, nil)
		return
	}
	if err != nil {
		cb(nil, fmt.Errorf("sqlstore: get %q: %w", key, err))
		return
	}
	cb(&value, nil)
}

// Set upserts key to value.
func (d *Driver) Set(key, value string, cb func(error)) {
	_, err := d.db.Exec(fmt.Sprintf("REPLACE INTO %s (key, value) VALUES (?, ?)", d.table), key, value)
	if err != nil {
		cb(fmt.Errorf("sqlstore: set %q: %w", key, err))
		return
	}
	cb(nil)
}

// Remove deletes key. A missing key is not an error.
func (d *Driver) Remove(key string, cb func(error)) {
	_, err := d.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE key = ?", d.table), key)
	if err != nil {
		cb(fmt.Errorf("sqlstore: remove %q: %w", key, err))
		return
	}
	cb(nil)
}

// DoBulk applies ops in order inside a single transaction, so a flush is
// all-or-nothing from the caller's point of view.
func (d *Driver) DoBulk(ops []ueberdb.Op, cb func(error)) {
	tx, err := d.db.Begin()
	if err != nil {
		cb(fmt.Errorf("sqlstore: begin: %w", err))
		return
	}

	setStmt, err := tx.Prepare(fmt.Sprintf("REPLACE INTO %s (key, value) VALUES (?, ?)", d.table))
	if err != nil {
		tx.Rollback()
		cb(fmt.Errorf("sqlstore: prepare set: %w", err))
		return
	}
	defer setStmt.Close()

	removeStmt, err := tx.Prepare(fmt.Sprintf("DELETE FROM %s WHERE key = ?", d.table))
	if err != nil {
		tx.Rollback()
		cb(fmt.Errorf("sqlstore: prepare remove: %w", err))
		return
	}
	defer removeStmt.Close()

	for _, op := range ops {
		switch op.Type {
		case ueberdb.OpSet:
			if _, err := setStmt.Exec(op.Key, op.Value); err != nil {
				tx.Rollback()
				cb(fmt.Errorf("sqlstore: bulk set %q: %w", op.Key, err))
				return
			}
		case ueberdb.OpRemove:
			if _, err := removeStmt.Exec(op.Key); err != nil {
				tx.Rollback()
				cb(fmt.Errorf("sqlstore: bulk remove %q: %w", op.Key, err))
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		cb(fmt.Errorf("sqlstore: commit: %w", err))
		return
	}
	cb(nil)
}

// Close closes the underlying database handle.
func (d *Driver) Close(cb func(error)) {
	if d.db == nil {
		cb(nil)
		return
	}
	cb(d.db.Close())
}
