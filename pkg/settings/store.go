// Package settings persists the user's translation toggles in SQLite.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/sqlitedb"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("settings not found")

// Store reads and writes settings.
type Store interface {
	// Load returns the persisted settings, or ErrNotFound.
	Load(ctx context.Context) (models.Settings, error)
	// Save replaces the persisted settings.
	Save(ctx context.Context, s models.Settings) error
	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store as a key/value table.
type SQLiteStore struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// New opens the settings database and runs auto-migration.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(dbPath, createTable)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns every stored toggle.
func (s *SQLiteStore) Load(ctx context.Context) (models.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	out := make(models.Settings)
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = value != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Save replaces all stored toggles in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, settings models.Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}

	now := time.Now().UTC()
	for _, key := range settings.Keys() {
		value := 0
		if settings[key] {
			value = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
			key, value, now,
		); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
