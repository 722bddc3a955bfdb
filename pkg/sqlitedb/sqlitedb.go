// Package sqlitedb opens the SQLite file shared by the settings and history
// stores.
package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DSN returns the connection string for dbPath. Every store opening the same
// file uses the same pragmas so concurrent writers wait instead of failing.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens dbPath and applies schema. The database is closed again when
// schema fails.
func Open(dbPath, schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if schema == "" {
		return db, nil
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}
