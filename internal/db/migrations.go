package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of idempotent SQL statements.
// Table and column names match the hosted table service so rows can be
// moved between backends unchanged.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS apartment_data (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		price       TEXT NOT NULL DEFAULT '',
		address     TEXT NOT NULL DEFAULT '',
		meters      TEXT NOT NULL DEFAULT '',
		rooms       TEXT NOT NULL DEFAULT '',
		bathrooms   TEXT NOT NULL DEFAULT '',
		floor       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		features    TEXT NOT NULL DEFAULT '',
		photos      TEXT NOT NULL DEFAULT '[]',
		updated_at  DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id         TEXT     PRIMARY KEY,
		name       TEXT     NOT NULL,
		email      TEXT     NOT NULL,
		phone      TEXT     NOT NULL DEFAULT '',
		message    TEXT     NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS contacts_created_at_idx ON contacts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS local_storage (
		visitor_id TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (visitor_id, key)
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
