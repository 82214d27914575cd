package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "piso.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "piso.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "piso.db")
				d, err := Open(path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		table string
		cols  []string
	}{
		{
			table: "apartment_data",
			cols:  []string{"id", "title", "price", "address", "meters", "rooms", "bathrooms", "floor", "description", "features", "photos", "updated_at"},
		},
		{
			table: "contacts",
			cols:  []string{"id", "name", "email", "phone", "message", "created_at"},
		},
		{
			table: "local_storage",
			cols:  []string{"visitor_id", "key", "value", "updated_at"},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestContactsRequireNameAndEmail(t *testing.T) {
	d := openTestDB(t)

	_, err := d.Exec(`INSERT INTO contacts (id, email, created_at) VALUES ('a', 'a@x.com', CURRENT_TIMESTAMP)`)
	if err == nil {
		t.Error("expected NOT NULL violation for missing name")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piso.db")

	for i := 0; i < 2; i++ {
		d, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := d.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p) != "piso.db" {
		t.Errorf("expected filename piso.db, got %s", filepath.Base(p))
	}
	if dir := filepath.Base(filepath.Dir(p)); dir != ".piso" {
		t.Errorf("expected directory .piso, got %s", dir)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "piso.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
