package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FlagStore is durable string key/value storage, the server-side
// counterpart of a browser's local storage.
type FlagStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryFlags is a FlagStore that lives for the process only.
type MemoryFlags struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryFlags creates an empty in-memory store.
func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{values: make(map[string]string)}
}

func (m *MemoryFlags) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryFlags) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryFlags) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileFlags keeps flags in a YAML file, used by the CLI.
type FileFlags struct {
	path string
}

// NewFileFlags creates a store backed by the YAML file at path.
func NewFileFlags(path string) *FileFlags {
	return &FileFlags{path: path}
}

// DefaultFlagsPath returns ~/.config/piso/state.yaml.
func DefaultFlagsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "piso", "state.yaml"), nil
}

// load reads the file, returning an empty map when it doesn't exist.
func (f *FileFlags) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return values, nil
}

func (f *FileFlags) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

func (f *FileFlags) Get(key string) (string, bool, error) {
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileFlags) Set(key, value string) error {
	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

func (f *FileFlags) Delete(key string) error {
	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

// SQLFlags keeps one visitor's flags in the local_storage table.
type SQLFlags struct {
	db      *sql.DB
	visitor string
}

// NewSQLFlags creates a store scoped to visitor.
func NewSQLFlags(db *sql.DB, visitor string) *SQLFlags {
	return &SQLFlags{db: db, visitor: visitor}
}

func (s *SQLFlags) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(
		"SELECT value FROM local_storage WHERE visitor_id = ? AND key = ?",
		s.visitor, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying flag %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLFlags) Set(key, value string) error {
	if _, err := s.db.Exec(
		`INSERT INTO local_storage (visitor_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT (visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.visitor, key, value,
	); err != nil {
		return fmt.Errorf("storing flag %s: %w", key, err)
	}
	return nil
}

func (s *SQLFlags) Delete(key string) error {
	if _, err := s.db.Exec(
		"DELETE FROM local_storage WHERE visitor_id = ? AND key = ?",
		s.visitor, key,
	); err != nil {
		return fmt.Errorf("deleting flag %s: %w", key, err)
	}
	return nil
}
