package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/piso/internal/db"
)

func TestFlagStores(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	stores := map[string]FlagStore{
		"memory": NewMemoryFlags(),
		"file":   NewFileFlags(filepath.Join(t.TempDir(), "nested", "state.yaml")),
		"sql":    NewSQLFlags(d, "visitor-1"),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(FlagKey)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(FlagKey, "true"))
			require.NoError(t, s.Set(FlagKey, "true"))
			v, ok, err := s.Get(FlagKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "true", v)

			require.NoError(t, s.Delete(FlagKey))
			require.NoError(t, s.Delete(FlagKey))
			_, ok, err = s.Get(FlagKey)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLFlagsScopedToVisitor(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	a := NewSQLFlags(d, "a")
	b := NewSQLFlags(d, "b")
	require.NoError(t, a.Set(FlagKey, "true"))

	_, ok, err := b.Get(FlagKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileFlagsPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	f := NewFileFlags(path)
	require.NoError(t, f.Set("other", "kept"))
	require.NoError(t, f.Set(FlagKey, "true"))
	require.NoError(t, f.Delete(FlagKey))

	v, ok, err := f.Get("other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileFlagsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))

	_, _, err := NewFileFlags(path).Get(FlagKey)
	assert.Error(t, err)
}

func TestDefaultFlagsPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := DefaultFlagsPath()
	require.NoError(t, err)
	assert.Equal(t, "state.yaml", filepath.Base(p))
	assert.Equal(t, "piso", filepath.Base(filepath.Dir(p)))
}
