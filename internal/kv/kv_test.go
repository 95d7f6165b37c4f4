package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	dir, err := OpenDir(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "daybook.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		DriverMemory: NewMemory(),
		DriverDir:    dir,
		DriverSQLite: db,
	}
}

func TestStores_GetSetRemove(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("tasks")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("tasks", `{"2024-05-01":{}}`))
			v, ok, err := s.Get("tasks")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"2024-05-01":{}}`, v)

			require.NoError(t, s.Set("tasks", "replaced"))
			v, _, err = s.Get("tasks")
			require.NoError(t, err)
			assert.Equal(t, "replaced", v)

			// Empty values are values, not absence.
			require.NoError(t, s.Set("journalEntry", ""))
			v, ok, err = s.Get("journalEntry")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "", v)

			require.NoError(t, s.Remove("tasks"))
			_, ok, err = s.Get("tasks")
			require.NoError(t, err)
			assert.False(t, ok)

			// Removing again is fine.
			require.NoError(t, s.Remove("tasks"))
		})
	}
}

func TestStores_RejectInvalidKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Set("../escape", "x"), ErrInvalidKey)
			assert.ErrorIs(t, s.Set("", "x"), ErrInvalidKey)
		})
	}
}

func TestDir_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	d1, err := OpenDir(path)
	require.NoError(t, err)
	require.NoError(t, d1.Set("recurringTasks", "[]"))

	info, err := os.Stat(filepath.Join(path, "recurringTasks"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	d2, err := OpenDir(path)
	require.NoError(t, err)
	v, ok, err := d2.Get("recurringTasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestSQLite_PersistsAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "daybook.sqlite")
	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set("journalEntry", "dear diary"))
	require.NoError(t, Close(s1))

	_, _, err = s1.Get("journalEntry")
	assert.ErrorIs(t, err, ErrClosed)

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	v, ok, err := s2.Get("journalEntry")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dear diary", v)
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open("dir", filepath.Join(t.TempDir(), "d"))
	require.NoError(t, err)
	assert.IsType(t, &Dir{}, s)
	assert.NoError(t, Close(s))

	_, err = Open("redis", "")
	assert.Error(t, err)
}
