package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"sqlite": newTestSQLite(t),
		"memory": NewMemory(),
	}
}

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		v, ok, err := s.Get("live:mode:u1")
		assert.NoError(t, err, name)
		assert.False(t, ok, name)
		assert.Nil(t, v, name)
	}
}

func TestStoreSetGet(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		assert.NoError(t, s.Set("live:floor:u1", []byte("1.05")), name)

		v, ok, err := s.Get("live:floor:u1")
		assert.NoError(t, err, name)
		assert.True(t, ok, name)
		assert.Equal(t, []byte("1.05"), v, name)
	}
}

func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		require.NoError(t, s.Set("k", []byte("old")), name)
		require.NoError(t, s.Set("k", []byte("new")), name)

		v, ok, err := s.Get("k")
		assert.NoError(t, err, name)
		assert.True(t, ok, name)
		assert.Equal(t, []byte("new"), v, name)
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		require.NoError(t, s.Set("k", []byte("v")), name)
		require.NoError(t, s.Delete("k"), name)

		_, ok, err := s.Get("k")
		assert.NoError(t, err, name)
		assert.False(t, ok, name)

		// Deleting a missing key is not an error.
		assert.NoError(t, s.Delete("k"), name)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("ledger:meta:u1", []byte(`{"total_count":3}`)))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	v, ok, err := s2.Get("ledger:meta:u1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"total_count":3}`), v)
}

func TestMemoryClosed(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	require.NoError(t, m.Set("k", []byte("v")))
	require.NoError(t, m.Close())

	_, _, err := m.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set("k", nil), ErrClosed)
	assert.ErrorIs(t, m.Delete("k"), ErrClosed)
}
