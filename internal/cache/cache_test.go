package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTemp(t)
	key := Key("fn main() {}")

	_, found, err := s.Get(key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(key, []byte{1, 2, 3}))
	blob, found, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{1, 2, 3}, blob)
}

func TestPutReplaces(t *testing.T) {
	s := openTemp(t)
	key := Key("src")
	require.NoError(t, s.Put(key, []byte("old")))
	require.NoError(t, s.Put(key, []byte("new")))
	blob, found, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("new"), blob)

	entries, _, err := s.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, entries)
}

func TestStatsAndClear(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Put(Key("a"), []byte("xx")))
	require.NoError(t, s.Put(Key("b"), []byte("yyy")))

	entries, size, err := s.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, entries)
	assert.EqualValues(t, 5, size)

	require.NoError(t, s.Clear())
	entries, _, err = s.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 0, entries)
}

func TestKeyIsContentAndOrderSensitive(t *testing.T) {
	assert.Equal(t, Key("a", "b"), Key("a", "b"))
	assert.NotEqual(t, Key("a", "b"), Key("b", "a"))
	assert.NotEqual(t, Key("ab"), Key("a", "b"))
}
