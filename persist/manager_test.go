package persist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerReadMissingFileReturnsEmptyMirror(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "store.json"))

	mirror, err := m.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mirror.Keys())
}

func TestManagerWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	m := NewManager(path)

	mirror := NewMirror()
	mirror.Set("web", Entry{TypeTag: "instance", Data: json.RawMessage(`{"id":"i-1"}`)})

	require.NoError(t, m.Write(context.Background(), mirror))

	loaded, err := m.Read(context.Background())
	require.NoError(t, err)
	entry, ok := loaded.Get("web")
	require.True(t, ok)
	assert.Equal(t, "instance", entry.TypeTag)
	assert.JSONEq(t, `{"id":"i-1"}`, string(entry.Data))
}

func TestManagerWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	m := NewManager(path)

	mirror := NewMirror()
	mirror.Set("a", Entry{TypeTag: "thing", Data: json.RawMessage(`{}`)})
	require.NoError(t, m.Write(context.Background(), mirror))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp file was not cleaned up after rename")
	}
}

func TestManagerLockPreventsSecondAcquire(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "store.json"))

	require.NoError(t, m.Lock(context.Background()))
	err := m.Lock(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	require.NoError(t, m.Unlock(context.Background()))
	require.NoError(t, m.Lock(context.Background()))
	require.NoError(t, m.Unlock(context.Background()))
}
