package mosaic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/b1naryth1ef/mosaic/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCacheMode(t *testing.T) {
	for _, mode := range []CacheMode{CacheReadWrite, CacheWriteOnly, CacheReadOnly, CacheDisabled} {
		parsed, err := ParseCacheMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	mode, err := ParseCacheMode("")
	require.NoError(t, err)
	assert.Equal(t, CacheReadWrite, mode)

	_, err = ParseCacheMode("refresh")
	assert.Error(t, err)
}

func TestCacheModeAccess(t *testing.T) {
	assert.True(t, CacheReadWrite.Reads())
	assert.True(t, CacheReadWrite.Writes())
	assert.False(t, CacheWriteOnly.Reads())
	assert.True(t, CacheWriteOnly.Writes())
	assert.True(t, CacheReadOnly.Reads())
	assert.False(t, CacheReadOnly.Writes())
	assert.False(t, CacheDisabled.Reads())
	assert.False(t, CacheDisabled.Writes())

	var store *SnapshotStore
	assert.Equal(t, CacheDisabled, store.Mode())
	assert.Nil(t, store.Load(RegionCoord{}))
	assert.NoError(t, store.Save(RegionCoord{}, fullTable(1)))
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(dir, CacheReadWrite)
	rc := RegionCoord{X: -4, Z: 9}

	assert.Nil(t, store.Load(rc))

	table := tableWith(42, ChunkCoord{X: 1, Z: 2})
	require.NoError(t, store.Save(rc, table))
	assert.Equal(t, table, store.Load(rc))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SnapshotFileName(rc), entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, fileutil.PublicMode, info.Mode().Perm())
}

func TestSnapshotStoreModes(t *testing.T) {
	dir := t.TempDir()
	rc := RegionCoord{X: 1, Z: 1}
	table := tableWith(7, ChunkCoord{X: 0, Z: 0})
	writeSnapshot(t, dir, rc, table)

	assert.Equal(t, table, NewSnapshotStore(dir, CacheReadOnly).Load(rc))
	assert.Nil(t, NewSnapshotStore(dir, CacheWriteOnly).Load(rc))
	assert.Nil(t, NewSnapshotStore(dir, CacheDisabled).Load(rc))

	other := RegionCoord{X: 2, Z: 2}
	require.NoError(t, NewSnapshotStore(dir, CacheReadOnly).Save(other, table))
	require.NoError(t, NewSnapshotStore(dir, CacheDisabled).Save(other, table))
	_, err := os.Stat(filepath.Join(dir, SnapshotFileName(other)))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, NewSnapshotStore(dir, CacheWriteOnly).Save(other, table))
	assert.Equal(t, table, NewSnapshotStore(dir, CacheReadWrite).Load(other))
}

func TestSnapshotStoreIgnoresCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	rc := RegionCoord{X: 0, Z: 0}
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFileName(rc)), []byte("short"), 0o644))

	assert.Nil(t, NewSnapshotStore(dir, CacheReadWrite).Load(rc))
}
