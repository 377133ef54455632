package mosaic

import (
	"image"
	"os"
	"testing"

	"github.com/b1naryth1ef/mosaic/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileStoreSaveIsPublic(t *testing.T) {
	store := NewTileStore(t.TempDir())
	rc := RegionCoord{X: 1, Z: -1}
	require.NoError(t, store.Save(rc, newCanvas()))

	info, err := os.Stat(store.Path(rc))
	require.NoError(t, err)
	assert.Equal(t, fileutil.PublicMode, info.Mode().Perm())
}

func TestTileStoreLoad(t *testing.T) {
	w := newTestWorld(t)
	store := NewTileStore(w.images)
	rc := RegionCoord{X: 0, Z: 0}

	// missing
	assert.Equal(t, newCanvas(), store.Load(rc))

	writeSolidTile(t, w, rc, red)
	assert.Equal(t, red, store.Load(rc).RGBAAt(511, 511))

	// wrong size
	require.NoError(t, store.Save(rc, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	assert.Equal(t, newCanvas(), store.Load(rc))

	// not a png
	require.NoError(t, os.WriteFile(store.Path(rc), []byte("garbage"), 0o644))
	assert.Equal(t, newCanvas(), store.Load(rc))
}

func TestTileStoreList(t *testing.T) {
	dir := t.TempDir()
	store := NewTileStore(dir)
	for _, rc := range []RegionCoord{{X: 2, Z: 0}, {X: -1, Z: 5}} {
		require.NoError(t, store.Save(rc, newCanvas()))
	}
	require.NoError(t, os.WriteFile(dir+"/notes.txt", nil, 0o644))

	regions, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []RegionCoord{{X: -1, Z: 5}, {X: 2, Z: 0}}, regions)
}
