package web

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/b1naryth1ef/mosaic/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := FrontendData{
		Maps: []MapData{
			{
				Name: "overworld",
				Layers: []LayerData{
					{
						Name:     "surface",
						Path:     "tiles/overworld/surface",
						TileSize: 512,
						Opacity:  1,
						Tiles:    []TileData{{X: -1, Z: 0}, {X: 2, Z: 3}},
					},
				},
			},
		},
	}

	require.NoError(t, WriteManifest(dir, data))

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, &data, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, fileutil.PublicMode, info.Mode().Perm())
}

func TestManifestFieldNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, FrontendData{
		Maps: []MapData{{Name: "m", Layers: []LayerData{{Name: "l", TileSize: 512, Tiles: []TileData{{X: 1, Z: 2}}}}}},
	}))

	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"maps": [{
			"name": "m",
			"layers": [{
				"name": "l",
				"path": "",
				"tileSize": 512,
				"opacity": 0,
				"tiles": [{"x": 1, "z": 2}]
			}]
		}]
	}`, string(raw))
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.Error(t, err)
}
