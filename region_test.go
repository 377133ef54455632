package mosaic

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionDirOpenRegion(t *testing.T) {
	dir := t.TempDir()
	rc := RegionCoord{X: 2, Z: -3}
	writeRegionFile(t, dir, rc, tableWith(5, ChunkCoord{X: 1, Z: 1}))

	reader, err := RegionDir(dir).OpenRegion(rc)
	require.NoError(t, err)
	require.NotNil(t, reader)
	defer reader.Close()

	// the header has no sectors so every chunk reads as absent
	data, err := reader.ReadChunk(ChunkCoord{X: 1, Z: 1})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRegionDirMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := RegionCoord{X: 0, Z: 0}
	require.NoError(t, os.WriteFile(filepath.Join(dir, RegionFileName(empty)), nil, 0o644))

	reader, err := RegionDir(dir).OpenRegion(empty)
	require.NoError(t, err)
	assert.Nil(t, reader)

	reader, err = RegionDir(dir).OpenRegion(RegionCoord{X: 9, Z: 9})
	require.NoError(t, err)
	assert.Nil(t, reader)
}

func TestRegionDirTruncated(t *testing.T) {
	for _, size := range []int{100, 4096, 5000} {
		dir := t.TempDir()
		rc := RegionCoord{X: 0, Z: 0}
		require.NoError(t, os.WriteFile(filepath.Join(dir, RegionFileName(rc)), make([]byte, size), 0o644))

		reader, err := RegionDir(dir).OpenRegion(rc)
		assert.Error(t, err, "size %d", size)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "size %d", size)
		assert.Nil(t, reader, "size %d", size)
	}
}

func TestRegionDirZeroLengthSector(t *testing.T) {
	dir := t.TempDir()
	rc := RegionCoord{X: 0, Z: 0}

	// chunk (1, 1) points at sector 2, whose length prefix is zero
	data := make([]byte, 3*4096)
	binary.BigEndian.PutUint32(data[4*(1*ChunkSide+1):], 2<<8|1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, RegionFileName(rc)), data, 0o644))

	reader, err := RegionDir(dir).OpenRegion(rc)
	require.NoError(t, err)
	require.NotNil(t, reader)
	defer reader.Close()

	chunk, err := reader.ReadChunk(ChunkCoord{X: 1, Z: 1})
	require.NoError(t, err)
	assert.Nil(t, chunk)
}
