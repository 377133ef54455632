package mosaic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/save"
	"github.com/Tnze/go-mc/save/region"
)

// RegionSource opens regions by coordinate. OpenRegion returns a nil reader
// and no error when the region does not exist.
type RegionSource interface {
	OpenRegion(RegionCoord) (RegionReader, error)
}

// RegionReader reads raw chunk data from one region. ReadChunk returns nil
// data and no error for chunks that were never written. Implementations
// need not be safe for concurrent use.
type RegionReader interface {
	ReadChunk(ChunkCoord) ([]byte, error)
	Close() error
}

// ChunkDecoder turns raw chunk data into a chunk. DecodeChunk returns nil
// and no error for chunks that should not be rendered.
type ChunkDecoder interface {
	DecodeChunk([]byte) (*save.Chunk, error)
}

// RegionDir is a RegionSource reading anvil files from a directory.
type RegionDir string

func (d RegionDir) OpenRegion(rc RegionCoord) (RegionReader, error) {
	path := filepath.Join(string(d), RegionFileName(rc))
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	reg, err := loadRegion(f)
	if errors.Is(err, ErrEmptyRegion) {
		f.Close()
		return nil, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open region file %s: %w", path, err)
	}

	return &anvilRegion{
		file:   f,
		region: reg,
	}, nil
}

type anvilRegion struct {
	file   *os.File
	region *region.Region
}

func (a *anvilRegion) ReadChunk(c ChunkCoord) ([]byte, error) {
	sector, err := a.region.ReadSector(c.X, c.Z)
	if errors.Is(err, region.ErrNoSector) || errors.Is(err, region.ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sector, nil
}

func (a *anvilRegion) Close() error {
	return a.file.Close()
}

// AnvilDecoder decodes chunks stored in the anvil format, skipping chunks
// the game has not finished generating.
type AnvilDecoder struct{}

func (AnvilDecoder) DecodeChunk(data []byte) (*save.Chunk, error) {
	var chunk save.Chunk
	err := chunk.Load(data)
	if err != nil {
		return nil, err
	}

	if chunk.Status != "minecraft:full" &&
		chunk.Status != "minecraft:spawn" &&
		chunk.Status != "minecraft:postprocessed" &&
		chunk.Status != "minecraft:fullchunk" {
		return nil, nil
	}

	return &chunk, nil
}
