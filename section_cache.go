package mosaic

import (
	"github.com/Tnze/go-mc/level"
	"github.com/Tnze/go-mc/save"
)

// sectionCache unpacks the sections of one chunk on first use.
type sectionCache struct {
	chunk *save.Chunk
	cache map[int]*sectionCacheItem
}

type sectionCacheItem struct {
	section *save.Section
	storage *level.BitStorage
	biomes  *level.BitStorage
}

func newSectionCache(chunk *save.Chunk) *sectionCache {
	return &sectionCache{
		chunk: chunk,
		cache: make(map[int]*sectionCacheItem),
	}
}

// get returns the section at index counted from the bottom of the world,
// or nil if the chunk has no such section.
func (c *sectionCache) get(index int) (*sectionCacheItem, error) {
	if sc, ok := c.cache[index]; ok {
		return sc, nil
	}
	if index < 0 || index >= len(c.chunk.Sections) {
		return nil, nil
	}

	section := &c.chunk.Sections[index]

	sc := &sectionCacheItem{section: section}
	if len(section.BlockStates.Data) > 0 {
		v := calcBitsPerValue(16*16*16, len(section.BlockStates.Data))
		storage, err := newBitStorage(v, 16*16*16, section.BlockStates.Data)
		if err != nil {
			return nil, err
		}
		sc.storage = storage
	}
	if len(section.Biomes.Data) > 0 {
		v := calcBitsPerValue(4*4*4, len(section.Biomes.Data))
		biomes, err := newBitStorage(v, 4*4*4, section.Biomes.Data)
		if err != nil {
			return nil, err
		}
		sc.biomes = biomes
	}

	c.cache[index] = sc
	return sc, nil
}

// blockAt returns the block state at section-relative coordinates.
func (s *sectionCacheItem) blockAt(x, y, z int) (save.BlockState, bool) {
	palette := s.section.BlockStates.Palette
	if len(palette) == 0 {
		return save.BlockState{}, false
	}

	idx := 0
	if s.storage != nil {
		idx = s.storage.Get((y*16+z)*16 + x)
	}
	if idx >= len(palette) {
		return save.BlockState{}, false
	}
	return palette[idx], true
}

// biomeAt returns the biome at section-relative block coordinates. Biomes
// are stored at a 4x4x4 resolution.
func (s *sectionCacheItem) biomeAt(x, y, z int) save.BiomeState {
	palette := s.section.Biomes.Palette
	if len(palette) == 0 {
		return ""
	}

	idx := 0
	if s.biomes != nil {
		idx = s.biomes.Get(((y/4)*4+(z/4))*4 + x/4)
	}
	if idx >= len(palette) {
		return ""
	}
	return palette[idx]
}

func calcBitsPerValue(length, longs int) (bits int) {
	if longs == 0 || length == 0 {
		return 0
	}
	valuePerLong := (length + longs - 1) / longs
	return 64 / valuePerLong
}
