package mosaic

import (
	"fmt"
	"image"
	"image/color"
	"math/bits"

	"github.com/Tnze/go-mc/level"
	"github.com/Tnze/go-mc/save"
)

// newBitStorage wraps level.NewBitStorage, which panics when data does not
// match the requested layout.
func newBitStorage(bits, length int, data []uint64) (storage *level.BitStorage, err error) {
	defer func() {
		if r := recover(); r != nil {
			storage = nil
			err = fmt.Errorf("invalid bit storage (%d bits, %d values, %d longs): %v", bits, length, len(data), r)
		}
	}()
	return level.NewBitStorage(bits, length, data), nil
}

// chunkHeightmap unpacks the named heightmap of a chunk. It returns nil if
// the chunk has no sections or no such heightmap.
func chunkHeightmap(chunk *save.Chunk, name string) (*level.BitStorage, error) {
	if chunk == nil || len(chunk.Sections) == 0 {
		return nil, nil
	}

	data := chunk.Heightmaps[name]
	if len(data) == 0 {
		return nil, nil
	}

	bitsForHeight := bits.Len(uint(len(chunk.Sections))*16 + 1)
	hm, err := newBitStorage(bitsForHeight, 16*16, data)
	if err != nil {
		return nil, fmt.Errorf("heightmap %s: %w", name, err)
	}
	return hm, nil
}

// heightShade computes the darkening applied to a column lower than its
// northern or western neighbour.
func heightShade(height, top, left int) uint8 {
	var d int
	if top > height {
		d = (top - height) * 16
	}
	if left > height {
		d += (left - height) * 16
	}
	if d > 64 {
		d = 64
	}
	return uint8(d)
}

// shadeOverlay renders a translucent black patch darkening columns that sit
// below their neighbours. Heights across the northern edge come from north;
// without it, and across the western edge, a column is compared with itself.
func shadeOverlay(hm, north *level.BitStorage) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ChunkPixels, ChunkPixels))

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			height := hm.Get(z*16 + x)

			topHeight := height
			if z > 0 {
				topHeight = hm.Get((z-1)*16 + x)
			} else if north != nil {
				topHeight = north.Get(15*16 + x)
			}

			leftHeight := height
			if x > 0 {
				leftHeight = hm.Get(z*16 + x - 1)
			}

			img.Set(x, z, color.RGBA{
				R: 0,
				G: 0,
				B: 0,
				A: heightShade(height, topHeight, leftHeight),
			})
		}
	}

	return img
}
