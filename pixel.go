package mosaic

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"sort"
	"sync"

	"github.com/Tnze/go-mc/save"
)

type PixelShaderOpts struct {
	// Shading darkens columns lower than their northern or western
	// neighbour.
	Shading bool
	// StripCeiling skips the top solid layer, for worlds with a roof such
	// as the nether.
	StripCeiling bool
}

// PixelShader colours each column with the palette colour of its top block.
type PixelShader struct {
	sync.Mutex

	opts               PixelShaderOpts
	palette            *Palette
	missingBlockStates map[string]struct{}
}

func NewPixelShader(palette *Palette, opts PixelShaderOpts) *PixelShader {
	return &PixelShader{
		opts:               opts,
		palette:            palette,
		missingBlockStates: make(map[string]struct{}),
	}
}

func (c *PixelShader) ShadeChunk(chunk *save.Chunk, north *save.Chunk) (*image.RGBA, error) {
	motionBlocking, err := chunkHeightmap(chunk, "MOTION_BLOCKING")
	if err != nil {
		return nil, err
	}
	if motionBlocking == nil {
		return nil, nil
	}
	oceanFloor, err := chunkHeightmap(chunk, "OCEAN_FLOOR")
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, ChunkPixels, ChunkPixels))
	cache := newSectionCache(chunk)

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			heightmapIndex := z*16 + x
			yStart := motionBlocking.Get(heightmapIndex)
			underCeiling := false

			for y := yStart; y > 1; y-- {
				sc, err := cache.get(y / 16)
				if err != nil {
					return nil, err
				}
				if sc == nil {
					continue
				}

				blockState, ok := sc.blockAt(x, y%16, z)
				if !ok {
					continue
				}
				air := isAirBlock(blockState.Name)

				// with a ceiling, wait for the first air block below it
				if c.opts.StripCeiling && !underCeiling {
					if !air || y == yStart {
						continue
					}
					underCeiling = true
				}

				if air {
					continue
				}

				clr := c.palette.GetColor(blockState, sc.biomeAt(x, y%16, z))
				if clr == nil {
					c.Lock()
					c.missingBlockStates[blockState.Name] = struct{}{}
					c.Unlock()
					continue
				}

				// darken water by its depth
				if blockState.Name == "minecraft:water" && oceanFloor != nil {
					d := (y - oceanFloor.Get(heightmapIndex)) * 8
					if d > 128 {
						d = 128
					}
					clr = combineColor(clr, color.RGBA{
						R: 0,
						G: 0,
						B: 0,
						A: uint8(d),
					})
				}

				img.Set(x, z, clr)
				break
			}
		}
	}

	if c.opts.Shading {
		northHeightmap, err := chunkHeightmap(north, "MOTION_BLOCKING")
		if err != nil {
			log.Printf("[shader] ignoring north heightmap: %v", err)
			northHeightmap = nil
		}
		overlay := shadeOverlay(motionBlocking, northHeightmap)
		draw.Draw(img, img.Bounds(), overlay, image.Point{}, draw.Over)
	}

	return img, nil
}

// MissingBlockStates lists block names the palette had no colour for.
func (c *PixelShader) MissingBlockStates() []string {
	c.Lock()
	defer c.Unlock()

	result := []string{}
	for k := range c.missingBlockStates {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func combineColor(c1, c2 color.Color) color.Color {
	r, g, b, a := c1.RGBA()
	r2, g2, b2, a2 := c2.RGBA()

	return color.RGBA{
		uint8((r + r2) >> 9),
		uint8((g + g2) >> 9),
		uint8((b + b2) >> 9),
		uint8((a + a2) >> 9),
	}
}
