package mosaic

import (
	"image"
	"image/color"

	"github.com/Tnze/go-mc/save"
)

// LightingShader renders a darkness overlay from the block light at the top
// of every column.
type LightingShader struct {
}

func NewLightingShader() *LightingShader {
	return &LightingShader{}
}

func (c *LightingShader) ShadeChunk(chunk *save.Chunk, north *save.Chunk) (*image.RGBA, error) {
	motionBlocking, err := chunkHeightmap(chunk, "MOTION_BLOCKING")
	if err != nil {
		return nil, err
	}
	if motionBlocking == nil {
		return nil, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, ChunkPixels, ChunkPixels))

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			y := motionBlocking.Get(z*16 + x)
			sectionIndex := y / 16
			if sectionIndex >= len(chunk.Sections) {
				sectionIndex = len(chunk.Sections) - 1
			}
			section := chunk.Sections[sectionIndex]

			img.Set(x, z, color.RGBA{
				R: 0,
				G: 0,
				B: 0,
				A: 192 - (blockLight(section.BlockLight, x, y%16, z)+1)*12,
			})
		}
	}

	return img, nil
}

// blockLight reads a nibble from a section's light array, 0 when the
// section carries no light data.
func blockLight(light []byte, x, y, z int) byte {
	if len(light) == 0 {
		return 0
	}

	idx := (y << 8) | (z << 4) | x
	if idx/2 >= len(light) {
		return 0
	}
	raw := light[idx/2]
	if idx&1 > 0 {
		return (raw >> 4) & 0x0F
	}
	return raw & 0x0F
}
