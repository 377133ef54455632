package mosaic

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/Tnze/go-mc/save"
	"github.com/muesli/gamut"
)

type Biome struct {
	Temperature float64 `json:"temperature"`
	Downfall    float64 `json:"downfall"`
}

// plains
var defaultBiome = Biome{Temperature: 0.8, Downfall: 0.4}

// ColorMapCoords locates the biome on the 256x256 grass and foliage maps.
func (b *Biome) ColorMapCoords() (int, int) {
	r := clamp(b.Downfall, 0, 1) * clamp(b.Temperature, 0, 1)
	x := int(math.Ceil(255 - (clamp(b.Temperature, 0, 1) * 255)))
	y := int(math.Ceil(255 - (r * 255)))
	return x, y
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	} else if v > max {
		return max
	} else {
		return v
	}
}

var defaultBiomeNames = []string{
	"minecraft:badlands",
	"minecraft:beach",
	"minecraft:birch_forest",
	"minecraft:cherry_grove",
	"minecraft:cold_ocean",
	"minecraft:dark_forest",
	"minecraft:deep_dark",
	"minecraft:deep_ocean",
	"minecraft:desert",
	"minecraft:dripstone_caves",
	"minecraft:forest",
	"minecraft:frozen_ocean",
	"minecraft:frozen_river",
	"minecraft:grove",
	"minecraft:jagged_peaks",
	"minecraft:jungle",
	"minecraft:lukewarm_ocean",
	"minecraft:lush_caves",
	"minecraft:mangrove_swamp",
	"minecraft:meadow",
	"minecraft:mushroom_fields",
	"minecraft:ocean",
	"minecraft:old_growth_pine_taiga",
	"minecraft:plains",
	"minecraft:river",
	"minecraft:savanna",
	"minecraft:snowy_plains",
	"minecraft:snowy_slopes",
	"minecraft:snowy_taiga",
	"minecraft:sparse_jungle",
	"minecraft:stony_peaks",
	"minecraft:stony_shore",
	"minecraft:sunflower_plains",
	"minecraft:swamp",
	"minecraft:taiga",
	"minecraft:warm_ocean",
	"minecraft:windswept_hills",
	"minecraft:wooded_badlands",
}

// BiomeShader colours every column by the biome of its top block, ignoring
// the north neighbour.
type BiomeShader struct {
	biomes map[string]color.Color
}

// NewBiomeShader assigns a distinct pastel colour to every biome name. With
// no names a built-in list of overworld biomes is used.
func NewBiomeShader(biomeNames []string) (*BiomeShader, error) {
	if len(biomeNames) == 0 {
		biomeNames = defaultBiomeNames
	}
	names := append([]string(nil), biomeNames...)
	sort.Strings(names)

	colors, err := gamut.Generate(len(names), gamut.PastelGenerator{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate color palette for biomes: %w", err)
	}

	biomes := make(map[string]color.Color, len(names))
	for idx, biome := range names {
		biomes[biome] = colors[idx]
	}

	return &BiomeShader{
		biomes: biomes,
	}, nil
}

func (c *BiomeShader) ShadeChunk(chunk *save.Chunk, north *save.Chunk) (*image.RGBA, error) {
	motionBlocking, err := chunkHeightmap(chunk, "MOTION_BLOCKING")
	if err != nil {
		return nil, err
	}
	if motionBlocking == nil {
		return nil, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, ChunkPixels, ChunkPixels))
	cache := newSectionCache(chunk)

	for x := 0; x < ChunkPixels; x++ {
		for z := 0; z < ChunkPixels; z++ {
			y := motionBlocking.Get(z*16+x) - 1
			if y < 0 {
				continue
			}

			sc, err := cache.get(y / 16)
			if err != nil {
				return nil, err
			}
			if sc == nil || len(sc.section.Biomes.Palette) == 0 {
				continue
			}

			biomeState := sc.biomeAt(x, y%16, z)
			if clr := c.biomes[string(biomeState)]; clr != nil {
				img.Set(x, z, clr)
			}
		}
	}

	return img, nil
}
