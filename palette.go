package mosaic

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/Tnze/go-mc/nbt"
	"github.com/Tnze/go-mc/save"
)

const (
	paletteBlockStates   = "blockstates.json"
	paletteBiomes        = "biomes.json"
	paletteGrassColorMap = "grass-colourmap.png"
	paletteFoliageMap    = "foliage-colourmap.png"
)

var airBlocks = map[string]struct{}{
	"minecraft:air":         {},
	"minecraft:cave_air":    {},
	"minecraft:void_air":    {},
	"minecraft:dead_bush":   {},
	"minecraft:short_grass": {},
	"minecraft:lily_pad":    {},
	"minecraft:torch":       {},
	"minecraft:wall_torch":  {},
}

func isAirBlock(block string) bool {
	_, ok := airBlocks[block]
	return ok
}

var grassBlocks = map[string]struct{}{
	"minecraft:grass":       {},
	"minecraft:grass_block": {},
	"minecraft:tall_grass":  {},
	"minecraft:vine":        {},
	"minecraft:fern":        {},
	"minecraft:large_fern":  {},
}

var foliageBlocks = map[string]struct{}{
	"minecraft:oak_leaves":      {},
	"minecraft:jungle_leaves":   {},
	"minecraft:acacia_leaves":   {},
	"minecraft:dark_oak_leaves": {},
	"minecraft:mangrove_leaves": {},
	"minecraft:azalea_leaves":   {},
	"minecraft:cherry_leaves":   {},
}

var fixedLeafColors = map[string]color.RGBA{
	"minecraft:birch_leaves":  {R: 0x80, G: 0xa7, B: 0x55, A: 255},
	"minecraft:spruce_leaves": {R: 0x61, G: 0x99, B: 0x61, A: 255},
}

var waterColors = map[save.BiomeState]color.RGBA{
	"minecraft:swamp":          {R: 0x61, G: 0x7B, B: 0x64, A: 255},
	"minecraft:river":          {R: 0x3F, G: 0x76, B: 0xE4, A: 255},
	"minecraft:ocean":          {R: 0x3F, G: 0x76, B: 0xE4, A: 255},
	"minecraft:lukewarm_ocean": {R: 0x45, G: 0xAD, B: 0xF2, A: 255},
	"minecraft:warm_ocean":     {R: 0x43, G: 0xD5, B: 0xEE, A: 255},
	"minecraft:cold_ocean":     {R: 0x3D, G: 0x57, B: 0xD6, A: 255},
	"minecraft:frozen_river":   {R: 0x39, G: 0x38, B: 0xC9, A: 255},
	"minecraft:frozen_ocean":   {R: 0x39, G: 0x38, B: 0xC9, A: 255},
}

var defaultWaterColor = color.RGBA{R: 0x3f, G: 0x76, B: 0xe4, A: 255}

// Palette maps block states to the colour they are drawn with from above.
// It is immutable once loaded.
type Palette struct {
	blockStates map[string]color.RGBA
	biomes      map[save.BiomeState]*Biome

	grassColorMap   image.Image
	foliageColorMap image.Image
}

// LoadPalette reads a palette archive: a gzipped tar holding
// blockstates.json, the grass and foliage colour maps and optionally
// biomes.json.
func LoadPalette(path string) (*Palette, error) {
	loader, err := NewAssetLoaderFromArchive(path)
	if err != nil {
		return nil, err
	}
	return NewPalette(loader)
}

func NewPalette(loader *AssetLoader) (*Palette, error) {
	grassColorMap, err := loader.LoadPNG(paletteGrassColorMap)
	if err != nil {
		return nil, fmt.Errorf("failed to load grass colormap: %w", err)
	}
	foliageColorMap, err := loader.LoadPNG(paletteFoliageMap)
	if err != nil {
		return nil, fmt.Errorf("failed to load foliage colormap: %w", err)
	}

	raw, err := loader.LoadRaw(paletteBlockStates)
	if err != nil {
		return nil, fmt.Errorf("failed to load block states: %w", err)
	}
	var states map[string][4]uint8
	err = json.Unmarshal(raw, &states)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", paletteBlockStates, err)
	}

	blockStates := make(map[string]color.RGBA, len(states))
	for name, c := range states {
		blockStates[name] = color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
	}

	biomes := make(map[save.BiomeState]*Biome)
	if loader.Has(paletteBiomes) {
		raw, err := loader.LoadRaw(paletteBiomes)
		if err != nil {
			return nil, err
		}
		var decoded map[string]*Biome
		err = json.Unmarshal(raw, &decoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", paletteBiomes, err)
		}
		for name, biome := range decoded {
			biomes[save.BiomeState(name)] = biome
		}
	}

	return &Palette{
		blockStates:     blockStates,
		biomes:          biomes,
		grassColorMap:   grassColorMap,
		foliageColorMap: foliageColorMap,
	}, nil
}

// BiomeNames returns the biomes the palette knows about, sorted.
func (p *Palette) BiomeNames() []string {
	names := make([]string, 0, len(p.biomes))
	for name := range p.biomes {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

func (p *Palette) getBiome(state save.BiomeState) *Biome {
	if biome, ok := p.biomes[state]; ok {
		return biome
	}
	return &defaultBiome
}

// GetColor returns the colour for a block state in the given biome, or nil
// when the palette has no entry for it.
func (p *Palette) GetColor(state save.BlockState, biome save.BiomeState) color.Color {
	key, err := blockStateKey(state)
	if err != nil {
		return nil
	}

	clr, ok := p.blockStates[key]
	if !ok {
		clr, ok = p.blockStates[state.Name]
	}
	if !ok {
		return nil
	}
	return p.fixColor(state, clr, biome)
}

func (p *Palette) fixColor(state save.BlockState, clr color.Color, biome save.BiomeState) color.Color {
	if _, ok := grassBlocks[state.Name]; ok {
		x, y := p.getBiome(biome).ColorMapCoords()
		return p.grassColorMap.At(x, y)
	}
	if _, ok := foliageBlocks[state.Name]; ok {
		x, y := p.getBiome(biome).ColorMapCoords()
		return p.foliageColorMap.At(x, y)
	}
	if leaf, ok := fixedLeafColors[state.Name]; ok {
		return leaf
	}
	if state.Name == "minecraft:water" {
		if water, ok := waterColors[biome]; ok {
			return water
		}
		return defaultWaterColor
	}
	return clr
}

// blockStateKey formats a block state as name|key=value,... with the
// properties sorted, the layout used by blockstates.json.
func blockStateKey(state save.BlockState) (string, error) {
	props, err := makeStatePropertiesMap(state.Properties)
	if err != nil {
		return "", err
	}
	if len(props) == 0 {
		return state.Name, nil
	}

	pairs := make([]string, 0, len(props))
	for k, v := range props {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return state.Name + "|" + strings.Join(pairs, ","), nil
}

func makeStatePropertiesMap(msg nbt.RawMessage) (map[string]string, error) {
	props := map[string]string{}
	if msg.Type == nbt.TagEnd {
		return props, nil
	}

	err := msg.Unmarshal(&props)
	if err != nil {
		return nil, err
	}
	return props, nil
}
