package build

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/b1naryth1ef/mosaic"
	"github.com/b1naryth1ef/mosaic/web"
	"github.com/hashicorp/go-multierror"
)

// progressBuffer bounds how far workers may run ahead of the progress sink.
const progressBuffer = 10

type BuildOpts struct {
	// ForceClean renders everything again while still persisting results.
	ForceClean bool
	// CacheMode overrides the cache mode of every map when set.
	CacheMode string
	// Bounds overrides the bounds of every map when set.
	Bounds *mosaic.Bounds
}

func ensureDirectory(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

func cacheMode(mapCfg *mosaic.MapConfigBlock, opts BuildOpts) (mosaic.CacheMode, error) {
	if opts.ForceClean {
		return mosaic.CacheWriteOnly, nil
	}
	if opts.CacheMode != "" {
		return mosaic.ParseCacheMode(opts.CacheMode)
	}
	return mosaic.ParseCacheMode(mapCfg.CacheMode)
}

// paletteLoader loads the palette of a map once, on first request.
type paletteLoader struct {
	path    string
	palette *mosaic.Palette
}

func (p *paletteLoader) get() (*mosaic.Palette, error) {
	if p.palette != nil {
		return p.palette, nil
	}
	if p.path == "" {
		return nil, fmt.Errorf("no palette configured")
	}

	palette, err := mosaic.LoadPalette(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load palette %s: %w", p.path, err)
	}
	p.palette = palette
	return palette, nil
}

func newShader(layerCfg *mosaic.LayerConfigBlock, palettes *paletteLoader) (mosaic.ChunkShader, error) {
	switch layerCfg.Shader {
	case "pixel":
		palette, err := palettes.get()
		if err != nil {
			return nil, err
		}
		return mosaic.NewPixelShader(palette, mosaic.PixelShaderOpts{
			Shading:      layerCfg.GetBool("shading", true),
			StripCeiling: layerCfg.GetBool("strip_ceiling", false),
		}), nil
	case "biome":
		var names []string
		if palettes.path != "" {
			palette, err := palettes.get()
			if err != nil {
				return nil, err
			}
			names = palette.BiomeNames()
		}
		return mosaic.NewBiomeShader(names)
	case "lighting":
		return mosaic.NewLightingShader(), nil
	}
	return nil, fmt.Errorf("unsupported shader '%s'", layerCfg.Shader)
}

func buildLayer(config *mosaic.Config, opts BuildOpts, mapCfg *mosaic.MapConfigBlock, layerCfg *mosaic.LayerConfigBlock, palettes *paletteLoader, outputPath string) (*web.LayerData, error) {
	imagePath := filepath.Join(outputPath, "tiles", mapCfg.Name, layerCfg.Name)
	err := ensureDirectory(imagePath)
	if err != nil {
		return nil, err
	}

	cacheRoot := mapCfg.Cache
	if cacheRoot == "" {
		cacheRoot = filepath.Join(outputPath, "cache", mapCfg.Name)
	}
	cachePath := filepath.Join(cacheRoot, layerCfg.Name)

	mode, err := cacheMode(mapCfg, opts)
	if err != nil {
		return nil, err
	}
	if mode.Writes() {
		err = ensureDirectory(cachePath)
		if err != nil {
			return nil, err
		}
	}

	bounds := opts.Bounds
	if bounds == nil {
		bounds = mapCfg.Bounds.Bounds()
	}

	shader, err := newShader(layerCfg, palettes)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	snapshots := mosaic.NewSnapshotStore(cachePath, mode)
	dim, err := mosaic.Scan(mosaic.ScanOpts{
		Source:    mapCfg.Path,
		Snapshots: snapshots,
		Bounds:    bounds,
	})
	if err != nil {
		return nil, err
	}

	tiles := mosaic.NewTileStore(imagePath)
	renderer := mosaic.NewRenderer(shader, mosaic.RegionDir(mapCfg.Path), mosaic.AnvilDecoder{}, tiles, snapshots)

	progress := make(chan mosaic.Progress, progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		LogProgress(fmt.Sprintf("%s/%s", mapCfg.Name, layerCfg.Name), progress)
	}()

	result, renderErr := renderer.RenderAll(dim, mosaic.RenderOpts{
		Concurrency: config.Concurrency,
		Progress:    progress,
	})
	<-done

	log.Printf("[build] Finished rendering %s/%s in %dms (%d regions, %d chunks, %d skipped, %d failed)",
		mapCfg.Name, layerCfg.Name, time.Since(start).Milliseconds(),
		result.RenderedRegions, result.RenderedChunks, result.SkippedChunks, len(result.Failed))

	if pixel, ok := shader.(*mosaic.PixelShader); ok {
		if missing := pixel.MissingBlockStates(); len(missing) > 0 {
			log.Printf("[build] %s/%s: no palette colour for %d block states: %v", mapCfg.Name, layerCfg.Name, len(missing), missing)
		}
	}

	regions, err := tiles.List()
	if err != nil {
		return nil, err
	}

	layerData := &web.LayerData{
		Name:     layerCfg.Name,
		Path:     filepath.ToSlash(filepath.Join("tiles", mapCfg.Name, layerCfg.Name)),
		TileSize: mosaic.TilePixels,
		Opacity:  layerCfg.Opacity,
		Tiles:    make([]web.TileData, 0, len(regions)),
	}
	for _, rc := range regions {
		layerData.Tiles = append(layerData.Tiles, web.TileData{X: rc.X, Z: rc.Z})
	}

	return layerData, renderErr
}

func buildMap(config *mosaic.Config, opts BuildOpts, mapCfg *mosaic.MapConfigBlock, layers map[string]*mosaic.LayerConfigBlock, outputPath string) (*web.MapData, error) {
	mapData := web.MapData{
		Name:   mapCfg.Name,
		Layers: []web.LayerData{},
	}

	palettes := &paletteLoader{path: mapCfg.Palette}

	var errs *multierror.Error
	for _, layerName := range mapCfg.Layers {
		layerData, err := buildLayer(config, opts, mapCfg, layers[layerName], palettes, outputPath)
		if layerData == nil {
			return nil, fmt.Errorf("failed to build %s/%s: %w", mapCfg.Name, layerName, err)
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s/%s: %w", mapCfg.Name, layerName, err))
		}
		mapData.Layers = append(mapData.Layers, *layerData)
	}

	return &mapData, errs.ErrorOrNil()
}

// Build renders every configured map. Regions that fail to render do not
// stop the build; their errors are returned together at the end.
func Build(config *mosaic.Config, opts BuildOpts) error {
	outputs := map[string]string{}
	for _, output := range config.Outputs {
		err := ensureDirectory(filepath.Join(output.Path, "tiles"))
		if err != nil {
			return err
		}

		outputs[output.Name] = output.Path
	}

	layers := map[string]*mosaic.LayerConfigBlock{}
	for _, layer := range config.Layers {
		layers[layer.Name] = layer
	}

	var errs *multierror.Error
	maps := map[string][]web.MapData{}
	for _, mapCfg := range config.Maps {
		mapData, err := buildMap(config, opts, mapCfg, layers, outputs[mapCfg.Output])
		if mapData == nil {
			return err
		}
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		maps[mapCfg.Output] = append(maps[mapCfg.Output], *mapData)
	}

	for _, output := range config.Outputs {
		if !output.Manifest {
			continue
		}

		err := web.WriteManifest(output.Path, web.FrontendData{
			Maps: append([]web.MapData{}, maps[output.Name]...),
		})
		if err != nil {
			return err
		}
	}

	return errs.ErrorOrNil()
}
