package mosaic

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Tnze/go-mc/save"
	"github.com/hashicorp/go-multierror"
)

type Renderer struct {
	shader    ChunkShader
	source    RegionSource
	decoder   ChunkDecoder
	tiles     *TileStore
	snapshots *SnapshotStore

	// onEvicted runs after a region finished and its chunks and regions were
	// released
	onEvicted func(run *renderRun, rc RegionCoord, southPending, northPending bool)
}

func NewRenderer(shader ChunkShader, source RegionSource, decoder ChunkDecoder, tiles *TileStore, snapshots *SnapshotStore) *Renderer {
	return &Renderer{
		shader:    shader,
		source:    source,
		decoder:   decoder,
		tiles:     tiles,
		snapshots: snapshots,
	}
}

// renderRun holds the state shared by the tasks of one RenderAll call.
type renderRun struct {
	dim       *Dimension
	regions   *regionCache
	chunks    *chunkCache
	remaining *remainingSet
	progress  progressSender

	renderedRegions atomic.Uint32
	renderedChunks  atomic.Uint32
	skippedChunks   atomic.Uint32
}

// RenderAll renders every region of the work map, persisting each tile and
// its pending snapshot as soon as the region is done. A failing region does
// not stop the others; the returned error aggregates every failure.
func (r *Renderer) RenderAll(dim *Dimension, opts RenderOpts) (*RenderResult, error) {
	progress := progressSender(opts.Progress)
	defer progress.close()

	regions := dim.Work.Regions()

	regionCache := newRegionCache(r.source)
	defer regionCache.close()

	run := &renderRun{
		dim:       dim,
		regions:   regionCache,
		chunks:    newChunkCache(regionCache, r.decoder),
		remaining: newRemainingSet(regions),
		progress:  progress,
	}

	result := RenderResult{
		Failed: make(map[RegionCoord]error),
	}
	var errs *multierror.Error

	progress.send(Progress{Kind: ProgressBeginAll, Count: dim.Work.Total()})

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	guard := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, rc := range regions {
		guard <- struct{}{}
		wg.Add(1)
		go func(rc RegionCoord) {
			defer wg.Done()
			defer func() {
				<-guard
			}()

			err := r.renderRegion(run, rc)
			if err != nil {
				log.Printf("[renderer] failed to render region %v: %v", rc, err)
				result.Lock()
				result.Failed[rc] = err
				errs = multierror.Append(errs, fmt.Errorf("region %v: %w", rc, err))
				result.Unlock()
			}
		}(rc)
	}
	wg.Wait()

	if n := run.chunks.len(); n != 0 {
		log.Printf("[renderer] %d chunks still cached after render", n)
	}

	progress.send(Progress{Kind: ProgressEndAll})

	result.RenderedRegions = run.renderedRegions.Load()
	result.RenderedChunks = run.renderedChunks.Load()
	result.SkippedChunks = run.skippedChunks.Load()

	return &result, errs.ErrorOrNil()
}

func (r *Renderer) renderRegion(run *renderRun, rc RegionCoord) error {
	chunks := run.dim.Work[rc].Sorted()

	run.progress.send(Progress{Kind: ProgressBegin, Region: rc, Count: len(chunks)})
	defer run.progress.send(Progress{Kind: ProgressEnd, Region: rc})

	var canvas *image.RGBA
	if r.snapshots.Mode().Reads() {
		canvas = r.tiles.Load(rc)
	} else {
		canvas = newCanvas()
	}

	var renderErr error
	for _, cc := range chunks {
		rendered, err := r.renderChunk(run, rc, cc, canvas)
		if err != nil {
			renderErr = err
			break
		}

		if rendered {
			run.renderedChunks.Add(1)
		} else {
			run.skippedChunks.Add(1)
		}
		run.progress.send(Progress{Kind: ProgressStep, Region: rc})
	}

	southPending, northPending := run.remaining.finish(rc)
	run.chunks.evict(rc, southPending, northPending)
	// rc is read by its own task and the one south of it, the north region
	// by this task and its own
	if !southPending {
		run.regions.release(rc)
	}
	if !northPending {
		run.regions.release(rc.North())
	}
	if r.onEvicted != nil {
		r.onEvicted(run, rc, southPending, northPending)
	}

	if renderErr != nil {
		return renderErr
	}

	err := r.tiles.Save(rc, canvas)
	if err != nil {
		return fmt.Errorf("failed to write tile %s: %w", r.tiles.Path(rc), err)
	}
	run.renderedRegions.Add(1)

	if pending, ok := run.dim.Pending[rc]; ok {
		err = r.snapshots.Save(rc, pending)
		if err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
	}

	return nil
}

// renderChunk shades one chunk into canvas. It reports false when the chunk
// was absent, corrupt or produced nothing, leaving the canvas untouched.
func (r *Renderer) renderChunk(run *renderRun, rc RegionCoord, cc ChunkCoord, canvas *image.RGBA) (bool, error) {
	chunk, err := run.chunks.get(rc, cc)
	if err != nil {
		return false, fmt.Errorf("failed to open region: %w", err)
	}
	if chunk == nil {
		return false, nil
	}

	img, err := r.shader.ShadeChunk(chunk, r.northOf(run, rc, cc))
	if err != nil {
		log.Printf("[renderer] failed to shade chunk %v in region %v: %v", cc, rc, err)
		return false, nil
	}
	if img == nil {
		return false, nil
	}

	dst := image.Rect(0, 0, ChunkPixels, ChunkPixels).Add(image.Point{
		cc.X * ChunkPixels,
		cc.Z * ChunkPixels,
	})
	draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Src)
	return true, nil
}

// northOf returns the chunk north of cc, which for the first row lives in
// the last row of the region to the north.
func (r *Renderer) northOf(run *renderRun, rc RegionCoord, cc ChunkCoord) *save.Chunk {
	var (
		north ChunkCoord
		err   error
	)
	if cc.Z == 0 {
		rc = rc.North()
		north, err = cc.Offset(0, ChunkSide-1)
	} else {
		north, err = cc.Offset(0, -1)
	}
	if err != nil {
		return nil
	}

	chunk, err := run.chunks.get(rc, north)
	if err != nil {
		log.Printf("[renderer] failed to open region %v for north context: %v", rc, err)
		return nil
	}
	return chunk
}
