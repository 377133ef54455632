package mosaic

import "sync"

type RenderOpts struct {
	// Concurrency is the number of regions rendered at once, defaulting to
	// GOMAXPROCS.
	Concurrency int
	// Progress receives render events and is closed by RenderAll when it
	// returns.
	Progress chan<- Progress
}

type RenderResult struct {
	sync.Mutex

	RenderedRegions uint32
	RenderedChunks  uint32
	SkippedChunks   uint32
	// Failed holds the error for every region whose tile or snapshot could
	// not be produced.
	Failed map[RegionCoord]error
}
