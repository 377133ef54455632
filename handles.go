package mosaic

import (
	"log"
	"sync"

	"github.com/Tnze/go-mc/save"
)

// regionHandle is an opened region shared by every task of a run. Reads are
// serialized because the underlying reader is not safe for concurrent use.
type regionHandle struct {
	sync.Mutex

	coord  RegionCoord
	reader RegionReader
}

func (h *regionHandle) readChunk(c ChunkCoord) ([]byte, error) {
	h.Lock()
	defer h.Unlock()
	return h.reader.ReadChunk(c)
}

// regionCache opens each region at most once per run.
type regionCache struct {
	sync.Mutex

	source  RegionSource
	regions map[RegionCoord]*regionHandle
}

func newRegionCache(source RegionSource) *regionCache {
	return &regionCache{
		source:  source,
		regions: make(map[RegionCoord]*regionHandle),
	}
}

// get returns the handle for rc, opening it on first use. A nil handle
// means the region does not exist; that result is remembered too.
func (c *regionCache) get(rc RegionCoord) (*regionHandle, error) {
	c.Lock()
	defer c.Unlock()

	if h, ok := c.regions[rc]; ok {
		return h, nil
	}

	reader, err := c.source.OpenRegion(rc)
	if err != nil {
		return nil, err
	}

	var h *regionHandle
	if reader != nil {
		h = &regionHandle{coord: rc, reader: reader}
	}
	c.regions[rc] = h
	return h, nil
}

// release closes the handle of rc once no task of the run needs it anymore.
func (c *regionCache) release(rc RegionCoord) {
	c.Lock()
	h, ok := c.regions[rc]
	delete(c.regions, rc)
	c.Unlock()

	if !ok || h == nil {
		return
	}

	h.Lock()
	defer h.Unlock()
	if err := h.reader.Close(); err != nil {
		log.Printf("[renderer] failed to close region %v: %v", rc, err)
	}
}

func (c *regionCache) close() {
	c.Lock()
	defer c.Unlock()

	for rc, h := range c.regions {
		if h == nil {
			continue
		}
		if err := h.reader.Close(); err != nil {
			log.Printf("[renderer] failed to close region %v: %v", rc, err)
		}
	}
	c.regions = make(map[RegionCoord]*regionHandle)
}

type chunkKey struct {
	Region RegionCoord
	Chunk  ChunkCoord
}

// chunkHandle is the memoized decode result for one chunk. Chunk is nil
// when the chunk is absent or could not be decoded.
type chunkHandle struct {
	Chunk *save.Chunk
}

// chunkCache decodes each chunk at most once and shares the result between
// the tasks rendering a region and the one rendering the region south of it.
type chunkCache struct {
	sync.RWMutex

	regions *regionCache
	decoder ChunkDecoder
	chunks  map[chunkKey]*chunkHandle
}

func newChunkCache(regions *regionCache, decoder ChunkDecoder) *chunkCache {
	return &chunkCache{
		regions: regions,
		decoder: decoder,
		chunks:  make(map[chunkKey]*chunkHandle),
	}
}

// get returns the decoded chunk, or nil if it is absent or corrupt. The
// error is only set when the region itself could not be opened.
func (c *chunkCache) get(rc RegionCoord, cc ChunkCoord) (*save.Chunk, error) {
	key := chunkKey{Region: rc, Chunk: cc}

	c.RLock()
	h, ok := c.chunks[key]
	c.RUnlock()
	if ok {
		return h.Chunk, nil
	}

	c.Lock()
	defer c.Unlock()

	// another task may have decoded it while we waited for the write lock
	if h, ok := c.chunks[key]; ok {
		return h.Chunk, nil
	}

	region, err := c.regions.get(rc)
	if err != nil {
		return nil, err
	}

	h = &chunkHandle{}
	if region != nil {
		h.Chunk = c.load(region, cc)
	}
	c.chunks[key] = h
	return h.Chunk, nil
}

func (c *chunkCache) load(region *regionHandle, cc ChunkCoord) *save.Chunk {
	data, err := region.readChunk(cc)
	if err != nil {
		log.Printf("[renderer] failed to read chunk %v in region %v: %v", cc, region.coord, err)
		return nil
	}
	if data == nil {
		return nil
	}

	chunk, err := c.decoder.DecodeChunk(data)
	if err != nil {
		log.Printf("[renderer] failed to decode chunk %v in region %v: %v", cc, region.coord, err)
		return nil
	}
	return chunk
}

// evict drops the chunks of rc that no later task can need. The last row of
// rc is kept while the region south of it is still pending, and every chunk
// of the region north of rc is kept while that region is pending.
func (c *chunkCache) evict(rc RegionCoord, southPending, northPending bool) {
	north := rc.North()

	c.Lock()
	defer c.Unlock()

	for key := range c.chunks {
		switch {
		case key.Region == rc && key.Chunk.Z < ChunkSide-1:
			delete(c.chunks, key)
		case key.Region == rc && !southPending:
			delete(c.chunks, key)
		case key.Region == north && !northPending:
			delete(c.chunks, key)
		}
	}
}

func (c *chunkCache) len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.chunks)
}

// remainingSet tracks the regions of a run that have not finished yet.
type remainingSet struct {
	sync.Mutex

	regions map[RegionCoord]struct{}
}

func newRemainingSet(regions []RegionCoord) *remainingSet {
	s := &remainingSet{
		regions: make(map[RegionCoord]struct{}, len(regions)),
	}
	for _, rc := range regions {
		s.regions[rc] = struct{}{}
	}
	return s
}

// finish removes rc and reports, in the same critical section, whether the
// regions south and north of it are still pending.
func (s *remainingSet) finish(rc RegionCoord) (southPending, northPending bool) {
	s.Lock()
	defer s.Unlock()

	delete(s.regions, rc)
	_, southPending = s.regions[rc.South()]
	_, northPending = s.regions[rc.North()]
	return southPending, northPending
}

func (s *remainingSet) len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.regions)
}
