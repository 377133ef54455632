package mosaic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Tnze/go-mc/save"
	"github.com/stretchr/testify/require"
)

// regionHeader encodes an anvil header with no sectors and the given
// timestamps.
func regionHeader(table *TimestampTable) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 4096))
	binary.Write(&buf, binary.BigEndian, table)
	return buf.Bytes()
}

func writeRegionFile(t *testing.T, dir string, rc RegionCoord, table *TimestampTable) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, RegionFileName(rc)), regionHeader(table), 0o644)
	require.NoError(t, err)
}

func writeSnapshot(t *testing.T, dir string, rc RegionCoord, table *TimestampTable) {
	t.Helper()
	var buf bytes.Buffer
	_, err := table.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFileName(rc)), buf.Bytes(), 0o644))
}

func tableWith(ts uint32, chunks ...ChunkCoord) *TimestampTable {
	var table TimestampTable
	for _, c := range chunks {
		table[c.index()] = ts
	}
	return &table
}

// fullTable marks every chunk of a region as written at ts.
func fullTable(ts uint32) *TimestampTable {
	var table TimestampTable
	for i := range table {
		table[i] = ts
	}
	return &table
}

// fakeWorld is an in-memory RegionSource. Chunk data encodes the absolute
// chunk position so fakeDecoder can rebuild it.
type fakeWorld struct {
	sync.Mutex

	regions  map[RegionCoord]map[ChunkCoord][]byte
	failOpen map[RegionCoord]bool
	opens    map[RegionCoord]int
	closed   map[RegionCoord]int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		regions:  make(map[RegionCoord]map[ChunkCoord][]byte),
		failOpen: make(map[RegionCoord]bool),
		opens:    make(map[RegionCoord]int),
		closed:   make(map[RegionCoord]int),
	}
}

func (w *fakeWorld) addChunk(rc RegionCoord, cc ChunkCoord) {
	w.setChunk(rc, cc, []byte(fmt.Sprintf("%d %d", rc.X*ChunkSide+cc.X, rc.Z*ChunkSide+cc.Z)))
}

func (w *fakeWorld) addRegion(rc RegionCoord) {
	for i := 0; i < ChunkSide*ChunkSide; i++ {
		w.addChunk(rc, chunkAt(i))
	}
}

func (w *fakeWorld) setChunk(rc RegionCoord, cc ChunkCoord, data []byte) {
	if _, ok := w.regions[rc]; !ok {
		w.regions[rc] = make(map[ChunkCoord][]byte)
	}
	w.regions[rc][cc] = data
}

func (w *fakeWorld) OpenRegion(rc RegionCoord) (RegionReader, error) {
	w.Lock()
	defer w.Unlock()

	if w.failOpen[rc] {
		return nil, fmt.Errorf("permission denied")
	}
	chunks, ok := w.regions[rc]
	if !ok {
		return nil, nil
	}
	w.opens[rc]++
	return &fakeRegion{world: w, coord: rc, chunks: chunks}, nil
}

func (w *fakeWorld) openCount(rc RegionCoord) int {
	w.Lock()
	defer w.Unlock()
	return w.opens[rc]
}

func (w *fakeWorld) closeCount(rc RegionCoord) int {
	w.Lock()
	defer w.Unlock()
	return w.closed[rc]
}

type fakeRegion struct {
	world  *fakeWorld
	coord  RegionCoord
	chunks map[ChunkCoord][]byte
}

func (r *fakeRegion) ReadChunk(c ChunkCoord) ([]byte, error) {
	return r.chunks[c], nil
}

func (r *fakeRegion) Close() error {
	r.world.Lock()
	defer r.world.Unlock()
	r.world.closed[r.coord]++
	return nil
}

type fakeDecoder struct {
	decodes atomic.Int32
}

func (d *fakeDecoder) DecodeChunk(data []byte) (*save.Chunk, error) {
	d.decodes.Add(1)

	var x, z int32
	_, err := fmt.Sscanf(string(data), "%d %d", &x, &z)
	if err != nil {
		return nil, fmt.Errorf("corrupt chunk %q", data)
	}
	return &save.Chunk{XPos: x, ZPos: z, Status: "minecraft:full"}, nil
}

type shadeCall struct {
	Chunk chunkPos
	North *chunkPos
}

type chunkPos struct {
	X int32
	Z int32
}

// fakeShader paints every chunk a solid colour derived from its position
// and records the north context it was given.
type fakeShader struct {
	sync.Mutex

	calls map[chunkPos]shadeCall
}

func newFakeShader() *fakeShader {
	return &fakeShader{calls: make(map[chunkPos]shadeCall)}
}

func chunkColor(pos chunkPos) color.RGBA {
	return color.RGBA{R: uint8(pos.X), G: uint8(pos.Z), B: 200, A: 255}
}

func (s *fakeShader) ShadeChunk(chunk *save.Chunk, north *save.Chunk) (*image.RGBA, error) {
	pos := chunkPos{X: chunk.XPos, Z: chunk.ZPos}
	call := shadeCall{Chunk: pos}
	if north != nil {
		call.North = &chunkPos{X: north.XPos, Z: north.ZPos}
	}

	s.Lock()
	s.calls[pos] = call
	s.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, ChunkPixels, ChunkPixels))
	for x := 0; x < ChunkPixels; x++ {
		for z := 0; z < ChunkPixels; z++ {
			img.SetRGBA(x, z, chunkColor(pos))
		}
	}
	return img, nil
}

func (s *fakeShader) call(pos chunkPos) (shadeCall, bool) {
	s.Lock()
	defer s.Unlock()
	c, ok := s.calls[pos]
	return c, ok
}

// testWorld ties the on-disk region headers to an in-memory world.
type testWorld struct {
	src    string
	cache  string
	images string

	world   *fakeWorld
	decoder *fakeDecoder
	shader  *fakeShader
}

func newTestWorld(t *testing.T) *testWorld {
	root := t.TempDir()
	w := &testWorld{
		src:     filepath.Join(root, "region"),
		cache:   filepath.Join(root, "cache"),
		images:  filepath.Join(root, "images"),
		world:   newFakeWorld(),
		decoder: &fakeDecoder{},
		shader:  newFakeShader(),
	}
	for _, dir := range []string{w.src, w.cache, w.images} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return w
}

func (w *testWorld) scan(t *testing.T, mode CacheMode, bounds *Bounds) *Dimension {
	t.Helper()
	dim, err := Scan(ScanOpts{
		Source:    w.src,
		Snapshots: NewSnapshotStore(w.cache, mode),
		Bounds:    bounds,
	})
	require.NoError(t, err)
	return dim
}

func (w *testWorld) renderer(mode CacheMode) *Renderer {
	return NewRenderer(w.shader, w.world, w.decoder, NewTileStore(w.images), NewSnapshotStore(w.cache, mode))
}

func (w *testWorld) loadTile(t *testing.T, rc RegionCoord) *image.RGBA {
	t.Helper()
	_, err := os.Stat(filepath.Join(w.images, TileFileName(rc)))
	require.NoError(t, err)
	return NewTileStore(w.images).Load(rc)
}

// chunkPixel returns the top-left pixel of a chunk's patch in a tile.
func chunkPixel(img *image.RGBA, cc ChunkCoord) color.RGBA {
	return img.RGBAAt(cc.X*ChunkPixels, cc.Z*ChunkPixels)
}

func absPos(rc RegionCoord, cc ChunkCoord) chunkPos {
	return chunkPos{X: int32(rc.X*ChunkSide + cc.X), Z: int32(rc.Z*ChunkSide + cc.Z)}
}
