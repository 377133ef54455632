package mosaic

import (
	"image"

	"github.com/Tnze/go-mc/save"
)

// ChunkShader renders the ChunkPixels square patch for one chunk. north is
// the chunk directly north of it, or nil when there is none. A nil image
// leaves the tile untouched.
type ChunkShader interface {
	ShadeChunk(chunk *save.Chunk, north *save.Chunk) (*image.RGBA, error)
}
