package mosaic

import (
	"errors"
	"image"
	"image/draw"
	"image/png"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/b1naryth1ef/mosaic/internal/fileutil"
)

// TileStore reads and writes region tiles as PNG files in a directory.
type TileStore struct {
	dir string
}

func NewTileStore(dir string) *TileStore {
	return &TileStore{dir: dir}
}

func (t *TileStore) Path(r RegionCoord) string {
	return filepath.Join(t.dir, TileFileName(r))
}

func newCanvas() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, TilePixels, TilePixels))
}

// Load returns the previously rendered tile for r as a fresh canvas. A
// missing or unusable tile yields a blank canvas.
func (t *TileStore) Load(r RegionCoord) *image.RGBA {
	canvas := newCanvas()

	fd, err := os.Open(t.Path(r))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[tiles] failed to open tile %s: %v", t.Path(r), err)
		}
		return canvas
	}
	defer fd.Close()

	img, err := png.Decode(fd)
	if err != nil {
		log.Printf("[tiles] failed to decode tile %s, starting blank: %v", t.Path(r), err)
		return canvas
	}

	if img.Bounds().Dx() != TilePixels || img.Bounds().Dy() != TilePixels {
		log.Printf("[tiles] tile %s has size %v, starting blank", t.Path(r), img.Bounds().Size())
		return canvas
	}

	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)
	return canvas
}

func (t *TileStore) Save(r RegionCoord, img image.Image) error {
	return fileutil.WithWriteFile(t.Path(r), fileutil.PublicMode, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

// List returns the regions that have a tile in the store.
func (t *TileStore) List() ([]RegionCoord, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, err
	}

	var result []RegionCoord
	for _, e := range entries {
		if rc, ok := ParseTileFileName(e.Name()); ok {
			result = append(result, rc)
		}
	}
	sortRegions(result)
	return result, nil
}
