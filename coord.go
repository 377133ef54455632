package mosaic

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ChunkSide is the number of chunks along each edge of a region.
const ChunkSide = 32

// ChunkPixels is the edge length in pixels of the patch rendered for a chunk.
const ChunkPixels = 16

// TilePixels is the edge length in pixels of a region tile.
const TilePixels = ChunkSide * ChunkPixels

var ErrInvalidOffset = errors.New("chunk coord will be out of bounds")

// RegionCoord identifies a region in the world grid.
type RegionCoord struct {
	X int
	Z int
}

func (r RegionCoord) Offset(x, z int) RegionCoord {
	return RegionCoord{X: r.X + x, Z: r.Z + z}
}

func (r RegionCoord) North() RegionCoord {
	return r.Offset(0, -1)
}

func (r RegionCoord) South() RegionCoord {
	return r.Offset(0, 1)
}

// Less orders regions by X and then Z.
func (r RegionCoord) Less(o RegionCoord) bool {
	if r.X != o.X {
		return r.X < o.X
	}
	return r.Z < o.Z
}

func (r RegionCoord) String() string {
	return fmt.Sprintf("(%d, %d)", r.X, r.Z)
}

// ChunkCoord identifies a chunk relative to its region.
type ChunkCoord struct {
	X int
	Z int
}

// chunkAt maps a timestamp table index to its chunk.
func chunkAt(index int) ChunkCoord {
	return ChunkCoord{X: index % ChunkSide, Z: index / ChunkSide}
}

func (c ChunkCoord) index() int {
	return c.Z*ChunkSide + c.X
}

func (c ChunkCoord) Valid() bool {
	return c.X >= 0 && c.X < ChunkSide && c.Z >= 0 && c.Z < ChunkSide
}

// Offset moves the coordinate within its region, returning ErrInvalidOffset
// when the result would leave it.
func (c ChunkCoord) Offset(x, z int) (ChunkCoord, error) {
	n := ChunkCoord{X: c.X + x, Z: c.Z + z}
	if !n.Valid() {
		return ChunkCoord{}, ErrInvalidOffset
	}
	return n, nil
}

func (c ChunkCoord) Less(o ChunkCoord) bool {
	return c.index() < o.index()
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Z)
}

// Bounds is an inclusive rectangle of regions.
type Bounds struct {
	Min RegionCoord
	Max RegionCoord
}

// NewBounds builds the smallest bounds containing both corners.
func NewBounds(a, b RegionCoord) Bounds {
	return Bounds{
		Min: RegionCoord{X: min(a.X, b.X), Z: min(a.Z, b.Z)},
		Max: RegionCoord{X: max(a.X, b.X), Z: max(a.Z, b.Z)},
	}
}

// Contains reports whether r lies inside b. A nil Bounds contains everything.
func (b *Bounds) Contains(r RegionCoord) bool {
	if b == nil {
		return true
	}
	return b.Min.X <= r.X && r.X <= b.Max.X && b.Min.Z <= r.Z && r.Z <= b.Max.Z
}

var (
	regionFileRe = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)
	tileFileRe   = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.png$`)
	locationRe   = regexp.MustCompile(`^\s*(-?\d+)\s*,\s*(-?\d+)\s*$`)
)

func RegionFileName(r RegionCoord) string {
	return fmt.Sprintf("r.%d.%d.mca", r.X, r.Z)
}

func SnapshotFileName(r RegionCoord) string {
	return fmt.Sprintf("r.%d.%d.cache", r.X, r.Z)
}

func TileFileName(r RegionCoord) string {
	return fmt.Sprintf("r.%d.%d.png", r.X, r.Z)
}

// ParseRegionFileName decodes a name of the form r.X.Z.mca.
func ParseRegionFileName(name string) (RegionCoord, bool) {
	return parseCoordPair(regionFileRe, name)
}

// ParseTileFileName decodes a name of the form r.X.Z.png.
func ParseTileFileName(name string) (RegionCoord, bool) {
	return parseCoordPair(tileFileRe, name)
}

// ParseLocation decodes a region location written as "x,z".
func ParseLocation(s string) (RegionCoord, error) {
	r, ok := parseCoordPair(locationRe, s)
	if !ok {
		return RegionCoord{}, fmt.Errorf("invalid region location %q, expected x,z", s)
	}
	return r, nil
}

func parseCoordPair(re *regexp.Regexp, s string) (RegionCoord, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return RegionCoord{}, false
	}
	x, err := strconv.Atoi(m[1])
	if err != nil {
		return RegionCoord{}, false
	}
	z, err := strconv.Atoi(m[2])
	if err != nil {
		return RegionCoord{}, false
	}
	return RegionCoord{X: x, Z: z}, true
}
