package mosaic

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// ChunkSet is a set of chunks within one region.
type ChunkSet map[ChunkCoord]struct{}

func (s ChunkSet) Add(c ChunkCoord) {
	s[c] = struct{}{}
}

func (s ChunkSet) Has(c ChunkCoord) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the chunks in index order.
func (s ChunkSet) Sorted() []ChunkCoord {
	result := make([]ChunkCoord, 0, len(s))
	for c := range s {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Less(result[j])
	})
	return result
}

// WorkMap names every chunk that must be rendered, grouped by region.
type WorkMap map[RegionCoord]ChunkSet

func (w WorkMap) add(r RegionCoord, c ChunkCoord) {
	set, ok := w[r]
	if !ok {
		set = make(ChunkSet)
		w[r] = set
	}
	set.Add(c)
}

// Regions returns the regions of the work map in sorted order.
func (w WorkMap) Regions() []RegionCoord {
	result := make([]RegionCoord, 0, len(w))
	for r := range w {
		result = append(result, r)
	}
	sortRegions(result)
	return result
}

// Total counts the chunks across all regions.
func (w WorkMap) Total() int {
	total := 0
	for _, set := range w {
		total += len(set)
	}
	return total
}

func sortRegions(regions []RegionCoord) {
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Less(regions[j])
	})
}

// Dimension is the result of scanning a directory of region files.
type Dimension struct {
	Source string
	// Pending holds the timestamp table to persist for every region with
	// local changes, once that region has been rendered.
	Pending map[RegionCoord]*TimestampTable
	Work    WorkMap
}

type ScanOpts struct {
	Source    string
	Snapshots *SnapshotStore
	Bounds    *Bounds
}

// Scan diffs every region file under opts.Source against its snapshot and
// builds the work map, including the chunks south of each change whose
// shading depends on it.
func Scan(opts ScanOpts) (*Dimension, error) {
	regions, err := listRegions(opts.Source, opts.Bounds)
	if err != nil {
		return nil, err
	}

	dim := &Dimension{
		Source:  opts.Source,
		Pending: make(map[RegionCoord]*TimestampTable),
		Work:    make(WorkMap),
	}

	coords := make([]RegionCoord, 0, len(regions))
	for rc := range regions {
		coords = append(coords, rc)
	}
	sortRegions(coords)

	for _, rc := range coords {
		path := regions[rc]
		table, err := ExtractTimestamps(path)
		if errors.Is(err, ErrEmptyRegion) {
			// regions sort north to south so any work already propagated
			// into it can still be dropped here
			log.Printf("[scanner] skipping empty region file %s", path)
			delete(regions, rc)
			delete(dim.Work, rc)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read region timestamps %s: %w", path, err)
		}

		diff := table.Diff(opts.Snapshots.Load(rc))
		if len(diff) == 0 {
			continue
		}
		dim.Pending[rc] = table

		for _, c := range diff {
			dim.Work.add(rc, c)

			if c.Z < ChunkSide-1 {
				dim.Work.add(rc, ChunkCoord{X: c.X, Z: c.Z + 1})
				continue
			}

			// the chunk below the last row lives in the next region south
			south := rc.South()
			if _, ok := regions[south]; ok {
				dim.Work.add(south, ChunkCoord{X: c.X, Z: 0})
			}
		}
	}

	log.Printf("[scanner] %s: %d regions to render (%d with local changes, %d chunks)",
		opts.Source, len(dim.Work), len(dim.Pending), dim.Work.Total())

	return dim, nil
}

// listRegions returns the path of every well-named region file inside
// bounds.
func listRegions(src string, bounds *Bounds) (map[RegionCoord]string, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}

	regions := make(map[RegionCoord]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		rc, ok := ParseRegionFileName(e.Name())
		if !ok || !bounds.Contains(rc) {
			continue
		}
		regions[rc] = filepath.Join(src, e.Name())
	}
	return regions, nil
}
