package mosaic

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/b1naryth1ef/mosaic/internal/fileutil"
)

// CacheMode controls how snapshots and previously rendered tiles are used.
type CacheMode int

const (
	// CacheReadWrite diffs against stored snapshots and persists new ones.
	CacheReadWrite CacheMode = iota
	// CacheWriteOnly renders everything from scratch but persists results.
	CacheWriteOnly
	// CacheReadOnly diffs against stored snapshots without persisting.
	CacheReadOnly
	// CacheDisabled skips all snapshot I/O and renders everything.
	CacheDisabled
)

var cacheModeNames = map[CacheMode]string{
	CacheReadWrite: "read-write",
	CacheWriteOnly: "write-only",
	CacheReadOnly:  "read-only",
	CacheDisabled:  "disabled",
}

func ParseCacheMode(s string) (CacheMode, error) {
	if s == "" {
		return CacheReadWrite, nil
	}
	for mode, name := range cacheModeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown cache mode '%s'", s)
}

func (m CacheMode) String() string {
	if name, ok := cacheModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("CacheMode(%d)", int(m))
}

// Reads reports whether stored snapshots and tiles are consulted.
func (m CacheMode) Reads() bool {
	return m == CacheReadWrite || m == CacheReadOnly
}

// Writes reports whether snapshots are persisted.
func (m CacheMode) Writes() bool {
	return m == CacheReadWrite || m == CacheWriteOnly
}

// SnapshotStore persists timestamp tables for regions in a directory.
type SnapshotStore struct {
	dir  string
	mode CacheMode
}

func NewSnapshotStore(dir string, mode CacheMode) *SnapshotStore {
	return &SnapshotStore{
		dir:  dir,
		mode: mode,
	}
}

func (s *SnapshotStore) Mode() CacheMode {
	if s == nil {
		return CacheDisabled
	}
	return s.mode
}

func (s *SnapshotStore) path(r RegionCoord) string {
	return filepath.Join(s.dir, SnapshotFileName(r))
}

// Load returns the stored snapshot for r, or nil when there is none or the
// cache mode ignores stored snapshots. An unreadable snapshot is treated
// the same as a missing one.
func (s *SnapshotStore) Load(r RegionCoord) *TimestampTable {
	if !s.Mode().Reads() {
		return nil
	}

	f, err := os.Open(s.path(r))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("[cache] failed to open snapshot %s: %v", s.path(r), err)
		}
		return nil
	}
	defer f.Close()

	table, err := ReadTimestampTable(f)
	if err != nil {
		log.Printf("[cache] ignoring snapshot %s: %v", s.path(r), err)
		return nil
	}
	return table
}

// Save persists table as the snapshot for r. It is a no-op unless the cache
// mode writes.
func (s *SnapshotStore) Save(r RegionCoord, table *TimestampTable) error {
	if !s.Mode().Writes() {
		return nil
	}

	return fileutil.WithWriteFile(s.path(r), fileutil.PublicMode, func(w io.Writer) error {
		_, err := table.WriteTo(w)
		return err
	})
}
