package mosaic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Tnze/go-mc/save/region"
)

// TimestampTable holds the last modification time of every chunk in a
// region, indexed by z*ChunkSide+x. Zero marks a chunk that was never written.
type TimestampTable [ChunkSide * ChunkSide]uint32

// TimestampTableSize is the encoded size of a TimestampTable in bytes.
const TimestampTableSize = ChunkSide * ChunkSide * 4

// ExtractTimestamps reads the timestamp table from the region file at path.
func ExtractTimestamps(path string) (*TimestampTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadRegionTimestamps(f)
}

// ErrEmptyRegion is returned for a zero length region file. The game leaves
// these behind for regions it never wrote a chunk to.
var ErrEmptyRegion = errors.New("region file is empty")

// loadRegion parses the header of an anvil region. Only a zero length file
// yields ErrEmptyRegion; anything shorter than the header is malformed.
func loadRegion(f io.ReadWriteSeeker) (*region.Region, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, ErrEmptyRegion
	}
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}

	reg, err := region.Load(f)
	if errors.Is(err, io.EOF) {
		// the file ended on a sector boundary inside the header
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("malformed region header (%d bytes): %w", size, err)
	}
	return reg, nil
}

// ReadRegionTimestamps reads the timestamp table from the header of an
// anvil region. An empty region yields ErrEmptyRegion.
func ReadRegionTimestamps(f io.ReadWriteSeeker) (*TimestampTable, error) {
	reg, err := loadRegion(f)
	if err != nil {
		return nil, err
	}

	var table TimestampTable
	for z := 0; z < ChunkSide; z++ {
		for x := 0; x < ChunkSide; x++ {
			table[z*ChunkSide+x] = uint32(reg.Timestamps[z][x])
		}
	}
	return &table, nil
}

// ReadTimestampTable decodes a snapshot previously written with WriteTo.
func ReadTimestampTable(r io.Reader) (*TimestampTable, error) {
	var table TimestampTable
	err := binary.Read(r, binary.BigEndian, &table)
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamp table: %w", err)
	}
	return &table, nil
}

// WriteTo encodes the table in the same big-endian layout used by region
// file headers.
func (t *TimestampTable) WriteTo(w io.Writer) (int64, error) {
	err := binary.Write(w, binary.BigEndian, t)
	if err != nil {
		return 0, err
	}
	return TimestampTableSize, nil
}

// Diff returns every present chunk whose timestamp differs from snapshot,
// in index order. A nil snapshot marks every present chunk as changed.
func (t *TimestampTable) Diff(snapshot *TimestampTable) []ChunkCoord {
	var diffs []ChunkCoord
	for i, ts := range t {
		if ts == 0 {
			continue
		}
		if snapshot != nil && snapshot[i] == ts {
			continue
		}
		diffs = append(diffs, chunkAt(i))
	}
	return diffs
}

type ChunkTimestamp struct {
	Chunk     ChunkCoord
	Timestamp uint32
}

func (c ChunkTimestamp) Time() time.Time {
	return time.Unix(int64(c.Timestamp), 0)
}

func (c ChunkTimestamp) String() string {
	return fmt.Sprintf("x:%d, z:%d, timestamp:%s", c.Chunk.X, c.Chunk.Z, c.Time().UTC().Format(time.DateTime))
}

// Entries lists every present chunk with its timestamp.
func (t *TimestampTable) Entries() []ChunkTimestamp {
	var entries []ChunkTimestamp
	for i, ts := range t {
		if ts > 0 {
			entries = append(entries, ChunkTimestamp{Chunk: chunkAt(i), Timestamp: ts})
		}
	}
	return entries
}
