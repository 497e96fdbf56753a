// Package segment implements the immutable, sorted, on-disk key/value
// segment files produced when a MemTable is drained and when levels merge
// their segments during compaction. Each segment pairs a body file of
// length-framed records (internal/record) in ascending key order with an
// in-memory sidecar: a bloom filter for fast negative lookups and a sparse
// block index for bounded-scan positive lookups.
package segment

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/bloom"
	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/pkg/errors"
	"github.com/nilotpaldev/ignitekv/pkg/filesys"
)

// DefaultBlockSize is the approximate number of body bytes between
// successive block hints.
const DefaultBlockSize = 4 * 1024

// DefaultFalsePositiveRate is the target bloom filter false-positive rate.
const DefaultFalsePositiveRate = 0.001

// BlockHint marks the start of a new ~block-sized run of records and the
// first key found there, letting Get narrow a lookup to a bounded scan.
type BlockHint struct {
	FirstKey []byte
	Start    int64 // byte offset of the block's first record, body-relative
}

// Segment is an immutable sorted run of records backed by a single file,
// plus the in-memory index built once at construction or open time.
type Segment struct {
	path  string
	log   *zap.SugaredLogger
	mu    sync.RWMutex
	bloom *bloom.Filter
	hints []BlockHint
	size  int64 // total body size in bytes, excluding the count header
	count int
	tomb  atomic.Bool
}

// Path returns the segment's backing file path.
func (s *Segment) Path() string { return s.path }

// Size returns the segment's on-disk body size in bytes.
func (s *Segment) Size() int64 { return s.size }

// Count returns the number of records stored in the segment.
func (s *Segment) Count() int { return s.count }

const countHeaderWidth = 8

// tmpSuffix marks a segment body file as not yet durably in place. Build
// writes under this name and only renames to the final path once the file
// is fully written and fsynced, so a crash mid-build never leaves a
// half-written file where OpenLevel would try to load it as live data.
const tmpSuffix = ".tmp"

// Build writes records (already sorted ascending by key, as produced by
// MemTable.Snapshot or a level merge) to a new segment file at path and
// returns the resulting Segment with its sidecar fully populated. The file
// is built at a temporary path and renamed into place only once it has
// been fully written and fsynced; any failure before that point removes
// the temporary file and leaves path untouched.
func Build(path string, records []record.Record, log *zap.SugaredLogger) (seg *Segment, err error) {
	tmpPath := path + tmpSuffix
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, tmpPath, "")
	}
	defer func() {
		if err != nil {
			file.Close()
			if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warnw("Failed to remove partial segment build", "path", tmpPath, "error", rmErr)
			}
		}
	}()

	if _, err = file.Write(make([]byte, countHeaderWidth)); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write segment header").WithPath(tmpPath)
	}

	bf := bloom.New(max(len(records), 1), DefaultFalsePositiveRate)
	hints := make([]BlockHint, 0)

	var body []byte
	var pos int64
	lastHintAt := int64(-1)

	for _, rec := range records {
		if pos-lastHintAt >= DefaultBlockSize || lastHintAt < 0 {
			hints = append(hints, BlockHint{FirstKey: append([]byte(nil), rec.Key...), Start: pos})
			lastHintAt = pos
		}

		body, err = record.Encode(rec, body[:0])
		if err != nil {
			return nil, err
		}
		if _, err = file.Write(body); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write segment record").WithPath(tmpPath)
		}

		bf.Insert(rec.Key)
		pos += int64(len(body))
	}

	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to rewind segment for header write").WithPath(tmpPath)
	}
	var header [countHeaderWidth]byte
	binary.BigEndian.PutUint64(header[:], uint64(len(records)))
	if _, err = file.Write(header[:]); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write final segment header").WithPath(tmpPath)
	}

	if err = file.Sync(); err != nil {
		return nil, errors.ClassifySyncError(err, filepath.Base(tmpPath), tmpPath, 0)
	}
	if err = file.Close(); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close built segment").WithPath(tmpPath)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to rename segment into place").WithPath(path)
	}

	log.Infow("Built segment", "path", path, "records", len(records), "bytes", pos)

	return &Segment{path: path, log: log, bloom: bf, hints: hints, size: pos, count: len(records)}, nil
}

// Open rebuilds a segment's sidecar by scanning its body file once. Replay
// follows the same policy as WAL.Replay: a truncated trailing record stops
// the scan cleanly, while a corrupt interior record is skipped so damage
// isolated to one entry doesn't take the whole segment down with it.
func Open(path string, log *zap.SugaredLogger) (*Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, "")
	}
	if len(data) < countHeaderWidth {
		return nil, errors.NewCorruptError(nil, "segment file shorter than its header").WithPath(path)
	}

	count := int(binary.BigEndian.Uint64(data[:countHeaderWidth]))
	body := data[countHeaderWidth:]

	bf := bloom.New(max(count, 1), DefaultFalsePositiveRate)
	hints := make([]BlockHint, 0)

	var pos int64
	lastHintAt := int64(-1)
	remaining := body
	for len(remaining) > 0 {
		rec, n, derr := record.Decode(remaining, path, countHeaderWidth+pos)
		if derr != nil {
			if ce, ok := errors.AsCorruptError(derr); ok && ce.Reason() == "short_read" {
				log.Warnw("Stopping segment replay at truncated trailing record", "path", path, "offset", countHeaderWidth+pos)
				break
			}
			log.Warnw("Skipping corrupt segment record", "path", path, "offset", countHeaderWidth+pos, "error", derr)
			remaining = remaining[n:]
			pos += int64(n)
			continue
		}

		if pos-lastHintAt >= DefaultBlockSize || lastHintAt < 0 {
			hints = append(hints, BlockHint{FirstKey: append([]byte(nil), rec.Key...), Start: pos})
			lastHintAt = pos
		}

		bf.Insert(rec.Key)
		remaining = remaining[n:]
		pos += int64(n)
	}

	return &Segment{path: path, log: log, bloom: bf, hints: hints, size: pos, count: count}, nil
}

// Get looks up key, returning its value (or nil for a tombstone), whether
// it was a tombstone, and whether it was found at all.
func (s *Segment) Get(key []byte) (value []byte, tombstone bool, found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.bloom.Contains(key) {
		return nil, false, false, nil
	}

	blockIdx := s.findBlock(key)
	if blockIdx < 0 {
		return nil, false, false, nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, false, false, errors.ClassifyFileOpenError(err, s.path, "")
	}
	defer file.Close()

	start := countHeaderWidth + s.hints[blockIdx].Start
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return nil, false, false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek segment block").WithPath(s.path)
	}

	// A block runs until the next hint's start (or EOF for the last
	// block); read that whole span in one call.
	var end int64
	if blockIdx+1 < len(s.hints) {
		end = countHeaderWidth + s.hints[blockIdx+1].Start
	} else {
		end = countHeaderWidth + s.size
	}

	buf := make([]byte, end-start)
	if _, err := io.ReadFull(file, buf); err != nil {
		return nil, false, false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment block").WithPath(s.path)
	}

	for len(buf) > 0 {
		rec, n, derr := record.Decode(buf, s.path, start)
		if derr != nil {
			return nil, false, false, derr
		}
		cmp := bytes.Compare(rec.Key, key)
		if cmp == 0 {
			return rec.Value, !rec.HasValue, true, nil
		}
		if cmp > 0 {
			// Records are sorted ascending; once we've passed the
			// target key without a match, it is not in this segment.
			return nil, false, false, nil
		}
		buf = buf[n:]
		start += int64(n)
	}

	return nil, false, false, nil
}

// findBlock returns the index of the right-most hint whose FirstKey is
// <= key, or -1 if key sorts before every hint (i.e. cannot be present).
// sort.Search gives a provably terminating O(log n) search: it always
// halves a [lo, hi) range and never re-examines a prior midpoint.
func (s *Segment) findBlock(key []byte) int {
	n := len(s.hints)
	idx := sort.Search(n, func(i int) bool {
		return bytes.Compare(s.hints[i].FirstKey, key) > 0
	})
	return idx - 1
}

// Find performs a full scan for every key matching p, tombstoned keys
// included (each Hit carries its Tombstone flag). Point lookups
// use the bloom filter and block index; a pattern scan has no equivalent
// shortcut and must read every record.
func (s *Segment) Find(p *pattern.Pattern) (map[string]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, s.path, "")
	}
	defer file.Close()

	if _, err := file.Seek(countHeaderWidth, io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek segment body").WithPath(s.path)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment body").WithPath(s.path)
	}

	out := make(map[string]Hit)
	var pos int64
	for len(data) > 0 {
		rec, n, derr := record.Decode(data, s.path, countHeaderWidth+pos)
		if derr != nil {
			return nil, derr
		}
		if p.Match(rec.Key) {
			out[string(rec.Key)] = Hit{Value: rec.Value, Tombstone: !rec.HasValue, Timestamp: rec.Timestamp}
		}
		data = data[n:]
		pos += int64(n)
	}

	return out, nil
}

// Hit is one pattern-match result: a key's current value/tombstone state
// as seen within a single segment.
type Hit struct {
	Value     []byte
	Tombstone bool
	Timestamp int64
}

// MarkTombstoned flags the segment as logically removed (its contents were
// folded into a merge output) without touching the file yet, so concurrent
// readers that already hold a reference can finish safely.
func (s *Segment) MarkTombstoned() {
	s.tomb.Store(true)
}

// Tombstoned reports whether the segment has been superseded by a merge.
func (s *Segment) Tombstoned() bool {
	return s.tomb.Load()
}

// Remove deletes the segment's backing file. Callers must ensure no reader
// holds a reference before calling this.
func (s *Segment) Remove() error {
	return filesys.DeleteFile(s.path)
}
