// Package level implements a single level of the leveled compaction
// cascade — an ordered run of segments that overflows into a merge once it
// holds more than max(10*level, 2) segments — and the Levels cascade that
// chains them together.
package level

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/internal/segment"
	"github.com/nilotpaldev/ignitekv/pkg/seginfo"
)

// Extension used for every level segment body file.
const Extension = seginfo.SegmentExtension

// Level holds the ordered run of segments for one tier of the cascade,
// oldest first. Readers walk it newest-first so the most recent write for
// a key always wins within the level.
type Level struct {
	number   int
	dir      string
	log      *zap.SugaredLogger
	mu       sync.RWMutex
	segments []*segment.Segment
}

// OpenLevel loads every *.log segment already present in dir for level
// number, sorted by the integer value of their filename stem (the
// nanosecond timestamp each segment is named with), oldest first.
func OpenLevel(number int, dir string, log *zap.SugaredLogger) (*Level, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	paths, err := seginfo.ListSegments(dir)
	if err != nil {
		return nil, err
	}

	lvl := &Level{number: number, dir: dir, log: log}
	for _, path := range paths {
		seg, err := segment.Open(path, log)
		if err != nil {
			return nil, err
		}
		lvl.segments = append(lvl.segments, seg)
	}

	return lvl, nil
}

// Number returns this level's position in the cascade (1-indexed).
func (l *Level) Number() int { return l.number }

// Add appends a newly built segment to the level.
func (l *Level) Add(seg *segment.Segment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.segments = append(l.segments, seg)
}

// Get searches the level newest-segment-first, returning the first hit.
// The read lock is held for the whole scan, not just the slice copy, so a
// concurrent Merge cannot delete a segment's backing file out from under a
// read that is already in flight against it.
func (l *Level) Get(key []byte) (value []byte, tombstone bool, found bool, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.segments) - 1; i >= 0; i-- {
		value, tombstone, found, err = l.segments[i].Get(key)
		if err != nil {
			return nil, false, false, err
		}
		if found {
			return value, tombstone, true, nil
		}
	}
	return nil, false, false, nil
}

// Find returns every key in the level matching p, with later (newer)
// segments overriding earlier ones so each key reflects its latest state
// within this level. Held under the same read lock as Get, for the same
// reason: a segment must not be removed while Find is still reading it.
func (l *Level) Find(p *pattern.Pattern) (map[string]segment.Hit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]segment.Hit)
	for _, seg := range l.segments {
		hits, err := seg.Find(p)
		if err != nil {
			return nil, err
		}
		for k, v := range hits {
			out[k] = v
		}
	}
	return out, nil
}

// overflowThreshold is the number of segments a level may hold before the
// next write triggers a merge: max(10*level, 2), matching the reference
// cascade's clamp(10*level, 2).
func overflowThreshold(level int) int {
	t := 10 * level
	if t < 2 {
		return 2
	}
	return t
}

// Overflowed reports whether the level currently holds more segments than
// its threshold allows.
func (l *Level) Overflowed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.segments) > overflowThreshold(l.number)
}

// Merge folds every current segment in the level into one new segment
// named after the current monotonic timestamp and empties the level —
// the cascade pushes the merged segment down into the next level rather
// than leaving it here, which is what keeps each level's segment count
// bounded. dstDir is the directory the merged segment is written into
// (the NEXT level's directory); dropTombstones should be true only when
// merging into the bottommost level of the cascade, where no deeper level
// could still need a tombstone.
func (l *Level) Merge(dstDir string, dropTombstones bool) (*segment.Segment, error) {
	l.mu.RLock()
	if len(l.segments) == 0 {
		l.mu.RUnlock()
		return nil, nil
	}
	stale := append([]*segment.Segment(nil), l.segments...)
	l.mu.RUnlock()

	// Segments are immutable once built, so building the merged output
	// needs no lock at all — readers (Get/Find) stay unblocked for the
	// whole merge. The write lock is only needed for the instant the
	// level's segment list is swapped below.
	readers := make([]*segment.Reader, 0, len(stale))
	for _, seg := range stale {
		r, err := segment.NewReader(seg)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
	}

	dstPath := filepath.Join(dstDir, seginfo.FormatSegmentName(record.Now()))
	merged, err := segment.Merge(readers, dstPath, dropTombstones, l.log)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, seg := range stale {
		seg.MarkTombstoned()
	}
	// stale is a prefix of l.segments: Add only appends, and a level runs
	// at most one merge at a time, so anything beyond that prefix was
	// appended after this merge's snapshot and must be kept.
	l.segments = append([]*segment.Segment(nil), l.segments[len(stale):]...)
	l.mu.Unlock()

	for _, seg := range stale {
		if err := seg.Remove(); err != nil {
			l.log.Warnw("Failed to remove superseded segment", "path", seg.Path(), "error", err)
		}
	}

	l.log.Infow("Merged level", "level", l.number, "segmentsMerged", len(stale), "outputRecords", merged.Count())
	return merged, nil
}
