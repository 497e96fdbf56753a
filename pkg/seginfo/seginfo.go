// Package seginfo provides naming and discovery helpers for the store's
// on-disk layout: level-1 segments live as "<nanoseconds>.log" directly
// under the data directory, deeper levels live under "lv{N}/", and WAL
// files are UUID-named "<uuid>.redo". This package owns the segment
// filename parsing/formatting and level-directory helpers that
// internal/level and internal/engine need, so that scheme lives in one
// place instead of being duplicated at each call site. Redo log naming
// lives in internal/wal.
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nilotpaldev/ignitekv/pkg/errors"
)

// SegmentExtension is the file extension for every level segment body file.
const SegmentExtension = ".log"

// FormatSegmentName renders the filename a segment with the given
// monotonic nanosecond timestamp is stored under.
func FormatSegmentName(nanos int64) string {
	return fmt.Sprintf("%d%s", nanos, SegmentExtension)
}

// ParseSegmentStem extracts the nanosecond timestamp from a segment's
// filename (ignoring its directory and extension).
func ParseSegmentStem(path string) (int64, error) {
	stem := strings.TrimSuffix(filepath.Base(path), SegmentExtension)
	n, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, errors.NewBaseError(err, errors.ErrorCodeParse, "not a valid segment filename").
			WithDetail("path", path)
	}
	return n, nil
}

// LevelDir returns the directory a given level's segments live under.
// Level 1 lives directly under root; deeper levels live under "lv{N}/".
func LevelDir(root string, level int) string {
	if level == 1 {
		return root
	}
	return filepath.Join(root, fmt.Sprintf("lv%d", level))
}

// ListSegments returns every *.log file in dir, sorted ascending by the
// integer value of their filename stem (oldest first). Entries whose name
// doesn't parse as a segment stem are skipped.
func ListSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type named struct {
		stem int64
		path string
	}
	var found []named
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != SegmentExtension {
			continue
		}
		path := filepath.Join(dir, e.Name())
		stem, err := ParseSegmentStem(path)
		if err != nil {
			continue
		}
		found = append(found, named{stem: stem, path: path})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].stem < found[j].stem })

	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.path
	}
	return out, nil
}

// DirExists reports whether dir exists and is a directory.
func DirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
