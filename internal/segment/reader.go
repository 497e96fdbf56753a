package segment

import (
	"io"
	"os"

	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/pkg/errors"
)

// Reader is a one-record-lookahead cursor over a segment's body, used
// exclusively by the k-way merge in Merge. Segments themselves
// never use a Reader for point lookups or pattern scans — those read
// whichever span they need directly.
type Reader struct {
	path    string
	data    []byte
	pos     int64
	current *record.Record
	done    bool
}

// NewReader opens seg's body file and positions the cursor on its first
// record, if any.
func NewReader(seg *Segment) (*Reader, error) {
	file, err := os.Open(seg.path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, seg.path, "")
	}
	defer file.Close()

	if _, err := file.Seek(countHeaderWidth, io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek segment body").WithPath(seg.path)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read segment body").WithPath(seg.path)
	}

	r := &Reader{path: seg.path, data: data}
	r.advance()
	return r, nil
}

// Peek returns the record the cursor currently sits on, or ok=false when
// the reader is exhausted.
func (r *Reader) Peek() (record.Record, bool) {
	if r.done {
		return record.Record{}, false
	}
	return *r.current, true
}

// Next consumes the current record and advances the cursor.
func (r *Reader) Next() {
	r.advance()
}

func (r *Reader) advance() {
	if len(r.data) == 0 {
		r.done = true
		r.current = nil
		return
	}

	rec, n, err := record.Decode(r.data, r.path, countHeaderWidth+r.pos)
	if err != nil {
		// A corrupt trailing record during a merge should not abort the
		// whole compaction; treat it as end-of-segment, the same
		// policy record.Decode's callers apply to WAL replay.
		r.done = true
		r.current = nil
		return
	}

	r.current = &rec
	r.data = r.data[n:]
	r.pos += int64(n)
}
