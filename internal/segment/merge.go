package segment

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/record"
)

// Merge performs a k-way merge of readers (each already sorted ascending,
// as every Segment guarantees) and writes the result to a new segment at
// dstPath. When multiple readers carry the same key, the record with the
// greatest Timestamp wins. If dropTombstones is true, a winning tombstone
// is omitted from the output entirely instead of being carried forward —
// used only for the bottom level of a cascade, where no older segment
// could still need the tombstone to shadow a stale value.
func Merge(readers []*Reader, dstPath string, dropTombstones bool, log *zap.SugaredLogger) (*Segment, error) {
	merged := make([]record.Record, 0)

	for {
		var minKey []byte
		found := false
		for _, r := range readers {
			rec, ok := r.Peek()
			if !ok {
				continue
			}
			if !found || bytes.Compare(rec.Key, minKey) < 0 {
				minKey = rec.Key
				found = true
			}
		}
		if !found {
			break
		}

		var winner record.Record
		haveWinner := false
		for _, r := range readers {
			rec, ok := r.Peek()
			if !ok || !bytes.Equal(rec.Key, minKey) {
				continue
			}
			if !haveWinner || rec.Timestamp > winner.Timestamp {
				winner = rec
				haveWinner = true
			}
			r.Next()
		}

		if dropTombstones && !winner.HasValue {
			continue
		}
		merged = append(merged, winner)
	}

	return Build(dstPath, merged, log)
}
