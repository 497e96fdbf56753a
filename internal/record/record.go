// Package record implements the canonical on-disk record format shared by
// the write-ahead log and every segment file: a CRC-32C checksummed,
// length-prefixed frame carrying a timestamp, a key, and an optional value
// (absence of a value marks the record as a tombstone).
package record

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/nilotpaldev/ignitekv/pkg/errors"
)

// castagnoli is the CRC-32C polynomial table, matching the
// Crc::<u32>::new(&CRC_32_ISCSI) digest the store's on-disk format is
// ported from (ISCSI is a historical alias for the Castagnoli polynomial).
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Record is the canonical key/value(/tombstone) unit persisted to the WAL
// and to segment files.
type Record struct {
	Timestamp int64
	Key       []byte
	Value     []byte
	// HasValue distinguishes a live, possibly zero-length value from a
	// tombstone (a Remove of Key).
	HasValue bool
}

// NewPut builds a live record stamped with the current process clock.
func NewPut(key, value []byte) Record {
	return Record{Timestamp: Now(), Key: key, Value: value, HasValue: true}
}

// NewTombstone builds a delete marker for key.
func NewTombstone(key []byte) Record {
	return Record{Timestamp: Now(), Key: key, HasValue: false}
}

// header widths, all fixed so a frame can be decoded without a parser.
const (
	lengthPrefixWidth = 8 // u64 big-endian frame length
	crcWidth          = 4
	timestampWidth    = 16 // 128-bit on-disk representation; high 8 bytes always zero
	lenFieldWidth     = 8
	hasValueWidth     = 1
)

// bodySize returns the encoded body length (excluding the length prefix)
// for a record with the given key/value sizes.
func bodySize(keyLen, valueLen int, hasValue bool) int {
	size := crcWidth + timestampWidth + lenFieldWidth + keyLen + hasValueWidth
	if hasValue {
		size += lenFieldWidth + valueLen
	}
	return size
}

// EncodedSize returns the total number of bytes Encode will produce for r,
// including the length prefix. Callers use this to track MemTable/WAL/
// segment byte budgets without re-serializing.
func (r Record) EncodedSize() int {
	return lengthPrefixWidth + bodySize(len(r.Key), len(r.Value), r.HasValue)
}

// Encode appends r's on-disk frame to dst and returns the extended slice.
func Encode(r Record, dst []byte) ([]byte, error) {
	body := make([]byte, bodySize(len(r.Key), len(r.Value), r.HasValue))
	off := crcWidth

	putTimestamp(body[off:off+timestampWidth], r.Timestamp)
	off += timestampWidth

	binary.BigEndian.PutUint64(body[off:off+lenFieldWidth], uint64(len(r.Key)))
	off += lenFieldWidth
	copy(body[off:], r.Key)
	off += len(r.Key)

	if r.HasValue {
		body[off] = 1
	} else {
		body[off] = 0
	}
	off += hasValueWidth

	if r.HasValue {
		binary.BigEndian.PutUint64(body[off:off+lenFieldWidth], uint64(len(r.Value)))
		off += lenFieldWidth
		copy(body[off:], r.Value)
	}

	crc := crc32.Checksum(body[crcWidth:], castagnoli)
	binary.BigEndian.PutUint32(body[0:crcWidth], crc)

	dst = binary.BigEndian.AppendUint64(dst, uint64(len(body)))
	dst = append(dst, body...)
	return dst, nil
}

// Decode reads one framed record starting at buf[0]. It returns the
// record, the number of bytes consumed (length prefix + body), and an
// error. A *errors.CorruptError is returned when buf is too short for the
// declared length or the checksum does not match; callers (WAL replay,
// segment scans) decide whether to skip the remainder or abort. When the
// length prefix itself decoded successfully (every corrupt reason except
// "short_read"), the returned byte count still reflects the full declared
// frame length, so a caller can skip exactly this record and keep scanning
// without getting stuck reprocessing the same bytes.
func Decode(buf []byte, path string, offset int64) (Record, int, error) {
	if len(buf) < lengthPrefixWidth {
		return Record{}, 0, errors.NewCorruptError(nil, "short read: length prefix truncated").
			WithPath(path).WithOffset(offset).WithReason("short_read")
	}

	bodyLen := binary.BigEndian.Uint64(buf[:lengthPrefixWidth])
	total := lengthPrefixWidth + int(bodyLen)
	if bodyLen == 0 || total < 0 || len(buf) < total {
		return Record{}, 0, errors.NewCorruptError(nil, "short read: body truncated").
			WithPath(path).WithOffset(offset).WithReason("short_read").
			WithDetail("declaredLength", bodyLen).WithDetail("available", len(buf)-lengthPrefixWidth)
	}

	body := buf[lengthPrefixWidth:total]
	if len(body) < crcWidth+timestampWidth+lenFieldWidth+hasValueWidth {
		return Record{}, total, errors.NewCorruptError(nil, "body shorter than minimum record frame").
			WithPath(path).WithOffset(offset).WithReason("short_body")
	}

	wantCRC := binary.BigEndian.Uint32(body[0:crcWidth])
	gotCRC := crc32.Checksum(body[crcWidth:], castagnoli)
	if wantCRC != gotCRC {
		return Record{}, total, errors.NewCorruptError(nil, "crc mismatch").
			WithPath(path).WithOffset(offset).WithReason("crc_mismatch").
			WithDetail("want", wantCRC).WithDetail("got", gotCRC)
	}

	off := crcWidth
	ts := readTimestamp(body[off : off+timestampWidth])
	off += timestampWidth

	keyLen := binary.BigEndian.Uint64(body[off : off+lenFieldWidth])
	off += lenFieldWidth
	if uint64(len(body)-off) < keyLen+hasValueWidth {
		return Record{}, total, errors.NewCorruptError(nil, "key length exceeds frame").
			WithPath(path).WithOffset(offset).WithReason("bad_key_length")
	}
	key := append([]byte(nil), body[off:off+int(keyLen)]...)
	off += int(keyLen)

	hasValue := body[off] == 1
	off += hasValueWidth

	var value []byte
	if hasValue {
		if uint64(len(body)-off) < lenFieldWidth {
			return Record{}, total, errors.NewCorruptError(nil, "value length field truncated").
				WithPath(path).WithOffset(offset).WithReason("short_value_header")
		}
		valueLen := binary.BigEndian.Uint64(body[off : off+lenFieldWidth])
		off += lenFieldWidth
		if uint64(len(body)-off) < valueLen {
			return Record{}, total, errors.NewCorruptError(nil, "value length exceeds frame").
				WithPath(path).WithOffset(offset).WithReason("bad_value_length")
		}
		value = append([]byte(nil), body[off:off+int(valueLen)]...)
		off += int(valueLen)
	}

	return Record{Timestamp: ts, Key: key, Value: value, HasValue: hasValue}, total, nil
}

func putTimestamp(dst []byte, ts int64) {
	binary.BigEndian.PutUint64(dst[0:8], 0)
	binary.BigEndian.PutUint64(dst[8:16], uint64(ts))
}

func readTimestamp(src []byte) int64 {
	return int64(binary.BigEndian.Uint64(src[8:16]))
}
