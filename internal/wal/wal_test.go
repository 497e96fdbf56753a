package wal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/record"
)

func testLog() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	log := testLog()

	w, err := Create(dir, log)
	require.NoError(t, err)

	require.NoError(t, w.Append(record.NewPut([]byte("a"), []byte("1"))))
	require.NoError(t, w.Append(record.NewPut([]byte("b"), []byte("2"))))
	require.NoError(t, w.Append(record.NewTombstone([]byte("a"))))

	mt, err := w.Replay(log)
	require.NoError(t, err)

	assert.Equal(t, 2, mt.Len())
	entryA, ok := mt.Get("a")
	require.True(t, ok)
	assert.True(t, entryA.Tombstone)

	entryB, ok := mt.Get("b")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), entryB.Value)
}

func TestReplayStopsCleanlyAtTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	log := testLog()

	w, err := Create(dir, log)
	require.NoError(t, err)
	require.NoError(t, w.Append(record.NewPut([]byte("a"), []byte("1"))))
	require.NoError(t, w.Append(record.NewPut([]byte("b"), []byte("2"))))
	path := w.Path()
	require.NoError(t, w.Close())

	// Simulate a crash mid-write by truncating the last few bytes of the
	// second record's frame.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0644))

	reopened, err := Open(path, log)
	require.NoError(t, err)

	mt, err := reopened.Replay(log)
	require.NoError(t, err)
	assert.Equal(t, 1, mt.Len())
	_, ok := mt.Get("a")
	assert.True(t, ok)
}

func TestReplaySkipsCorruptInteriorRecordAndContinues(t *testing.T) {
	dir := t.TempDir()
	log := testLog()

	w, err := Create(dir, log)
	require.NoError(t, err)
	require.NoError(t, w.Append(record.NewPut([]byte("a"), []byte("1"))))
	require.NoError(t, w.Append(record.NewPut([]byte("b"), []byte("2"))))
	require.NoError(t, w.Append(record.NewPut([]byte("c"), []byte("3"))))
	path := w.Path()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip the last byte of the second record's frame (covered by its CRC,
	// not its length prefix) so the frame's declared length is still
	// trustworthy but its contents fail the checksum.
	firstSize := record.NewPut([]byte("a"), []byte("1")).EncodedSize()
	secondSize := record.NewPut([]byte("b"), []byte("2")).EncodedSize()
	data[firstSize+secondSize-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0644))

	reopened, err := Open(path, log)
	require.NoError(t, err)

	mt, err := reopened.Replay(log)
	require.NoError(t, err)

	// Replay must terminate and must have skipped exactly the corrupted
	// record rather than looping on it or aborting entirely.
	_, ok := mt.Get("a")
	assert.True(t, ok)
	_, ok = mt.Get("c")
	assert.True(t, ok)
}

func TestRemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	log := testLog()

	w, err := Create(dir, log)
	require.NoError(t, err)
	path := w.Path()

	require.NoError(t, w.Remove())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppendAfterCloseFails(t *testing.T) {
	dir := t.TempDir()
	log := testLog()

	w, err := Create(dir, log)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.Append(record.NewPut([]byte("a"), []byte("1")))
	assert.Error(t, err)
}
