package memtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/pattern"
)

func newTestMemTable() *MemTable {
	return New(zap.NewNop().Sugar())
}

func TestPutGetRoundTrip(t *testing.T) {
	mt := newTestMemTable()
	mt.Put("a", []byte("1"), false, 100)

	entry, ok := mt.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), entry.Value)
	assert.False(t, entry.Tombstone)
	assert.Equal(t, int64(100), entry.Timestamp)
}

func TestPutOverwritesPriorEntry(t *testing.T) {
	mt := newTestMemTable()
	mt.Put("a", []byte("1"), false, 100)
	mt.Put("a", []byte("2"), false, 200)

	entry, ok := mt.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), entry.Value)
	assert.Equal(t, 1, mt.Len())
}

func TestTombstoneMasksValue(t *testing.T) {
	mt := newTestMemTable()
	mt.Put("a", []byte("1"), false, 100)
	mt.Put("a", nil, true, 200)

	entry, ok := mt.Get("a")
	require.True(t, ok)
	assert.True(t, entry.Tombstone)
}

func TestSnapshotIsSortedAscending(t *testing.T) {
	mt := newTestMemTable()
	mt.Put("banana", []byte("1"), false, 1)
	mt.Put("apple", []byte("2"), false, 2)
	mt.Put("cherry", []byte("3"), false, 3)

	snap := mt.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "apple", string(snap[0].Key))
	assert.Equal(t, "banana", string(snap[1].Key))
	assert.Equal(t, "cherry", string(snap[2].Key))
}

func TestFindMatchesPattern(t *testing.T) {
	mt := newTestMemTable()
	mt.Put("user:1", []byte("a"), false, 1)
	mt.Put("user:2", []byte("b"), false, 2)
	mt.Put("order:1", []byte("c"), false, 3)

	hits := mt.Find(pattern.Compile("user:_"))
	assert.Len(t, hits, 2)
	_, ok := hits["order:1"]
	assert.False(t, ok)
}

func TestCloseIsOneShot(t *testing.T) {
	mt := newTestMemTable()
	require.NoError(t, mt.Close())
	assert.Error(t, mt.Close())
}
