// Package memtable provides the in-memory, size-tracked table of pending
// writes that sits in front of the on-disk segment levels: an ordered
// table holding live values directly, since every write must be servable
// from memory until it is drained to a level-1 segment.
package memtable

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/pkg/errors"
)

// Entry is the pending value for a single key.
type Entry struct {
	Value     []byte
	Tombstone bool
	Timestamp int64
}

// MemTable holds every write since the last drain, keyed by string key,
// with a parallel sorted key slice so Snapshot can return entries in
// ascending order without sorting on every flush.
type MemTable struct {
	log     *zap.SugaredLogger
	mu      sync.RWMutex
	closed  atomic.Bool
	entries map[string]Entry
	keys    []string // kept sorted ascending
	size    int64    // approximate encoded byte size of all entries, tombstones included
}

// New creates an empty MemTable.
func New(log *zap.SugaredLogger) *MemTable {
	return &MemTable{log: log, entries: make(map[string]Entry, 1024)}
}

// Put applies a write or a tombstone for key. It overwrites any prior
// pending entry for the same key rather than appending, since only the
// latest value for a key needs to live in memory.
func (m *MemTable) Put(key string, value []byte, tombstone bool, ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.entries[key]
	if existed {
		m.size -= entrySize(key, prev)
	} else {
		idx := sort.SearchStrings(m.keys, key)
		m.keys = append(m.keys, "")
		copy(m.keys[idx+1:], m.keys[idx:])
		m.keys[idx] = key
	}

	entry := Entry{Value: value, Tombstone: tombstone, Timestamp: ts}
	m.entries[key] = entry
	m.size += entrySize(key, entry)
}

// Get returns the pending entry for key, if any.
func (m *MemTable) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

// Find returns every key currently in the table (tombstones included —
// callers must apply their own liveness filter) matching p.
func (m *MemTable) Find(p *pattern.Pattern) map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{})
	for _, key := range m.keys {
		if p.MatchString(key) {
			out[key] = struct{}{}
		}
	}
	return out
}

// Size returns the approximate encoded byte size of every entry, tombstones
// included.
func (m *MemTable) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Len returns the number of distinct keys currently held.
func (m *MemTable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

// Snapshot returns every entry in ascending key order, for draining into a
// segment. The returned records are tombstones or live values matching
// each entry's Tombstone flag.
func (m *MemTable) Snapshot() []record.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]record.Record, 0, len(m.keys))
	for _, key := range m.keys {
		e := m.entries[key]
		out = append(out, record.Record{
			Timestamp: e.Timestamp,
			Key:       []byte(key),
			Value:     e.Value,
			HasValue:  !e.Tombstone,
		})
	}
	return out
}

// Close releases the table's backing storage. A closed table cannot be
// reused; callers create a fresh MemTable after rotation.
func (m *MemTable) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return errors.NewIndexCorruptionError("Close", len(m.keys), nil).
			WithDetail("reason", "memtable already closed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	m.entries = nil
	m.keys = nil
	return nil
}

func entrySize(key string, e Entry) int64 {
	return int64(len(key) + len(e.Value) + 32)
}
