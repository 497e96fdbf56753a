// Package engine provides the core database engine implementation for the
// ignitekv storage system.
//
// The engine serves as the central coordinator and entry point for all
// database operations. It orchestrates the interaction between four main
// subsystems:
//   - MemTable: an in-memory, size-tracked table of pending writes
//   - WAL: the redo log each MemTable is paired with for crash recovery
//   - Levels: the on-disk cascade of sorted, immutable segments
//   - Compaction: a background runner that keeps the cascade's levels
//     within their overflow thresholds
//
// The engine implements a thread-safe interface with proper lifecycle
// management, ensuring resources are properly initialized and cleaned up.
// It uses atomic operations for state management to provide consistent
// behavior across concurrent operations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/compaction"
	"github.com/nilotpaldev/ignitekv/internal/level"
	"github.com/nilotpaldev/ignitekv/internal/memtable"
	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/internal/segment"
	"github.com/nilotpaldev/ignitekv/internal/wal"
	pkgerrors "github.com/nilotpaldev/ignitekv/pkg/errors"
	"github.com/nilotpaldev/ignitekv/pkg/filesys"
	"github.com/nilotpaldev/ignitekv/pkg/options"
	"github.com/nilotpaldev/ignitekv/pkg/seginfo"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed engine")
)

// Engine represents the main database engine that coordinates all
// subsystems. It acts as the primary interface for database operations and
// manages the lifecycle of all internal components. The engine is designed
// to be thread-safe and supports concurrent operations while maintaining
// data consistency.
type Engine struct {
	dataDir  string
	options  *options.Options
	log      *zap.SugaredLogger
	closed   atomic.Bool
	rotating atomic.Bool

	// mu guards the active mem/wal pair. Readers take RLock to snapshot
	// both pointers; rotate takes Lock to swap them atomically.
	mu  sync.RWMutex
	mem *memtable.MemTable
	wal *wal.WAL

	levels    *level.Levels
	compactor *compaction.Runner
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided
// configuration. It recovers from whatever state the data directory was
// left in: replaying any redo log found there into a fresh MemTable,
// consolidating multiple redo logs left behind by a crash mid-rotation
// into a single one, and opening the on-disk level cascade.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	dataDir := config.Options.DataDir
	log := config.Logger

	log.Infow("Initializing storage engine", "dataDir", dataDir, "maxLogSize", config.Options.MaxLogSize)

	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		return nil, pkgerrors.ClassifyDirectoryCreationError(err, dataDir)
	}

	mem, activeWAL, err := recoverWAL(dataDir, log)
	if err != nil {
		return nil, err
	}

	levels, err := level.Open(dataDir, log)
	if err != nil {
		return nil, err
	}

	eng := &Engine{
		dataDir: dataDir,
		options: config.Options,
		log:     log,
		mem:     mem,
		wal:     activeWAL,
		levels:  levels,
	}
	eng.compactor = compaction.New(levels, log)

	log.Infow("Storage engine initialized", "dataDir", dataDir, "pendingKeys", mem.Len())
	return eng, nil
}

// recoverWAL discovers every redo log left in dataDir, replays each into a
// MemTable (later files' writes naturally override earlier ones via their
// embedded timestamps), and consolidates the result behind a single fresh
// redo log so that at most one redo log exists once recovery completes —
// even if a prior process crashed mid-rotation and left more than one
// behind.
func recoverWAL(dataDir string, log *zap.SugaredLogger) (*memtable.MemTable, *wal.WAL, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "*"+wal.Extension))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		mem := memtable.New(log)
		activeWAL, err := wal.Create(dataDir, log)
		if err != nil {
			return nil, nil, err
		}
		return mem, activeWAL, nil
	}

	mem := memtable.New(log)
	for _, path := range matches {
		stale, err := wal.Open(path, log)
		if err != nil {
			return nil, nil, err
		}
		recovered, err := stale.Replay(log)
		if err != nil {
			return nil, nil, err
		}
		for _, rec := range recovered.Snapshot() {
			if prev, ok := mem.Get(string(rec.Key)); ok && prev.Timestamp > rec.Timestamp {
				continue
			}
			mem.Put(string(rec.Key), rec.Value, !rec.HasValue, rec.Timestamp)
		}
		if err := stale.Remove(); err != nil {
			log.Warnw("Failed to remove stale redo log after recovery", "path", path, "error", err)
		}
	}

	if len(matches) > 1 {
		log.Warnw("Consolidated multiple redo logs found on open", "count", len(matches))
	}

	activeWAL, err := wal.Create(dataDir, log)
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range mem.Snapshot() {
		if err := activeWAL.Append(rec); err != nil {
			return nil, nil, err
		}
	}

	return mem, activeWAL, nil
}

// Set durably records a key/value write. The write lands in the redo log
// before becoming visible in the MemTable, and may trigger a rotation into
// a level-1 segment if the MemTable has grown past its configured
// threshold.
func (e *Engine) Set(ctx context.Context, key string, value []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	if err := e.append(record.NewPut([]byte(key), value)); err != nil {
		return err
	}
	e.maybeRotate()
	return nil
}

// Remove marks key as deleted with a tombstone. The tombstone is subject to
// the same durability and rotation path as Set, and is only physically
// reclaimed once it is merged into what compaction judges to be the
// cascade's bottom level.
func (e *Engine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	if err := e.append(record.NewTombstone([]byte(key))); err != nil {
		return err
	}
	e.maybeRotate()
	return nil
}

func (e *Engine) append(rec record.Record) error {
	e.mu.RLock()
	activeWAL, mem := e.wal, e.mem
	e.mu.RUnlock()

	if err := activeWAL.Append(rec); err != nil {
		return err
	}
	mem.Put(string(rec.Key), rec.Value, !rec.HasValue, rec.Timestamp)
	return nil
}

// Get returns the current value for key, checking the MemTable before the
// level cascade since the MemTable always holds the newest state.
func (e *Engine) Get(ctx context.Context, key string) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	e.mu.RLock()
	mem := e.mem
	e.mu.RUnlock()

	if entry, ok := mem.Get(key); ok {
		if entry.Tombstone {
			return nil, pkgerrors.NewKeyNotFoundErr(key)
		}
		return entry.Value, nil
	}

	value, tombstone, found, err := e.levels.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if !found || tombstone {
		return nil, pkgerrors.NewKeyNotFoundErr(key)
	}
	return value, nil
}

// Find returns every live key matching the compiled glob pattern, together
// with its current value. MemTable matches override level matches for the
// same key, since the MemTable holds the newest state.
func (e *Engine) Find(ctx context.Context, p *pattern.Pattern) (map[string][]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	levelHits, err := e.levels.Find(p)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(levelHits))
	for k, h := range levelHits {
		if !h.Tombstone {
			out[k] = h.Value
		}
	}

	e.mu.RLock()
	mem := e.mem
	e.mu.RUnlock()

	for key := range mem.Find(p) {
		entry, ok := mem.Get(key)
		if !ok {
			continue
		}
		if entry.Tombstone {
			delete(out, key)
			continue
		}
		out[key] = entry.Value
	}

	return out, nil
}

// maybeRotate checks whether the active MemTable has crossed its size
// threshold and, if so, drains it into a new level-1 segment. Only one
// rotation runs at a time; concurrent callers that lose the race simply
// continue, since the winning rotation already addresses the overflow.
func (e *Engine) maybeRotate() {
	e.mu.RLock()
	size := e.mem.Size()
	e.mu.RUnlock()

	if size <= int64(e.options.MaxLogSize) {
		return
	}
	if !e.rotating.CompareAndSwap(false, true) {
		return
	}
	defer e.rotating.Store(false)

	if err := e.rotate(); err != nil {
		e.log.Errorw("MemTable rotation failed", "error", err)
	}
}

// rotate swaps in a fresh MemTable/WAL pair, drains the superseded
// MemTable into a new level-1 segment, and removes the superseded WAL now
// that its writes are durable in the segment. It finishes by triggering a
// background compaction pass, since level 1 may now have overflowed.
func (e *Engine) rotate() error {
	e.mu.Lock()
	oldMem, oldWAL := e.mem, e.wal

	newWAL, err := wal.Create(e.dataDir, e.log)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.wal = newWAL
	e.mem = memtable.New(e.log)
	e.mu.Unlock()

	segPath := filepath.Join(e.dataDir, seginfo.FormatSegmentName(record.Now()))
	segments := oldMem.Snapshot()

	seg, err := segment.Build(segPath, segments, e.log)
	if err != nil {
		return err
	}

	e.levels.AddToLevel1(seg)

	if err := oldWAL.Remove(); err != nil {
		e.log.Warnw("Failed to remove superseded redo log", "path", oldWAL.Path(), "error", err)
	}
	if err := oldMem.Close(); err != nil {
		e.log.Warnw("Failed to release superseded MemTable", "error", err)
	}

	e.log.Infow("Rotated MemTable into level-1 segment", "path", segPath, "records", len(segments))
	e.compactor.Trigger()
	return nil
}

// Close gracefully shuts down the engine and releases all associated
// resources: it runs one synchronous compaction pass, then closes the
// active redo log and MemTable. If a background compaction pass is already
// in flight, that synchronous pass returns at once and Close does not wait
// for the background pass to finish.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if cerr := e.compactor.Wait(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	if werr := e.wal.Close(); werr != nil {
		err = multierr.Append(err, werr)
	}
	if merr := e.mem.Close(); merr != nil {
		err = multierr.Append(err, merr)
	}
	return err
}
