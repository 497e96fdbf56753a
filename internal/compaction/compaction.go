// Package compaction runs the background job that drives the level
// cascade's merge passes: a single-flight runner spawned on every MemTable
// rotation, logging the outcome of each pass alongside the rest of the
// engine's lifecycle events.
package compaction

import (
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/level"
)

// Runner triggers Levels.TryMerge in its own goroutine, relying on
// Levels' internal single-flight guard to collapse overlapping requests.
type Runner struct {
	levels *level.Levels
	log    *zap.SugaredLogger
}

// New creates a Runner bound to the given cascade.
func New(levels *level.Levels, log *zap.SugaredLogger) *Runner {
	return &Runner{levels: levels, log: log}
}

// Trigger spawns a background merge pass. It returns immediately and gives
// no way to observe when that pass completes.
func (r *Runner) Trigger() {
	go r.run()
}

// Wait runs a merge pass synchronously and returns its result, used by
// tests and by an explicit "compact now" operation. If another pass is
// already in flight, Wait returns nil at once without running a pass and
// without waiting for the in-flight one.
func (r *Runner) Wait() error {
	return r.levels.TryMerge()
}

func (r *Runner) run() {
	if err := r.levels.TryMerge(); err != nil {
		r.log.Errorw("Background compaction pass failed", "error", err)
		return
	}
	r.log.Debugw("Background compaction pass completed")
}
