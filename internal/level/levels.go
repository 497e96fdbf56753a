package level

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/internal/segment"
	"github.com/nilotpaldev/ignitekv/pkg/seginfo"
)

// Levels is the ordered cascade of on-disk levels beneath the MemTable.
// Level 1 receives segments drained directly from the MemTable; each
// deeper level is created lazily the first time a merge needs it.
type Levels struct {
	root    string
	log     *zap.SugaredLogger
	mu      sync.RWMutex
	tiers   []*Level
	merging atomic.Bool
}

// Open discovers every lv{N} directory already present under root and
// loads its segments. Level 1 lives directly under root.
func Open(root string, log *zap.SugaredLogger) (*Levels, error) {
	first, err := OpenLevel(1, root, log)
	if err != nil {
		return nil, err
	}

	ls := &Levels{root: root, log: log, tiers: []*Level{first}}

	for n := 2; ; n++ {
		dir := ls.dirFor(n)
		if !seginfo.DirExists(dir) {
			break
		}
		lvl, err := OpenLevel(n, dir, log)
		if err != nil {
			return nil, err
		}
		ls.tiers = append(ls.tiers, lvl)
	}

	return ls, nil
}

func (ls *Levels) dirFor(n int) string {
	return seginfo.LevelDir(ls.root, n)
}

// AddToLevel1 appends a freshly drained segment to level 1.
func (ls *Levels) AddToLevel1(seg *segment.Segment) {
	ls.mu.RLock()
	first := ls.tiers[0]
	ls.mu.RUnlock()
	first.Add(seg)
}

// Get searches every level from shallowest (newest) to deepest (oldest),
// returning the first hit.
func (ls *Levels) Get(key []byte) (value []byte, tombstone bool, found bool, err error) {
	ls.mu.RLock()
	tiers := append([]*Level(nil), ls.tiers...)
	ls.mu.RUnlock()

	for _, lvl := range tiers {
		value, tombstone, found, err = lvl.Get(key)
		if err != nil {
			return nil, false, false, err
		}
		if found {
			return value, tombstone, true, nil
		}
	}
	return nil, false, false, nil
}

// Find returns every key across every level matching p. Shallower levels
// are newer, so their hits take precedence over a deeper level's hit for
// the same key.
func (ls *Levels) Find(p *pattern.Pattern) (map[string]segment.Hit, error) {
	ls.mu.RLock()
	tiers := append([]*Level(nil), ls.tiers...)
	ls.mu.RUnlock()

	out := make(map[string]segment.Hit)
	// Deepest first so a shallower level's entry for the same key
	// overwrites it, matching the shallow-wins precedence of Get.
	for i := len(tiers) - 1; i >= 0; i-- {
		hits, err := tiers[i].Find(p)
		if err != nil {
			return nil, err
		}
		for k, v := range hits {
			out[k] = v
		}
	}
	return out, nil
}

// TryMerge walks the cascade from level 1 downward, merging any level that
// has overflowed and stopping at the first level that has not. Only one
// TryMerge runs at a time; a call that arrives while another is in flight
// is a no-op. The in-flight pass only checks levels it has not yet passed,
// so an overflow at a level it already left waits for the next TryMerge.
func (ls *Levels) TryMerge() error {
	if !ls.merging.CompareAndSwap(false, true) {
		return nil
	}
	defer ls.merging.Store(false)

	for i := 0; i < ls.depth(); i++ {
		ls.mu.RLock()
		lvl := ls.tiers[i]
		ls.mu.RUnlock()

		if !lvl.Overflowed() {
			break
		}

		ls.mu.Lock()
		if i+1 == len(ls.tiers) {
			nextLvl, err := OpenLevel(i+2, ls.dirFor(i+2), ls.log)
			if err != nil {
				ls.mu.Unlock()
				return err
			}
			ls.tiers = append(ls.tiers, nextLvl)
		}
		dest := ls.tiers[i+1]
		// Treat the destination as the cascade's bottom only when it
		// is the last level we know of and isn't itself already
		// overflowing — a conservative signal, since a true bottom
		// level can only be recognized in hindsight. See DESIGN.md's
		// tombstone-GC decision.
		isBottom := i+1 == len(ls.tiers)-1 && !dest.Overflowed()
		ls.mu.Unlock()

		merged, err := lvl.Merge(ls.dirFor(i+2), isBottom)
		if err != nil {
			return err
		}
		if merged == nil {
			break
		}
		dest.Add(merged)
	}

	return nil
}

func (ls *Levels) depth() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.tiers)
}
