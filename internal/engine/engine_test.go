package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/pkg/options"
)

func testLog() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func newTestEngine(t *testing.T, opts ...options.OptionFunc) *Engine {
	t.Helper()
	cfg := options.NewDefaultOptions()
	cfg.DataDir = t.TempDir()
	for _, opt := range opts {
		opt(&cfg)
	}

	eng, err := New(context.Background(), &Config{Options: &cfg, Logger: testLog()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestSetThenGetReadsYourWrites(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	require.NoError(t, eng.Set(ctx, "a", []byte("1")))
	value, err := eng.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
}

func TestGetMissingKeyReturnsError(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestRemoveMasksPriorValue(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	require.NoError(t, eng.Set(ctx, "a", []byte("1")))
	require.NoError(t, eng.Remove(ctx, "a"))

	_, err := eng.Get(ctx, "a")
	assert.Error(t, err)
}

func TestEmptyKeyAndValueRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	require.NoError(t, eng.Set(ctx, "", []byte{}))
	value, err := eng.Get(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, value)

	hits, err := eng.Find(ctx, pattern.Compile("*"))
	require.NoError(t, err)
	assert.Contains(t, hits, "")
}

func TestFindReturnsMatchingLiveKeys(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	require.NoError(t, eng.Set(ctx, "user:1", []byte("alice")))
	require.NoError(t, eng.Set(ctx, "user:2", []byte("bob")))
	require.NoError(t, eng.Set(ctx, "order:1", []byte("widget")))
	require.NoError(t, eng.Remove(ctx, "user:2"))

	hits, err := eng.Find(ctx, pattern.Compile("user:_"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"user:1": []byte("alice")}, hits)
}

func TestRotationDrainsMemTableToLevel1(t *testing.T) {
	ctx := context.Background()
	// Small enough to force several rotations, but sized so the total
	// segment count stays under level 1's overflow threshold (10) —
	// keeping this test free of concurrent background compaction, which
	// is covered separately in internal/level and internal/compaction.
	eng := newTestEngine(t, options.WithMaxLogSize(150))

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("k%02d", i)
		require.NoError(t, eng.Set(ctx, key, []byte("v")))
	}

	// Every key set must still be readable regardless of which rotation
	// generation it ended up drained into.
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("k%02d", i)
		_, err := eng.Get(ctx, key)
		require.NoError(t, err, "key %q should be readable after rotation", key)
	}
}

func TestCloseIsOneShot(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.Close())
	assert.Error(t, eng.Close())
}

func TestReopenRecoversFromWAL(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	cfg := options.NewDefaultOptions()
	cfg.DataDir = dataDir

	eng, err := New(ctx, &Config{Options: &cfg, Logger: testLog()})
	require.NoError(t, err)
	require.NoError(t, eng.Set(ctx, "a", []byte("1")))
	require.NoError(t, eng.Set(ctx, "b", []byte("2")))
	require.NoError(t, eng.Close())

	reopened, err := New(ctx, &Config{Options: &cfg, Logger: testLog()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	value, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)

	value, err = reopened.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), value)
}
