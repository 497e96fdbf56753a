package compaction

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/level"
	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/internal/segment"
)

func testLog() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestWaitRunsMergeSynchronously(t *testing.T) {
	root := t.TempDir()
	levels, err := level.Open(root, testLog())
	require.NoError(t, err)

	for i := 0; i < 11; i++ {
		rec := record.NewPut([]byte(fmt.Sprintf("key-%04d", i)), []byte("v"))
		seg, err := segment.Build(filepath.Join(root, fmt.Sprintf("%d.log", i)), []record.Record{rec}, testLog())
		require.NoError(t, err)
		levels.AddToLevel1(seg)
	}

	runner := New(levels, testLog())
	require.NoError(t, runner.Wait())

	_, _, found, err := levels.Get([]byte("key-0000"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTriggerReturnsImmediately(t *testing.T) {
	root := t.TempDir()
	levels, err := level.Open(root, testLog())
	require.NoError(t, err)

	runner := New(levels, testLog())
	// Should not block even with nothing to merge.
	runner.Trigger()
}
