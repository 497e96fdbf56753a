package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	t.Setenv("IGNITEKV_LOG_LEVEL", "")
	log := New("ignitekv-test")
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNewHonorsDebugEnvOverride(t *testing.T) {
	t.Setenv("IGNITEKV_LOG_LEVEL", "debug")
	log := New("ignitekv-test")
	assert.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNewNamesTheLogger(t *testing.T) {
	log := New("engine")
	assert.Equal(t, "engine", log.Desugar().Name())
}
