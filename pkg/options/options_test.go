package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultOptionsUsesDefaults(t *testing.T) {
	t.Setenv(MaxLogSizeEnvVar, "")
	opts := NewDefaultOptions()
	assert.Equal(t, DefaultDataDir, opts.DataDir)
	assert.Equal(t, DefaultMaxLogSize, opts.MaxLogSize)
	assert.Equal(t, DefaultBloomFalsePositiveRate, opts.BloomFalsePositiveRate)
	assert.Equal(t, DefaultBlockSize, opts.BlockSize)
}

func TestNewDefaultOptionsHonorsEnvOverride(t *testing.T) {
	t.Setenv(MaxLogSizeEnvVar, "1024")
	opts := NewDefaultOptions()
	assert.Equal(t, uint64(1024), opts.MaxLogSize)
}

func TestNewDefaultOptionsIgnoresInvalidEnv(t *testing.T) {
	t.Setenv(MaxLogSizeEnvVar, "not-a-number")
	opts := NewDefaultOptions()
	assert.Equal(t, DefaultMaxLogSize, opts.MaxLogSize)

	t.Setenv(MaxLogSizeEnvVar, "0")
	opts = NewDefaultOptions()
	assert.Equal(t, DefaultMaxLogSize, opts.MaxLogSize)

	t.Setenv(MaxLogSizeEnvVar, "-5")
	opts = NewDefaultOptions()
	assert.Equal(t, DefaultMaxLogSize, opts.MaxLogSize)
}

func TestWithDataDirTrimsAndIgnoresBlank(t *testing.T) {
	opts := NewDefaultOptions()
	WithDataDir("  /tmp/kv  ")(&opts)
	assert.Equal(t, "/tmp/kv", opts.DataDir)

	before := opts.DataDir
	WithDataDir("   ")(&opts)
	assert.Equal(t, before, opts.DataDir)
}

func TestWithMaxLogSizeIgnoresZero(t *testing.T) {
	opts := NewDefaultOptions()
	WithMaxLogSize(0)(&opts)
	assert.Equal(t, DefaultMaxLogSize, opts.MaxLogSize)

	WithMaxLogSize(42)(&opts)
	assert.Equal(t, uint64(42), opts.MaxLogSize)
}

func TestWithBloomFalsePositiveRateValidatesRange(t *testing.T) {
	opts := NewDefaultOptions()

	WithBloomFalsePositiveRate(0)(&opts)
	assert.Equal(t, DefaultBloomFalsePositiveRate, opts.BloomFalsePositiveRate)

	WithBloomFalsePositiveRate(1)(&opts)
	assert.Equal(t, DefaultBloomFalsePositiveRate, opts.BloomFalsePositiveRate)

	WithBloomFalsePositiveRate(0.01)(&opts)
	assert.Equal(t, 0.01, opts.BloomFalsePositiveRate)
}

func TestWithBlockSizeIgnoresNonPositive(t *testing.T) {
	opts := NewDefaultOptions()

	WithBlockSize(0)(&opts)
	assert.Equal(t, DefaultBlockSize, opts.BlockSize)

	WithBlockSize(-1)(&opts)
	assert.Equal(t, DefaultBlockSize, opts.BlockSize)

	WithBlockSize(8192)(&opts)
	assert.Equal(t, int64(8192), opts.BlockSize)
}

func TestWithDefaultOptionsResetsEverything(t *testing.T) {
	t.Setenv(MaxLogSizeEnvVar, "")
	opts := NewDefaultOptions()
	WithDataDir("/tmp/custom")(&opts)
	WithBlockSize(1)(&opts)

	WithDefaultOptions()(&opts)
	assert.Equal(t, NewDefaultOptions(), opts)
}
