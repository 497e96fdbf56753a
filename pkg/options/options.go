// Package options provides data structures and functions for configuring
// the store. It defines the parameters that control its storage behavior,
// performance, and maintenance operations — directory paths, the
// MemTable/WAL rotation threshold, and bloom filter and block index
// settings. Segment building does not read the bloom filter and block index
// settings; it uses segment.DefaultFalsePositiveRate and
// segment.DefaultBlockSize.
package options

import (
	"os"
	"strconv"
	"strings"
)

// Options defines the configuration parameters for an ignitekv Store.
type Options struct {
	// DataDir specifies the base path where the WAL, level-1 segments,
	// and lv{N} subdirectories are stored.
	//
	// Default: "/var/lib/ignitekv"
	DataDir string `json:"dataDir"`

	// MaxLogSize is the approximate encoded byte size a MemTable/WAL
	// pair may reach before it is rotated into a level-1 segment.
	// Overridable at process start via the KV_MAX_LOG_SIZE environment
	// variable (a positive integer number of bytes).
	//
	// Default: 256 MiB
	MaxLogSize uint64 `json:"maxLogSize"`

	// BloomFalsePositiveRate is a target bloom filter false-positive rate.
	// Segment building does not read it; segments are sized with
	// segment.DefaultFalsePositiveRate.
	//
	// Default: 0.001
	BloomFalsePositiveRate float64 `json:"bloomFalsePositiveRate"`

	// BlockSize is an approximate number of body bytes between successive
	// sparse block hints. Segment building does not read it; segments
	// place hints every segment.DefaultBlockSize bytes.
	//
	// Default: 4 KiB
	BlockSize int64 `json:"blockSize"`
}

// OptionFunc is a function type that modifies the store's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to its default value.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithMaxLogSize sets the MemTable/WAL rotation threshold directly,
// overriding any value derived from KV_MAX_LOG_SIZE.
func WithMaxLogSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.MaxLogSize = size
		}
	}
}

// WithBloomFalsePositiveRate sets the BloomFalsePositiveRate field when
// rate is in (0, 1).
func WithBloomFalsePositiveRate(rate float64) OptionFunc {
	return func(o *Options) {
		if rate > 0 && rate < 1 {
			o.BloomFalsePositiveRate = rate
		}
	}
}

// WithBlockSize sets the BlockSize field when size is positive.
func WithBlockSize(size int64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.BlockSize = size
		}
	}
}

// maxLogSizeFromEnv reads KV_MAX_LOG_SIZE and parses it as a positive
// integer number of bytes. A missing, empty, non-numeric, or non-positive
// value is ignored and ok is false.
func maxLogSizeFromEnv() (uint64, bool) {
	raw := strings.TrimSpace(os.Getenv(MaxLogSizeEnvVar))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}
