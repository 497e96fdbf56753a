package options

const (
	// DefaultDataDir specifies the default base directory where the store
	// keeps its WAL, level-1 segments, and lv{N} subdirectories.
	DefaultDataDir = "/var/lib/ignitekv"

	// DefaultMaxLogSize is the default MemTable/WAL byte threshold that
	// triggers rotation into a level-1 segment (256 MiB).
	DefaultMaxLogSize uint64 = 256 * 1024 * 1024

	// MaxLogSizeEnvVar is the environment variable that overrides
	// DefaultMaxLogSize; it must parse as a positive integer number of
	// bytes or it is ignored.
	MaxLogSizeEnvVar = "KV_MAX_LOG_SIZE"

	// DefaultBloomFalsePositiveRate is the default for
	// Options.BloomFalsePositiveRate.
	DefaultBloomFalsePositiveRate = 0.001

	// DefaultBlockSize is the default for Options.BlockSize.
	DefaultBlockSize int64 = 4 * 1024
)

// Holds the default configuration settings for an ignitekv Store.
var defaultOptions = Options{
	DataDir:               DefaultDataDir,
	MaxLogSize:            DefaultMaxLogSize,
	BloomFalsePositiveRate: DefaultBloomFalsePositiveRate,
	BlockSize:             DefaultBlockSize,
}

// NewDefaultOptions returns the baseline Options, with DefaultMaxLogSize
// already overridden by KV_MAX_LOG_SIZE when that variable is set to a
// valid positive integer.
func NewDefaultOptions() Options {
	opts := defaultOptions
	if v, ok := maxLogSizeFromEnv(); ok {
		opts.MaxLogSize = v
	}
	return opts
}
