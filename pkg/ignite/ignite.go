// Package ignite provides an embeddable, persistent key/value data store
// built on a log-structured storage engine: a MemTable and write-ahead log
// absorb writes, which are periodically drained into immutable, sorted
// on-disk segments organized into a leveled, size-triggered compaction
// cascade. It is designed for applications that need fast, durable local
// storage without running a separate database process — caching, session
// state, and embedded indexes.
package ignite

import (
	"context"

	"github.com/nilotpaldev/ignitekv/internal/engine"
	"github.com/nilotpaldev/ignitekv/internal/pattern"
	"github.com/nilotpaldev/ignitekv/pkg/logger"
	"github.com/nilotpaldev/ignitekv/pkg/options"
)

// Represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite store,
// providing methods for setting, getting, and deleting key-value pairs.
type Instance struct {
	engine  *engine.Engine   // The underlying database engine handling read/write operations.
	options *options.Options // Configuration options applied to this DB instance.
}

// Creates and initializes a new Ignite DB instance.
func NewInstance(context context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options.
	defaultOpts := options.NewDefaultOptions()

	// Apply any provided functional options to override defaults.
	if len(opts) > 0 {
		for _, opt := range opts {
			opt(&defaultOpts)
		}
	}

	// Create a new internal engine with the initialized logger.
	eng, err := engine.New(context, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated.
// The write is appended to the redo log before it becomes visible, so it
// survives a process crash.
func (i *Instance) Set(ctx context.Context, key string, value []byte) error {
	return i.engine.Set(ctx, key, value)
}

// Get retrieves the value associated with the given key. It returns an
// error if the key was never set or was removed.
func (i *Instance) Get(ctx context.Context, key string) ([]byte, error) {
	return i.engine.Get(ctx, key)
}

// Delete removes a key-value pair from the database.
// The operation marks the key as deleted with a tombstone and will
// eventually be physically removed during compaction.
func (i *Instance) Delete(ctx context.Context, key string) error {
	return i.engine.Remove(ctx, key)
}

// Find returns every live key matching a glob-style pattern, together with
// its current value. '_' matches exactly one byte and '*' matches zero or
// more bytes up to (and including) the next pattern byte, or to the end of
// the key if '*' is the pattern's last byte.
func (i *Instance) Find(ctx context.Context, glob string) (map[string][]byte, error) {
	return i.engine.Find(ctx, pattern.Compile(glob))
}

// Close gracefully shuts down the Ignite instance: it runs one synchronous
// compaction pass and closes the active redo log and MemTable. A background
// compaction pass that is already in flight is not waited for.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
