// Package logger builds the structured logger shared by every subsystem of
// the store. It wraps go.uber.org/zap the same way the rest of the module
// consumes it: a single *zap.SugaredLogger passed down through Config
// structs, never a package-level global.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger tagged with the given service name. It
// uses zap's production encoder config but logs to stdout instead of a
// rotating file, since the store is meant to be embedded rather than run
// as its own daemon.
//
// When IGNITEKV_LOG_LEVEL is set to "debug", debug-level messages are
// enabled; otherwise the logger defaults to info level, which is what
// every subsystem logs its routine lifecycle events at.
func New(service string) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if os.Getenv("IGNITEKV_LOG_LEVEL") == "debug" {
		level.SetLevel(zapcore.DebugLevel)
	}

	cfg := zap.Config{
		Level:            level,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build()
	if err != nil {
		// Building a zap.Config from static fields cannot realistically
		// fail; fall back to a no-op logger rather than panicking a
		// caller that only wanted a key-value store.
		base = zap.NewNop()
	}

	return base.Named(service).Sugar()
}
