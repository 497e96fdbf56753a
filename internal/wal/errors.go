package wal

import "errors"

var errClosed = errors.New("operation failed: cannot access closed redo log")
