// Package wal implements the write-ahead (redo) log paired with each
// MemTable: a single append-only file that exists purely for crash
// recovery. Every write lands here before it is visible in the MemTable,
// and the file is deleted once its MemTable has been durably drained into
// a level-1 segment.
package wal

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nilotpaldev/ignitekv/internal/memtable"
	"github.com/nilotpaldev/ignitekv/internal/record"
	"github.com/nilotpaldev/ignitekv/pkg/errors"
	"github.com/nilotpaldev/ignitekv/pkg/filesys"
)

// Extension used for every redo log file, per the store's on-disk layout.
const Extension = ".redo"

// WAL is an append-only, buffered-write redo log. Appends are flushed to
// the OS write buffer on every call but are not fsynced, so the store
// survives process crashes but not OS/disk crashes.
type WAL struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	log    *zap.SugaredLogger
	mu     sync.Mutex
	closed atomic.Bool
}

// Create opens a brand-new redo log in dir, named with a fresh UUID.
func Create(dir string, log *zap.SugaredLogger) (*WAL, error) {
	name := uuid.NewString() + Extension
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, name)
	}

	log.Infow("Created redo log", "path", path)
	return &WAL{path: path, file: file, writer: bufio.NewWriter(file), log: log}, nil
}

// Open reopens an existing redo log file at path for continued appends,
// positioning the write cursor at the end of the file.
func Open(path string, log *zap.SugaredLogger) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, filepath.Base(path))
	}
	return &WAL{path: path, file: file, writer: bufio.NewWriter(file), log: log}, nil
}

// Path returns the redo log's filesystem path.
func (w *WAL) Path() string {
	return w.path
}

// Append encodes rec and writes it to the log, flushing the buffered
// writer so the bytes reach the OS before Append returns.
func (w *WAL) Append(rec record.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed.Load() {
		return errClosed
	}

	buf, err := record.Encode(rec, nil)
	if err != nil {
		return err
	}

	if _, err := w.writer.Write(buf); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record to redo log").
			WithPath(w.path)
	}

	if err := w.writer.Flush(); err != nil {
		return errors.ClassifySyncError(err, filepath.Base(w.path), w.path, 0)
	}

	return nil
}

// Replay reads every record in the log from the beginning and rebuilds a
// fresh MemTable from it. A record that fails to decode because its frame
// is truncated (the last write before a crash) stops replay cleanly; a
// record that fails its CRC check is skipped and replay continues, since
// the damage is isolated to that one entry.
func (w *WAL) Replay(log *zap.SugaredLogger) (*memtable.MemTable, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek redo log for replay").
			WithPath(w.path)
	}

	data, err := io.ReadAll(w.file)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read redo log for replay").
			WithPath(w.path)
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to reposition redo log after replay").
			WithPath(w.path)
	}

	mt := memtable.New(log)
	offset := int64(0)
	for len(data) > 0 {
		rec, n, err := record.Decode(data, w.path, offset)
		if err != nil {
			if ce, ok := errors.AsCorruptError(err); ok && ce.Reason() == "short_read" {
				log.Warnw("Stopping redo log replay at truncated trailing record", "path", w.path, "offset", offset)
				break
			}
			log.Warnw("Skipping corrupt redo log record", "path", w.path, "offset", offset, "error", err)
			// A mid-file CRC mismatch without a usable length is
			// unrecoverable without a resync scan; since our length
			// prefix is still trustworthy even when the body's CRC
			// fails, we can skip exactly this record's bytes.
			data = data[n:]
			offset += int64(n)
			continue
		}

		mt.Put(string(rec.Key), rec.Value, !rec.HasValue, rec.Timestamp)
		data = data[n:]
		offset += int64(n)
	}

	return mt, nil
}

// Close flushes and closes the underlying file handle without removing it.
func (w *WAL) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return errClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return errors.ClassifySyncError(err, filepath.Base(w.path), w.path, 0)
	}
	return w.file.Close()
}

// Remove closes the log (if not already closed) and deletes its file. It
// is called once a MemTable has been durably drained to a segment and the
// log is no longer needed for recovery.
func (w *WAL) Remove() error {
	if w.closed.CompareAndSwap(false, true) {
		w.mu.Lock()
		_ = w.writer.Flush()
		_ = w.file.Close()
		w.mu.Unlock()
	}
	return filesys.DeleteFile(w.path)
}
