package snapshot_sync

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/meysamhadeli/focussync/snapshot_sync/contracts"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/pterm/pterm"
	"github.com/zeebo/xxh3"
)

const (
	DefaultContextPath = ".focussync/context.json"
	DefaultTempSuffix  = ".tmp"
)

// ErrRenameUnsupported is reported when the storage adapter cannot rename.
var ErrRenameUnsupported = errors.New("storage adapter does not support rename")

// WriteResult describes what a Write call did.
type WriteResult int

const (
	WriteSkipped WriteResult = iota
	WriteAtomic
	WriteFallback
	WriteFailed
)

func (r WriteResult) String() string {
	switch r {
	case WriteSkipped:
		return "skipped"
	case WriteAtomic:
		return "atomic"
	case WriteFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Fingerprint returns the content hash used to detect no-op writes.
func Fingerprint(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return fmt.Sprintf("%x", sum[:])
}

// AtomicWriter persists serialized snapshots with temp-file-then-rename and
// skips content identical to the last successful write.
type AtomicWriter struct {
	storage  contracts.IStorageAdapter
	path     string
	tempPath string
	logger   *pterm.Logger

	mu          sync.Mutex
	fingerprint string
}

// NewAtomicWriter creates a writer targeting path on storage.
func NewAtomicWriter(storage contracts.IStorageAdapter, path, tempSuffix string, logger *pterm.Logger) *AtomicWriter {
	if path == "" {
		path = DefaultContextPath
	}
	if tempSuffix == "" {
		tempSuffix = DefaultTempSuffix
	}
	return &AtomicWriter{
		storage:  storage,
		path:     path,
		tempPath: path + tempSuffix,
		logger:   utils.OrDiscard(logger),
	}
}

// Path returns the artifact path.
func (w *AtomicWriter) Path() string { return w.path }

// TempPath returns the temporary path used during writes.
func (w *AtomicWriter) TempPath() string { return w.tempPath }

// LastFingerprint returns the fingerprint of the last successful write.
func (w *AtomicWriter) LastFingerprint() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fingerprint
}

// Write persists serialized unless it matches the last successful write.
// Failures are logged, never returned; the fingerprint only moves on success
// so the next call retries.
func (w *AtomicWriter) Write(serialized []byte) WriteResult {
	fingerprint := Fingerprint(serialized)

	w.mu.Lock()
	defer w.mu.Unlock()
	if fingerprint == w.fingerprint {
		return WriteSkipped
	}

	err := w.writeAtomic(serialized)
	if err == nil {
		w.fingerprint = fingerprint
		return WriteAtomic
	}
	w.logger.Error("atomic write failed, falling back to direct write",
		w.logger.Args("path", w.path, "error", err))

	if err := w.storage.Write(w.path, serialized); err != nil {
		w.logger.Error("direct write failed", w.logger.Args("path", w.path, "error", err))
		return WriteFailed
	}
	if err := w.storage.Remove(w.tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug("could not remove temp file", w.logger.Args("path", w.tempPath, "error", err))
	}
	w.fingerprint = fingerprint
	return WriteFallback
}

func (w *AtomicWriter) writeAtomic(serialized []byte) error {
	if err := w.storage.Write(w.tempPath, serialized); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	renamer, ok := w.storage.(contracts.IRenamer)
	if !ok {
		return ErrRenameUnsupported
	}
	if err := w.storage.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove previous artifact: %w", err)
	}
	if err := renamer.Rename(w.tempPath, w.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Reset forgets the last fingerprint so the next write always reaches storage.
func (w *AtomicWriter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fingerprint = ""
}
