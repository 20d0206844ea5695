package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const defaultMaxShardSize = 64 * 1024 * 1024

// ShardWriter rotates a synthetic dataset across fixed-size shard files
// inside a directory, so a bench sweep can build inputs far larger than
// any one generator buffer without holding them all in RAM at once.
type ShardWriter struct {
	mu           sync.Mutex
	dir          string
	active       *os.File
	activeID     int
	activeSize   int64
	maxShardSize int64
}

// ShardOption configures a ShardWriter at construction.
type ShardOption func(*ShardWriter)

// WithMaxShardSize overrides the default 64MiB-per-shard threshold.
func WithMaxShardSize(n int64) ShardOption {
	return func(w *ShardWriter) { w.maxShardSize = n }
}

// NewShardWriter creates dir if it does not exist (files already in it are
// left alone) and prepares to write shard-0001 on the first WritePage call.
func NewShardWriter(dir string, opts ...ShardOption) (*ShardWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("bench: creating shard dir: %w", err)
	}

	w := &ShardWriter{dir: dir, maxShardSize: defaultMaxShardSize}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *ShardWriter) idToPath(id int) string {
	return filepath.Join(w.dir, fmt.Sprintf("shard-%04d.bin", id))
}

func (w *ShardWriter) rotate() error {
	if w.active != nil {
		if err := w.active.Close(); err != nil {
			return fmt.Errorf("bench: closing shard %d: %w", w.activeID, err)
		}
	}

	w.activeID++
	f, err := os.Create(w.idToPath(w.activeID))
	if err != nil {
		return fmt.Errorf("bench: creating shard %d: %w", w.activeID, err)
	}
	w.active = f
	w.activeSize = 0
	return nil
}

// WritePage appends one page-sized record block, rotating to a fresh shard
// file first if page would push the active shard past maxShardSize.
func (w *ShardWriter) WritePage(page []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active == nil || w.activeSize+int64(len(page)) > w.maxShardSize {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	n, err := w.active.Write(page)
	if err != nil {
		return fmt.Errorf("bench: writing to shard %d: %w", w.activeID, err)
	}
	w.activeSize += int64(n)
	return nil
}

// ShardCount reports how many shard files have been created so far.
func (w *ShardWriter) ShardCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeID
}

// Close flushes and closes the active shard, if any.
func (w *ShardWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == nil {
		return nil
	}
	if err := w.active.Close(); err != nil {
		return fmt.Errorf("bench: closing shard %d: %w", w.activeID, err)
	}
	return nil
}
