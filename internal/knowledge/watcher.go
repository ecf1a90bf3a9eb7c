package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps the guide index current while the process runs: edits to
// guide files are re-indexed after a short debounce, deletions are removed.
type Watcher struct {
	root     string
	index    *Index
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]fsnotify.Op

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher over the guide directory.
func NewWatcher(root string, index *Index, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create guide watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:     root,
		index:    index,
		watcher:  fsw,
		log:      log,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]fsnotify.Op),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins watching. Subdirectories are watched too.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := w.watcher.Add(path); addErr != nil {
				return fmt.Errorf("failed to watch %s: %w", path, addErr)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isGuideFile(ev.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[ev.Name] |= ev.Op
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("guide watcher error", zap.Error(err))

		case <-ticker.C:
			w.flush()
		}
	}
}

// flush applies the debounced batch of changes to the index.
func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	for path, op := range batch {
		if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			if err := w.index.DeleteDocument(path); err != nil {
				w.log.Warn("failed to drop guide from index", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if err := w.index.IndexFile(path); err != nil {
			w.log.Warn("failed to reindex guide", zap.String("path", path), zap.Error(err))
			continue
		}
		w.log.Debug("guide reindexed", zap.String("path", path))
	}
}
