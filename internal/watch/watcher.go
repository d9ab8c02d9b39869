// Package watch triggers regeneration when catalog sources or the config
// change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"nodegen/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Handler is called with the changed paths, sorted, once events settle.
type Handler func(ctx context.Context, changed []string)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long events must be quiet before Handler runs.
	Debounce time.Duration
	// Extensions limits which files in watched trees count as changes.
	Extensions []string
}

var defaultExtensions = []string{".py", ".yaml", ".yml", ".json"}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Batches       int
	Errors        int
	LastEventPath string
	LastBatchTime time.Time
}

// Watcher watches directory trees and individual files.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	exts     map[string]bool
	files    map[string]bool
	pending  map[string]struct{}
	lastSeen time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stats    Stats
}

// New creates a watcher that calls handler for settled changes.
func New(handler Handler, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaultExtensions
	}
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts[e] = true
	}
	return &Watcher{
		watcher:  fw,
		handler:  handler,
		debounce: opts.Debounce,
		exts:     exts,
		files:    make(map[string]bool),
		pending:  make(map[string]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// AddTree watches root and every directory below it.
func (w *Watcher) AddTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		logging.WatchDebug("watching %s", path)
		return nil
	})
}

// AddFile watches a single file through its parent directory, so the file
// may be replaced by editors that write and rename.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
	logging.Watch("watcher started (debounce %s)", w.debounce)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logging.WatchWarn("error closing watcher: %v", err)
	}
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchWarn("watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			if batch := w.settled(); len(batch) > 0 {
				logging.Watch("%d change(s), regenerating", len(batch))
				w.handler(ctx, batch)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
			if err := w.AddTree(event.Name); err != nil {
				logging.WatchWarn("failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		abs = event.Name
	}
	if !w.files[abs] && !w.exts[filepath.Ext(event.Name)] {
		return
	}
	logging.WatchDebug("%s %s", event.Op, event.Name)
	w.pending[event.Name] = struct{}{}
	w.lastSeen = time.Now()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
}

// settled drains the pending set once no event has arrived for the
// debounce interval.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 || time.Since(w.lastSeen) < w.debounce {
		return nil
	}
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	sort.Strings(batch)
	w.pending = make(map[string]struct{})
	w.stats.Batches++
	w.stats.LastBatchTime = time.Now()
	return batch
}
