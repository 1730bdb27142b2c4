// Package watcher watches corpus directories with fsnotify and feeds newly
// appearing files into ingestion. Removals and in-place edits are logged
// only: the index has no delete operation and re-ingestion of a known
// document is a no-op by design.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches directories and invokes the ingest callback on new files.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onIngest   func(path string)
	debounce   time.Duration

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	started     bool
	stopOnce    sync.Once
	done        chan struct{}
	logger      *zap.Logger // optional; when set, logs debug events
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (file events, skipped paths).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the event debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher. onIngest is called for files created or
// written under the roots whose extension matches (empty extensions = all).
func NewWatcher(roots, extensions []string, recursive bool, onIngest func(path string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		roots:       roots,
		extensions:  extensions,
		recursive:   recursive,
		onIngest:    onIngest,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addRoot(root); err != nil {
			if w.logger != nil {
				w.logger.Warn("watch root failed", zap.String("root", root), zap.Error(err))
			}
		}
	}

	go w.loop(ctx)
	return nil
}

// addRoot registers root (and its subdirectories when recursive) with fsnotify.
func (w *Watcher) addRoot(root string) error {
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
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
			if w.logger != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		if w.logger != nil && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			w.logger.Debug("file removed; index entry kept", zap.String("path", event.Name))
		}
		return
	}

	// A created directory needs watching; a created/written file is a
	// candidate for ingestion.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.recursive {
				_ = w.addRoot(event.Name)
			}
			return
		}
	}

	if !w.extensionAllowed(filepath.Ext(event.Name)) {
		return
	}
	w.scheduleIngest(event.Name)
}

// scheduleIngest debounces rapid successive events for the same path before
// calling the ingest callback once.
func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if w.logger != nil {
			w.logger.Debug("watch ingest", zap.String("path", path))
		}
		w.onIngest(path)
	})
}

func (w *Watcher) extensionAllowed(ext string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range w.extensions {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		for _, timer := range w.debounceMap {
			timer.Stop()
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
