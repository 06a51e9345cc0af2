// Package hotreload watches configuration files and invokes a handler after
// they change. Editors often replace files by rename, so the parent directory
// is watched and events are matched by cleaned path.
package hotreload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler is called with the changed file's path after the debounce window.
type ReloadHandler func(ctx context.Context, path string) error

type Watcher struct {
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu         sync.Mutex
	handlers   map[string]ReloadHandler
	debouncers map[string]*time.Timer
	running    bool
	stopChan   chan struct{}
	done       chan struct{}
}

func NewWatcher(logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		logger:     logger,
		debounce:   debounce,
		watcher:    fw,
		handlers:   make(map[string]ReloadHandler),
		debouncers: make(map[string]*time.Timer),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Watch registers h for path. The file's directory must exist.
func (w *Watcher) Watch(path string, h ReloadHandler) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return fmt.Errorf("watch %s: directory %s not available", path, dir)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.handlers[abs] = h
	w.logger.Info("watching file for changes", "path", abs)
	return nil
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	w.running = true
	w.mu.Unlock()
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(ev.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	h, ok := w.handlers[path]
	if !ok {
		return
	}
	if t, exists := w.debouncers[path]; exists {
		t.Stop()
	}
	w.debouncers[path] = time.AfterFunc(w.debounce, func() {
		if _, err := os.Stat(path); err != nil {
			// renamed away; the replacement arrives as a Create
			return
		}
		if err := h(ctx, path); err != nil {
			w.logger.Error("reload failed", "path", path, "error", err)
			return
		}
		w.logger.Info("reloaded", "path", path)
	})
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.stopChan)
	for _, t := range w.debouncers {
		t.Stop()
	}
	w.mu.Unlock()
	<-w.done
	return w.watcher.Close()
}
