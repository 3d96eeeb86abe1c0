package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mfriel/breakline/internal/event"
	"github.com/mfriel/breakline/internal/session"
)

// Watcher polls a configuration file and reloads it on change.
// Reloads are announced on the bus as event.TopicConfigChanged with a
// Config payload; a file that fails to load or validate keeps the last
// good configuration and reports the failure on event.TopicDebugError.
type Watcher struct {
	path     string
	bus      *event.Bus
	interval time.Duration

	mu      sync.Mutex
	modTime time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, bus *event.Bus, opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     path,
		bus:      bus,
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins polling. It is a no-op if the watcher is already running.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}
	if info, err := os.Stat(w.path); err == nil {
		w.modTime = info.ModTime()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.poll(ctx)
}

// Stop stops polling and waits for the poll loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check reloads the file if its modification time moved.
func (w *Watcher) check(ctx context.Context) {
	info, err := os.Stat(w.path)
	if err != nil {
		// Deleted or unreadable; keep the last good configuration.
		return
	}

	w.mu.Lock()
	changed := info.ModTime().After(w.modTime)
	if changed {
		w.modTime = info.ModTime()
	}
	w.mu.Unlock()

	if !changed {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		w.bus.Publish(ctx, event.TopicDebugError, session.ErrorEvent{
			Op:  "reload config",
			Err: fmt.Errorf("reload %s: %w", w.path, err),
		})
		return
	}
	w.bus.Publish(ctx, event.TopicConfigChanged, cfg)
}
