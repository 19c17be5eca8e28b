package refresh

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 250 * time.Millisecond

// WatcherConfig configures NewWatcher.
type WatcherConfig struct {
	// Path is the asset file to watch. Its parent directory is watched so that
	// atomic replacements (write temp + rename) are observed.
	Path     string
	Debounce time.Duration
	Target   Reloader
	Logger   *zerolog.Logger
}

// Watcher reloads Target when the asset file is written or replaced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	target   Reloader
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	timer    *time.Timer
	stopOnce sync.Once
}

// NewWatcher validates cfg and opens an fsnotify watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("reload target is required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: cfg.Debounce,
		target:   cfg.Target,
		log:      zerolog.Nop(),
		done:     make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if cfg.Logger != nil {
		w.log = *cfg.Logger
	}
	return w, nil
}

// Start begins watching. Reloads run with ctx until Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.loop()
	w.log.Info().Str("path", w.path).Msg("asset watcher started")
	return nil
}

// Stop ends the watch loop and cancels any pending reload. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.cancel != nil {
			w.cancel()
		}
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
		if cerr := w.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
		w.log.Info().Str("path", w.path).Msg("asset watcher stopped")
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

// schedule coalesces bursts of events into one reload.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	w.timer = nil
	w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	w.log.Info().Str("path", w.path).Msg("asset changed; reloading")
	if err := w.target.Reload(w.ctx); err != nil {
		w.log.Error().Err(err).Str("path", w.path).Msg("reload failed")
	}
}
