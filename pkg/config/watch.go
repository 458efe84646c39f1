package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kart-io/alerthub/pkg/errors"
	"github.com/kart-io/alerthub/pkg/logger"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a configuration file whenever it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	lookup   func(string) (string, bool)
	logger   logger.Logger

	mu   sync.Mutex
	last []byte
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a change is reloaded.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLookup replaces os.LookupEnv for ${VAR} expansion and overrides.
func WithLookup(lookup func(string) (string, bool)) WatchOption {
	return func(w *Watcher) { w.lookup = lookup }
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l logger.Logger) WatchOption {
	return func(w *Watcher) { w.logger = logger.OrDiscard(l) }
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		lookup:   os.LookupEnv,
		logger:   logger.Discard,
	}
	for _, opt := range opts {
		opt(w)
	}
	if data, err := os.ReadFile(path); err == nil {
		w.last = data
	}
	return w
}

// Watch blocks until ctx is done, calling onChange with every valid new
// version of the file. Invalid or unchanged versions are logged and skipped.
func (w *Watcher) Watch(ctx context.Context, onChange func(*File)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigLoadFailed, "failed to create file watcher").WithDetails(err.Error())
	}
	defer fw.Close()

	// Watch the directory: editors replace files, which drops a file watch.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoadFailed, "failed to watch directory").
			WithDetails(err.Error()).
			WithContext("dir", dir)
	}
	file := filepath.Base(w.path)
	w.logger.Info("Watching configuration", "path", w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			if f := w.reload(); f != nil {
				onChange(f)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Configuration watcher error", "error", err)
		}
	}
}

// reload returns the new configuration, or nil when it is unchanged or invalid.
func (w *Watcher) reload() *File {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("Failed to read configuration", "path", w.path, "error", err)
		return nil
	}

	w.mu.Lock()
	unchanged := bytes.Equal(data, w.last)
	w.mu.Unlock()
	if unchanged {
		w.logger.Debug("Configuration unchanged, skipping reload", "path", w.path)
		return nil
	}

	f, err := Parse(data, w.lookup)
	if err != nil {
		w.logger.Warn("Configuration rejected", "path", w.path, "error", err)
		return nil
	}

	w.mu.Lock()
	w.last = data
	w.mu.Unlock()
	w.logger.Info("Configuration reloaded", "path", w.path, "channels", len(f.Channels))
	return f
}
