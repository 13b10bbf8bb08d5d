// Package watcher reloads the concept tree when its file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to one file. It watches the parent directory so
// that editors which save by renaming a temp file over the original are
// still noticed.
type Watcher struct {
	path     string
	logger   *zap.Logger
	fs       *fsnotify.Watcher
	debounce *debouncer
	done     chan struct{}
}

// Watch starts watching path and calls onChange, from the watcher's own
// goroutine, once per burst of writes. It stops when ctx is done or Close is
// called.
func Watch(ctx context.Context, path string, delay time.Duration, logger *zap.Logger, onChange func(path string)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:   abs,
		logger: logger,
		fs:     fsw,
		done:   make(chan struct{}),
	}
	w.debounce = newDebouncer(delay, func() {
		w.logger.Info("tree file changed", zap.String("path", w.path))
		onChange(w.path)
	})

	go w.loop(ctx)
	logger.Debug("watching tree file", zap.String("path", abs))
	return w, nil
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer w.fs.Close()
	defer w.debounce.Cancel()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debug("tree file event",
					zap.String("file", event.Name),
					zap.String("operation", event.Op.String()))
				w.debounce.Trigger()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

// Close stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
