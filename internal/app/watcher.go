package app

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/solewatch/solewatch/internal/logger"
)

// Watcher reloads the shop set when the product URL file changes on disk.
// Editors and sync tools fire bursts of events per save, so reloads are
// debounced. Watch failures are logged and disable live reload, nothing
// more.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   func(ctx context.Context) error
	logger   logger.StyledLogger

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

func NewWatcher(path string, debounce time.Duration, reload func(ctx context.Context) error, log logger.StyledLogger) *Watcher {
	return &Watcher{
		path:     path,
		debounce: debounce,
		reload:   reload,
		logger:   log,
	}
}

// Start watches the file's directory rather than the file itself, so
// replace-by-rename saves keep working after the original inode is gone.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})

	go w.loop(ctx)

	w.logger.Info("Watching product URL file for changes", "file", w.path)

	return nil
}

// Stop closes the underlying watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.watcher == nil {
			return
		}

		_ = w.watcher.Close()
		<-w.done
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	base := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != base {
				continue
			}

			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug("Product URL file changed", "op", event.Op.String())

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("Product URLs changed, reloading shops")

			if err := w.reload(ctx); err != nil {
				w.logger.Warn("Reload after product URL change failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.logger.Warn("File watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}
