// Package watcher re-triggers packing when files below the working directory change.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is the quiet period after which a burst of changes is reported.
const DefaultDebounceWindow = 300 * time.Millisecond

// alwaysSkipped are directories that are never watched.
var alwaysSkipped = []string{".git", ".jj"}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	logger ports.Logger
	window time.Duration
}

// NewWatcher creates a new file system watcher.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{logger: logger, window: DefaultDebounceWindow}
}

// WithWindow sets the debounce window.
func (w *Watcher) WithWindow(window time.Duration) *Watcher {
	w.window = window
	return w
}

// Watch implements ports.Watcher.
//
//nolint:cyclop // event loop
func (w *Watcher) Watch(ctx context.Context, root string, ignores []string, onChange func(paths []string)) error {
	if _, err := os.Stat(root); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	defer fsw.Close() //nolint:errcheck // Nothing to do on close failure

	for dir := range w.dirs(root, ignores) {
		if err := fsw.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", dir)
		}
	}

	batches := make(chan []string)
	done := make(chan struct{})
	defer close(done)
	debouncer := NewDebouncer(w.window, func(paths []string) {
		select {
		case batches <- paths:
		case <-done:
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if skipped(filepath.Base(event.Name), ignores) || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					for dir := range w.dirs(event.Name, ignores) {
						_ = fsw.Add(dir)
					}
				}
			}
			debouncer.Add(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error: " + err.Error())
		case paths := <-batches:
			slices.Sort(paths)
			onChange(paths)
		}
	}
}

// dirs yields root and every directory below it that is not skipped.
func (w *Watcher) dirs(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipped(d.Name(), ignores) {
				return fs.SkipDir
			}
			if !yield(path) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

func skipped(name string, ignores []string) bool {
	if slices.Contains(alwaysSkipped, name) {
		return true
	}
	for _, pattern := range ignores {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
