// Package watcher implements file system watching on top of fsnotify,
// converting raw notifications into change events for the classifier.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	adapterfs "go.trai.ch/sift/internal/adapters/fs"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 100

// Watcher implements file system watching using fsnotify. Renames are
// reported as unlinks: fsnotify delivers the new name as a separate create,
// and the classifier treats a missing move type as two independent events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	events    chan domain.ChangeEvent
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	return &Watcher{
		fsWatcher: w,
		events:    make(chan domain.ChangeEvent, eventChannelBuffer),
	}, nil
}

// Start begins watching the given root directory recursively.
func (w *Watcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	w.root = abs

	for dir := range w.watchRecursively(abs) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "dir", dir)
		}
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of change events in observed order.
func (w *Watcher) Events() iter.Seq[domain.ChangeEvent] {
	return func(yield func(domain.ChangeEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchRecursively walks the directory tree and yields all directories.
func (w *Watcher) watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Skip unreadable directories and keep walking
			}
			if d.IsDir() {
				if adapterfs.SkipDir(d.Name()) {
					return fs.SkipDir
				}
				if !yield(path) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

// processEvents converts raw fsnotify events and forwards them until the
// context is canceled or the watcher is closed.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// A new directory needs to be added to the watch set.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !adapterfs.SkipDir(info.Name()) {
					for dir := range w.watchRecursively(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}

			changeEvent := w.convertEvent(event)
			if changeEvent == nil {
				continue
			}

			select {
			case w.events <- *changeEvent:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: file system error: %v\n", err)
		}
	}
}

// convertEvent converts an fsnotify event into a domain.ChangeEvent.
// Directory creates and writes return nil: directories carry no content to
// classify. Removes cannot be stat'ed, so they pass through with size 0.
func (w *Watcher) convertEvent(event fsnotify.Event) *domain.ChangeEvent {
	var kind domain.ChangeKind
	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		kind = domain.KindChange
	case event.Op&fsnotify.Create == fsnotify.Create:
		kind = domain.KindAdd
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		kind = domain.KindUnlink
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		kind = domain.KindUnlink
	default:
		return nil
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return nil
	}

	var size int64
	if kind != domain.KindUnlink {
		info, err := os.Stat(event.Name)
		if err != nil {
			// The file may already be gone again; let the classifier
			// decide with what we know.
			info = nil
		}
		if info != nil {
			if info.IsDir() {
				return nil
			}
			size = info.Size()
		}
	}

	return &domain.ChangeEvent{
		Path:         event.Name,
		RelativePath: rel,
		Kind:         kind,
		SizeBytes:    size,
		Timestamp:    time.Now(),
	}
}
