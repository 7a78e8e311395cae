// Package watch re-runs a job whenever a single file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce absorbs the burst of events editors and spreadsheet
// applications emit for a single save.
const DefaultDebounce = 500 * time.Millisecond

// Run watches path and calls fn after each change, until ctx is cancelled.
// The parent directory is watched rather than the file itself so that
// replace-on-save (write temp, rename) is still seen. Errors from fn and from
// the watcher are passed to onErr and do not stop the loop.
func Run(ctx context.Context, path string, debounce time.Duration, fn func() error, onErr func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !Relevant(event, abs) {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			if err := fn(); err != nil && onErr != nil {
				onErr(err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(fmt.Errorf("watcher: %w", err))
			}
		}
	}
}

// Relevant reports whether event is a create, write or rename onto target.
func Relevant(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}
