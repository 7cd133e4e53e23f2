// Package watch re-runs compatibility checks when installed addins change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a re-run.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a callback once a burst of filesystem changes settles.
type Watcher struct {
	roots    []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher over roots and everything below them.
func New(roots []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{roots: roots, debounce: debounce, logger: logger}
}

// Run blocks until ctx is done, calling trigger after each settled burst of changes.
// Triggers never overlap; changes made while trigger runs schedule the next one.
func (w *Watcher) Run(ctx context.Context, trigger func(ctx context.Context)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, root := range w.roots {
		if err := addRecursive(fw, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	w.logger.Info("watching for addin changes", "roots", w.roots)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignored(ev) {
				continue
			}
			w.logger.Debug("addin change", "path", ev.Name, "op", ev.Op.String())
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addRecursive(fw, ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			trigger(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func ignored(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}
	return strings.HasPrefix(filepath.Base(ev.Name), ".")
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
