// Package watch re-runs an index build whenever the watched tree changes.
// Events are debounced so a burst of writes triggers a single rebuild.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"imgindex/pkg/imgindex/logging"
)

// Options configures a watch loop.
type Options struct {
	// Root is the directory tree to watch.
	Root string

	// Debounce is the quiet period between the last filesystem event and
	// the rebuild it triggers.
	Debounce time.Duration

	// IgnoreNames lists base names whose events are discarded. The
	// generated index files must be listed here when they live inside
	// the watched tree, otherwise every rebuild would trigger the next.
	IgnoreNames []string

	// OnChange runs after the debounce period. A failing rebuild is
	// logged and the loop keeps watching.
	OnChange func(ctx context.Context) error
}

// Run watches the root until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	logger := logging.Get("watch")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addRecursive(fsw, opts.Root); err != nil {
		return err
	}

	logger.Info("watching for changes", "root", opts.Root, "debounce", opts.Debounce)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name, opts.IgnoreNames) {
				continue
			}

			// New directories need their own watches.
			if event.Op.Has(fsnotify.Create) {
				_ = addRecursive(fsw, event.Name)
			}

			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(opts.Debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := opts.OnChange(ctx); err != nil {
				logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

// addRecursive adds watches for path and every directory below it.
// Symlinks are not followed to avoid loops.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				logging.Get("watch").Warn("failed to add watch", "path", path, "error", err)
			}
		}
		return nil
	})
}

// ignored reports whether the event path should be discarded.
func ignored(path string, names []string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".tmp") {
		return true
	}
	for _, name := range names {
		if base == name {
			return true
		}
	}
	return false
}
