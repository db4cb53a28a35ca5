package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/philackm/devlog/internal/logging"
)

// DefaultDebounce coalesces bursts of editor writes into one rebuild
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a rebuild function when files under its directories change
type Watcher struct {
	dirs     []string
	rebuild  func(ctx context.Context) error
	logger   logging.Logger
	debounce time.Duration
}

func New(dirs []string, rebuild func(ctx context.Context) error, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Watcher{dirs: dirs, rebuild: rebuild, logger: logger, debounce: DefaultDebounce}
}

// SetDebounce changes the quiet period before a rebuild
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled. Rebuilds run one at a time on the
// calling goroutine; changes arriving during a rebuild trigger one more.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := addTree(watcher, dir); err != nil {
			return err
		}
	}

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := addTree(watcher, event.Name); err != nil {
					w.logger.Warn("unable to watch new directory", "path", event.Name, "error", err)
				}
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-trigger:
			w.logger.Info("rebuilding after change")
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		return false
	}
	base := filepath.Base(event.Name)
	// editor swap and temp files
	return filepath.Ext(base) != ".tmp" && filepath.Ext(base) != ".swp" && base[len(base)-1] != '~'
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
