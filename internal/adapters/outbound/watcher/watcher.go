package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultDebounce coalesces bursts of writes such as a checkout or a build.
const DefaultDebounce = 300 * time.Millisecond

// TreeWatcher implements domain.ChangeWatcher on top of fsnotify. Directories
// are added recursively, including ones created while watching.
type TreeWatcher struct {
	Debounce time.Duration

	skipDirs map[string]bool
	ignore   []string
	logger   hclog.Logger
}

// New returns a watcher that never descends into the named directories and
// drops events under any of the ignored absolute paths, typically the report
// directory of the rescans it triggers.
func New(logger hclog.Logger, skipDirs []string, ignore ...string) *TreeWatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[strings.TrimSuffix(d, "/")] = true
	}
	var abs []string
	for _, p := range ignore {
		if a, err := filepath.Abs(p); err == nil {
			abs = append(abs, a)
		}
	}
	return &TreeWatcher{Debounce: DefaultDebounce, skipDirs: skip, ignore: abs, logger: logger}
}

// Watch reports changed paths under root, absolute and sorted, after each
// quiet period of Debounce. It returns when ctx is done.
func (w *TreeWatcher) Watch(ctx context.Context, root string, onChange func(changed []string)) error {
	// fsnotify names events after the watched path; ignore paths are absolute
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	root = abs
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	var (
		pending = make(map[string]bool)
		timer   *time.Timer
		fire    = make(chan struct{}, 1)
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
			if w.ignored(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, ev.Name); err != nil {
						w.logger.Warn("watching new directory", "path", ev.Name, "error", err)
					}
				}
			}
			pending[ev.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.Debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			pending = make(map[string]bool)
			if len(changed) == 0 {
				continue
			}
			sort.Strings(changed)
			w.logger.Debug("change detected", "paths", len(changed))
			onChange(changed)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *TreeWatcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if (path != dir && w.skipDirs[d.Name()]) || w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil && !os.IsPermission(err) {
			return err
		}
		return nil
	})
}

func (w *TreeWatcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return w.skipDirs[filepath.Base(path)]
}
