package corpus

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

// DefaultDebounce collects bursts of writes, such as a copied directory of
// PDFs, into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls onChange after corpus files under the watched paths change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]bool // watched files whose parent dir is watched only for them
	dirs     map[string]bool // recursively watched directories
	debounce time.Duration
	logger   *slog.Logger
	onChange func(ctx context.Context)
}

// NewWatcher watches each path. Directories are watched recursively, except
// hidden ones; a file path watches its parent directory for that file only.
func NewWatcher(paths []string, debounce time.Duration, logger *slog.Logger, onChange func(ctx context.Context)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
	}
	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if !info.IsDir() {
		w.files[filepath.Clean(path)] = true
		return w.fsw.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.dirs[filepath.Clean(p)] = true
		return w.fsw.Add(p)
	})
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						w.logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("corpus file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("corpus watcher error", "error", err)
		case <-timer.C:
			w.onChange(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return !strings.HasPrefix(info.Name(), ".")
	}
	return Watched(name)
}
