package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"markbook/internal/logger"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher invokes a callback whenever the workbook file changes on disk.
// The parent directory is watched rather than the file itself, so editors
// that save through an atomic rename still trigger; event bursts coalesce
// through a short debounce before the callback fires once.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func()
}

func NewWatcher(path string, onChange func()) (*Watcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("workbook watcher requires a path")
	}
	if onChange == nil {
		return nil, fmt.Errorf("workbook watcher requires a callback")
	}
	return &Watcher{path: path, debounce: defaultDebounce, onChange: onChange}, nil
}

// Run blocks until ctx is done. Watcher errors are logged and watching
// continues; only failing to establish the watch is fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start workbook watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Infof("[watch] watching %s for workbook changes", w.path)

	target := filepath.Clean(w.path)
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()
		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("[watch] watcher error: %v", werr)
		}
	}
}
