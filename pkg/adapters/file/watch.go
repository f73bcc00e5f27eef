package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch signals on the returned channel whenever the survey file changes.
// The parent directory is watched because editors often replace files
// by rename. Bursts of events are collapsed into one signal.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs, err := filepath.Abs(l.path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan struct{}, 1)
	go l.watchLoop(ctx, watcher, abs, out)
	return out, nil
}

func (l *Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, out chan<- struct{}) {
	defer close(out)
	defer watcher.Close()

	// Stopped timers deliver no stale tick (Go 1.23 timer semantics).
	timer := time.NewTimer(l.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			l.logger.Debug("survey file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(l.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("survey watcher error", "err", err)

		case <-timer.C:
			select {
			case out <- struct{}{}:
			default:
				// a reload is already pending
			}
		}
	}
}
