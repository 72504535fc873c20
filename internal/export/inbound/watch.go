package inbound

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
)

const DefaultDebounce = 2 * time.Second

// RunFunc runs one export of the watched file.
type RunFunc func(ctx context.Context, path string) entity.ExportResult

// Watcher triggers an export whenever the watched workbook is written.
// Bursts of writes within the debounce window produce a single run.
type Watcher struct {
	path     string
	debounce time.Duration
	run      RunFunc
	onResult func(entity.ExportResult)
}

func NewWatcher(path string, debounce time.Duration, run RunFunc, onResult func(entity.ExportResult)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: path, debounce: debounce, run: run, onResult: onResult}
}

// Watch blocks until ctx is done. Editors often replace files instead of
// writing them in place, so the parent directory is watched.
func (w *Watcher) Watch(ctx context.Context) error {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return errors.Wrap(err, "resolve watched path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(target))
	}

	slog.InfoContext(ctx, "watching workbook", "path", target, "debounce", w.debounce.String())

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "file watcher error", "error", err)

		case <-timer.C:
			result := w.run(ctx, target)
			if w.onResult != nil {
				w.onResult(result)
			}
		}
	}
}
