package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"arcctl/lib/model"
)

const watchDebounce = 200 * time.Millisecond

// WatchPresets calls fn with the preset list each time the file at path is
// rewritten and still loads cleanly. It watches the directory so editors that
// replace the file by rename are seen. Blocks until ctx is done.
func WatchPresets(ctx context.Context, path string, fn func([]model.Preset)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}
	log.Infow("watching presets", "path", abs)

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watch error", "err", err)

		case <-debounce.C:
			c, err := Load(abs)
			if err != nil {
				log.Warnw("config reload rejected", "path", abs, "err", err)
				continue
			}
			log.Infow("presets reloaded", "path", abs, "count", len(c.Presets))
			fn(c.Presets)
		}
	}
}
