package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/m5audio/micgen/logging"
)

const defaultWatchSettle = 100 * time.Millisecond

// watch calls onChange every time the file at path is written, created or replaced, until ctx is
// done. The parent directory is watched so editors that save by renaming are picked up. Events
// arriving within settle of each other trigger a single call, and calls never overlap.
func watch(ctx context.Context, path string, settle time.Duration, logger logging.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Debugw("failed to close watcher", "error", err)
		}
	}()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "could not watch %s", path)
	}

	var mu sync.Mutex
	changed := func() {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		onChange()
	}
	debounced := debounce.New(settle)

	for {
		select {
		case <-ctx.Done():
			// wait out a regeneration that is already running
			mu.Lock()
			mu.Unlock() //nolint:staticcheck
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugw("configuration changed", "path", path, "op", event.Op.String())
			debounced(changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("watch error", "path", path, "error", err)
		}
	}
}
