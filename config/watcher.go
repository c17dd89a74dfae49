package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/pathsmoother/logging"
	"go.viam.com/pathsmoother/smoothing"
)

// A Watcher reloads a configuration file when it changes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  logging.Logger
}

// NewWatcher starts watching filePath. The containing directory is watched so that editors that
// replace the file are noticed too.
func NewWatcher(filePath string, logger logging.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path := filepath.Clean(filePath)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		utils.UncheckedError(watcher.Close())
		return nil, errors.Wrapf(err, "cannot watch %q", filePath)
	}
	return &Watcher{path: path, watcher: watcher, logger: logger}, nil
}

// Run calls onChange with every valid configuration read after a change until ctx is done or the
// watcher is closed. Invalid configurations are logged and skipped.
func (w *Watcher) Run(ctx context.Context, onChange func(*smoothing.Config)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Read(w.path, w.logger)
			if err != nil {
				w.logger.Warnw("ignoring invalid config change", "path", w.path, "error", err)
				continue
			}
			w.logger.Infow("config reloaded", "path", w.path)
			onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "path", w.path, "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch runs a Watcher on filePath until ctx is done.
func Watch(ctx context.Context, filePath string, logger logging.Logger, onChange func(*smoothing.Config)) error {
	w, err := NewWatcher(filePath, logger)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(w.Close)
	w.Run(ctx, onChange)
	return nil
}
