package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/pbrview/internal/logger"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher starts watching path. The containing directory is watched so
// editors that save by rename are seen too.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, fsw: fsw, debounce: DefaultDebounce}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run reloads the file after each change and passes every valid config to
// fn. Invalid files are logged and skipped, so the last good config stays in
// effect. Run blocks until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) error {
	defer w.Close()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.Debug("config changed", zap.String("path", w.path), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			cfg, err := LoadFile(w.path)
			if err != nil {
				logger.Error("config reload rejected, keeping previous settings",
					zap.String("path", w.path), zap.Error(err))
				continue
			}
			logger.Info("config reloaded", zap.String("path", w.path))
			fn(cfg)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// Close stops watching. Run calls it on return; call it directly only for a
// watcher that is never run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
