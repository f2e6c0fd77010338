package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// ReloadEvent reports a change to the watched config file.
type ReloadEvent struct {
	Path string
	Op   fsnotify.Op
}

// Watcher reports changes to one config file. It watches the parent
// directory so that editors replacing the file by rename are seen.
type Watcher struct {
	path   string
	logger *slog.Logger
	events chan ReloadEvent
}

// NewWatcher returns a Watcher for the file at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		path:   filepath.Clean(path),
		logger: logger,
		events: make(chan ReloadEvent, 16),
	}
}

// Events returns the change stream. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan ReloadEvent {
	return w.events
}

// Start begins watching until ctx is done. When the config directory does
// not exist yet, its parent is watched until the directory is created.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf(messages.ConfigWatchFailedFmt, w.path, err)
	}
	dir := filepath.Dir(w.path)
	target := dir
	pending := false
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		target = filepath.Dir(dir)
		pending = true
	}
	if err := fsw.Add(target); err != nil {
		_ = fsw.Close()
		return fmt.Errorf(messages.ConfigWatchFailedFmt, w.path, err)
	}

	go func() {
		defer fsw.Close()
		defer close(w.events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				name := filepath.Clean(ev.Name)
				if pending && name == dir && ev.Op&fsnotify.Create != 0 {
					if err := fsw.Add(dir); err != nil {
						w.logger.Error("config watcher error", "error", err)
						continue
					}
					pending = false
					w.logger.Debug("config directory created", "path", dir)
					// The file may have been written before the watch was added.
					if _, err := os.Stat(w.path); err == nil {
						w.emit(ReloadEvent{Path: w.path, Op: fsnotify.Create})
					}
					continue
				}
				if name != w.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				w.emit(ReloadEvent{Path: ev.Name, Op: ev.Op})
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Error("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (w *Watcher) emit(ev ReloadEvent) {
	select {
	case w.events <- ev:
	default:
	}
	w.logger.Debug("config file changed", "path", ev.Path, "op", ev.Op.String())
}

// Live holds the current config and swaps it atomically on reload.
type Live struct {
	path   string
	logger *slog.Logger
	cur    atomic.Pointer[Config]
}

// NewLive returns a Live value seeded with initial.
func NewLive(path string, initial Config, logger *slog.Logger) *Live {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Live{path: path, logger: logger.With("component", "config")}
	l.cur.Store(&initial)
	return l
}

// Config returns the current config.
func (l *Live) Config() Config {
	return *l.cur.Load()
}

// ForceUploadAndMonitor reports the current tasks.force_upload_and_monitor.
func (l *Live) ForceUploadAndMonitor() bool {
	return l.cur.Load().Tasks.ForceUploadAndMonitor
}

// Reload re-reads the file. An invalid file keeps the previous config.
func (l *Live) Reload() error {
	cfg, err := Load(l.path)
	if err != nil {
		return fmt.Errorf(messages.ConfigReloadFailedFmt, l.path, err)
	}
	l.cur.Store(&cfg)
	return nil
}

// Watch reloads on every change to the file until ctx is done. onReload,
// when set, is called after each successful reload.
func (l *Live) Watch(ctx context.Context, onReload func(Config)) error {
	w := NewWatcher(l.path, l.logger)
	if err := w.Start(ctx); err != nil {
		return err
	}
	go func() {
		for range w.Events() {
			if err := l.Reload(); err != nil {
				l.logger.Warn("config reload rejected", "error", err)
				continue
			}
			l.logger.Info("config reloaded", "path", l.path)
			if onReload != nil {
				onReload(l.Config())
			}
		}
	}()
	return nil
}
