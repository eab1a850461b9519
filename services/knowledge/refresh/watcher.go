// Copyright (C) 2026 CorpusGraph Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package refresh watches a scan root and triggers re-scans after the tree
// settles.
//
// Changes are debounced: a burst of writes during active editing collapses
// into one callback once the quiet period elapses. A refresh is always a
// full re-scan; the engine publishes immutable snapshots, never
// incremental mutations.
package refresh

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before the handler fires.
const DefaultDebounce = 2 * time.Second

// Change is one observed filesystem event.
type Change struct {
	// Path is the absolute path of the changed entry.
	Path string

	// Op describes the change ("create", "write", "remove", "rename").
	Op string

	// Time is when the change was observed.
	Time time.Time
}

// Handler receives one debounced batch of changes.
type Handler func(changes []Change)

// Config configures a Watcher.
type Config struct {
	// Root is the absolute directory to watch, recursively.
	Root string

	// Debounce is the quiet period. Zero uses DefaultDebounce.
	Debounce time.Duration

	// SkipDir reports whether a directory (given relative to Root, slash
	// separated) should not be watched. Nil watches everything. Wiring the
	// walker's exclusion policy here keeps excluded archive trees out of
	// the inotify watch set too.
	SkipDir func(rel string) bool

	// Logger for watch-level events. Nil uses slog.Default.
	Logger *slog.Logger
}

// Watcher is a debounced recursive directory watcher.
//
// # Thread Safety
//
// Run may be called once. The handler is invoked from Run's goroutine, one
// batch at a time.
type Watcher struct {
	cfg     Config
	handler Handler
}

// New creates a Watcher. The handler must be non-nil.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("refresh: handler required")
	}
	if !filepath.IsAbs(cfg.Root) {
		return nil, fmt.Errorf("refresh: root must be absolute: %q", cfg.Root)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Watcher{cfg: cfg, handler: handler}, nil
}

// Run watches until the context is cancelled.
//
// New directories created under the root are added to the watch set as
// their create events arrive. Watch errors are logged, not fatal: losing
// one event means at worst a delayed refresh.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("refresh: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.cfg.Root); err != nil {
		return err
	}

	var pending []Change
	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				// A new directory needs its own watch.
				w.maybeWatchDir(fsw, ev.Name)
			}
			pending = append(pending, Change{
				Path: ev.Name,
				Op:   opString(ev.Op),
				Time: time.Now(),
			})
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.cfg.Logger.Warn("watch error", "error", err)

		case <-timer.C:
			if len(pending) > 0 {
				batch := pending
				pending = nil
				w.handler(batch)
			}
		}
	}
}

// addTree registers watches for the root and every non-skipped directory.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skip(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.cfg.Logger.Warn("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// maybeWatchDir adds a watch when a created path is a non-skipped directory.
func (w *Watcher) maybeWatchDir(fsw *fsnotify.Watcher, path string) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}
	if w.skip(path) {
		return
	}
	if err := fsw.Add(path); err != nil {
		w.cfg.Logger.Warn("cannot watch directory", "path", path, "error", err)
	}
}

// skip applies the configured directory filter to an absolute path.
func (w *Watcher) skip(absPath string) bool {
	if w.cfg.SkipDir == nil {
		return false
	}
	rel, err := filepath.Rel(w.cfg.Root, absPath)
	if err != nil {
		return false
	}
	return w.cfg.SkipDir(filepath.ToSlash(rel))
}

// opString maps fsnotify bits to an ordered, single-name description.
func opString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "chmod"
	}
}
