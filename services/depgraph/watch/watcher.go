// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-triggers analysis when a graph file changes on disk.
//
// The parent directory is watched rather than the file itself so that
// editors and generators that replace the file atomically (write to a
// temporary name, then rename) keep being observed.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNilHandler is returned by New when no handler is supplied.
var ErrNilHandler = errors.New("watch: nil handler")

// Op is the kind of file system change.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

// String returns the string representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one debounced notification about the watched file.
type Change struct {
	// Path is the absolute path of the watched file.
	Path string

	// Op is the last operation seen in the debounce window.
	Op Op

	// Events is how many raw events were coalesced into this change.
	Events int

	// Time is when the last event was seen.
	Time time.Time
}

// Handler receives debounced changes. It is always called from a single
// goroutine, so a slow handler delays later notifications instead of
// overlapping with them.
type Handler func(ctx context.Context, change Change)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long the file must stay quiet before the handler runs.
	// Default: 200ms.
	Debounce time.Duration

	// Logger receives watcher errors. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{Debounce: 200 * time.Millisecond}
}

// Watcher watches a single file with debouncing.
//
// # Thread Safety
//
// Start and Stop are safe for concurrent use.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.Mutex
	watching bool
}

// New creates a watcher for path. Call Start to begin watching.
//
// # Inputs
//
//   - path: The file to watch. Its directory must exist.
//   - handler: Called with each debounced change. Must not be nil.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready-to-start watcher.
//   - error: ErrNilHandler, or an fsnotify error.
func New(path string, handler Handler, opts *Options) (*Watcher, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	o := DefaultOptions()
	if opts != nil {
		if opts.Debounce > 0 {
			o.Debounce = opts.Debounce
		}
		o.Logger = opts.Logger
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		handler:  handler,
		debounce: o.Debounce,
		logger:   o.Logger.With(slog.String("component", "watch"), slog.String("path", abs)),
		changes:  make(chan Change, 64),
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Start begins watching. It returns once the watch is registered; events
// are processed in the background until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.watching = true

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for the background goroutines.
// A pending debounced change is delivered before Stop returns.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("closing watcher", slog.String("error", err.Error()))
		}
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			change := Change{Path: w.path, Op: convertOp(event.Op), Events: 1, Time: time.Now()}
			select {
			case w.changes <- change:
			case <-w.done:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

// debounceLoop coalesces changes and calls the handler once the file has
// been quiet for the debounce window.
func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()

	var pending *Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if pending != nil {
			w.handler(ctx, *pending)
			pending = nil
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			if pending != nil {
				change.Events += pending.Events
			}
			pending = &change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			flush()
		}
	}
}
