// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sink provides the named, multi-destination log sinks that
// instrumented functions write to.
//
// # Architecture
//
// A Sink is a named fan-out over slog handlers:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                       Sink "main.compute"                    │
//	│  ┌─────────────┐  ┌────────────────────────┐  ┌───────────┐  │
//	│  │   console   │  │ main.compute            │  │  extras   │  │
//	│  │ (verbosity) │  │   .runtimedocs.log      │  │ Path/Use  │  │
//	│  └─────────────┘  └────────────────────────┘  └───────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// The file handler is always present. The console handler is attached only
// when Spec.Console is set. Extras are attached in order after the file.
//
// # Sink Table
//
// Sinks are kept in a process-wide table keyed by name. Opening a name that
// already exists returns the same Sink and appends the newly requested
// handlers to it, so decorating two functions that resolve to the same name
// makes every subsequent line appear once per attached handler. This mirrors
// how named loggers behave in most logging frameworks and is kept as is.
//
// # Basic Usage
//
//	s, err := sink.Open(sink.Spec{
//	    Name:       "main.compute",
//	    Dir:        "~/.runtimedocs",
//	    TimingInfo: true,
//	    Extras:     []sink.Extra{sink.Path("/tmp/all.log")},
//	})
//	if err != nil {
//	    return err
//	}
//	s.Info("calling [compute]")
//
// # Thread Safety
//
// The sink table and each Sink's handler list are protected by mutexes.
// Line handlers serialise their writes.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AleutianAI/runtimedocs/pkg/validation"
)

// DefaultSuffix is appended to the sink name to form the file name.
const DefaultSuffix = ".runtimedocs.log"

// =============================================================================
// Spec
// =============================================================================

// Spec describes the handlers to attach to a named sink.
type Spec struct {
	// Name identifies the sink in the table and names its file.
	// It must pass validation.ValidateSinkName.
	Name string

	// Dir is the directory of the sink file. Supports ~ expansion.
	// Default: "" (current directory)
	Dir string

	// Suffix is appended to Name to form the file name.
	// Default: DefaultSuffix
	Suffix string

	// TimingInfo prefixes each line with a timestamp.
	TimingInfo bool

	// Console attaches a console handler writing to it when non-nil.
	Console io.Writer

	// Extras are attached after the file handler, in order.
	Extras []Extra
}

// FilePath returns the path of the sink file described by s.
func (s Spec) FilePath() string {
	suffix := s.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return filepath.Join(ExpandPath(s.Dir), s.Name+suffix)
}

// =============================================================================
// Extra Handlers
// =============================================================================

// Extra is an additional destination attached to a sink.
type Extra interface {
	open(spec Spec) (slog.Handler, io.Closer, error)
}

type pathExtra string

func (p pathExtra) open(spec Spec) (slog.Handler, io.Closer, error) {
	f, err := openAppend(string(p))
	if err != nil {
		return nil, nil, err
	}
	return NewLineHandler(f, LineOptions{TimingInfo: spec.TimingInfo}), f, nil
}

type handlerExtra struct{ h slog.Handler }

func (e handlerExtra) open(Spec) (slog.Handler, io.Closer, error) {
	if e.h == nil {
		return nil, nil, errors.New("nil extra handler")
	}
	return e.h, nil, nil
}

type writerExtra struct{ w io.Writer }

func (e writerExtra) open(spec Spec) (slog.Handler, io.Closer, error) {
	if e.w == nil {
		return nil, nil, errors.New("nil extra writer")
	}
	return NewLineHandler(e.w, LineOptions{TimingInfo: spec.TimingInfo}), nil, nil
}

// Path materialises an extra append-mode file handler at path. The sink
// owns the file and closes it in CloseAll.
func Path(path string) Extra { return pathExtra(path) }

// Use attaches a pre-built handler as is.
func Use(h slog.Handler) Extra { return handlerExtra{h: h} }

// Writer attaches a line handler writing to w. The sink never closes w.
func Writer(w io.Writer) Extra { return writerExtra{w: w} }

// =============================================================================
// Sink
// =============================================================================

// Sink is a named set of log handlers.
type Sink struct {
	name string
	path string

	mu       sync.RWMutex
	handlers []slog.Handler
	closers  []io.Closer
}

// Name returns the sink name.
func (s *Sink) Name() string { return s.name }

// Path returns the path of the sink's primary file.
func (s *Sink) Path() string { return s.path }

// Handlers returns a snapshot of the attached handlers, in attachment order.
func (s *Sink) Handlers() []slog.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]slog.Handler(nil), s.handlers...)
}

// Logger returns a slog.Logger over the currently attached handlers.
// Handlers attached later are not seen by the returned logger.
func (s *Sink) Logger() *slog.Logger {
	return slog.New(Fanout(s.Handlers()...))
}

// Info writes msg at info level to every handler.
func (s *Sink) Info(msg string) error {
	return s.log(slog.LevelInfo, msg)
}

// Error writes msg at error level to every handler.
func (s *Sink) Error(msg string) error {
	return s.log(slog.LevelError, msg)
}

func (s *Sink) log(level slog.Level, msg string) error {
	ctx := context.Background()
	h := Fanout(s.Handlers()...)
	if !h.Enabled(ctx, level) {
		return nil
	}
	if err := h.Handle(ctx, slog.NewRecord(time.Now(), level, msg, 0)); err != nil {
		return fmt.Errorf("sink %s: %w", s.name, err)
	}
	return nil
}

func (s *Sink) attach(hs []slog.Handler, cs []io.Closer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, hs...)
	s.closers = append(s.closers, cs...)
}

func (s *Sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range s.closers {
		if f, ok := c.(*os.File); ok {
			if err := f.Sync(); err != nil {
				errs = append(errs, fmt.Errorf("sync %s: %w", f.Name(), err))
			}
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	s.closers = nil
	s.handlers = nil
	return errors.Join(errs...)
}

// =============================================================================
// Sink Table
// =============================================================================

var (
	table   = make(map[string]*Sink)
	tableMu sync.Mutex
)

// Open returns the sink named spec.Name, creating it on first use, and
// attaches the handlers described by spec.
//
// # Description
//
// Handlers are built in this order: console (if spec.Console is set), the
// sink file (append mode, directory created with 0750), then each extra.
// When the name already exists the new handlers are appended to the
// existing sink; its primary path stays the one from the first Open.
//
// # Inputs
//
//   - spec: Sink description. Name must be a valid sink name.
//
// # Outputs
//
//   - *Sink: The named sink.
//   - error: Invalid name, or a destination that could not be opened. No
//     handler is attached on error.
func Open(spec Spec) (*Sink, error) {
	if err := validation.ValidateSinkName(spec.Name); err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}

	var (
		handlers []slog.Handler
		closers  []io.Closer
	)
	fail := func(err error) (*Sink, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, fmt.Errorf("open sink %s: %w", spec.Name, err)
	}

	if spec.Console != nil {
		handlers = append(handlers, NewConsoleHandler(spec.Console, spec.TimingInfo))
	}

	path := spec.FilePath()
	f, err := openAppend(path)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, f)
	handlers = append(handlers, NewLineHandler(f, LineOptions{TimingInfo: spec.TimingInfo}))

	for i, extra := range spec.Extras {
		if extra == nil {
			return fail(fmt.Errorf("extra handler %d is nil", i))
		}
		h, c, err := extra.open(spec)
		if err != nil {
			return fail(fmt.Errorf("extra handler %d: %w", i, err))
		}
		if c != nil {
			closers = append(closers, c)
		}
		handlers = append(handlers, h)
	}

	tableMu.Lock()
	defer tableMu.Unlock()

	s, ok := table[spec.Name]
	if !ok {
		s = &Sink{name: spec.Name, path: path}
		table[spec.Name] = s
	}
	s.attach(handlers, closers)
	return s, nil
}

// Lookup returns the sink registered under name.
func Lookup(name string) (*Sink, bool) {
	tableMu.Lock()
	defer tableMu.Unlock()
	s, ok := table[name]
	return s, ok
}

// Names returns the names of all open sinks.
func Names() []string {
	tableMu.Lock()
	defer tableMu.Unlock()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names
}

// CloseAll closes every file owned by a sink and empties the table.
//
// Instrumented functions never close their sinks; this exists for tests and
// for process shutdown.
func CloseAll() error {
	tableMu.Lock()
	defer tableMu.Unlock()

	var errs []error
	for name, s := range table {
		if err := s.close(); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", name, err))
		}
		delete(table, name)
	}
	return errors.Join(errs...)
}

// =============================================================================
// Helper Functions
// =============================================================================

// openAppend opens path for appending, creating it and its directory.
func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ExpandPath expands ~ to the user's home directory.
//
// Examples:
//   - "~/.runtimedocs" -> "/home/user/.runtimedocs"
//   - "/var/log" -> "/var/log" (unchanged)
//   - "relative/path" -> "relative/path" (unchanged)
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
