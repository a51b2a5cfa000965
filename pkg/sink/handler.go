// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/AleutianAI/runtimedocs/pkg/ux"
)

// TimestampLayout is the layout of the per-line timestamp prefix.
const TimestampLayout = ux.TimestampLayout

// =============================================================================
// Line Handler
// =============================================================================

// LineOptions configures a LineHandler.
type LineOptions struct {
	// TimingInfo prefixes every line with the record time:
	//
	//	2024-03-01 12:30:00,123:  #message
	//
	// When false lines are written as "#message".
	TimingInfo bool

	// Styled colours the message with the ux palette. Only the console
	// handler sets it, and only when its writer is a terminal.
	Styled bool

	// Level is the minimum level written. Default: slog.LevelInfo.
	Level slog.Leveler
}

// LineHandler is a slog.Handler writing one human-readable line per record.
//
// Attributes are appended to the message as " key=value" pairs; groups
// prefix attribute keys. Writes are serialised with a mutex shared by all
// handlers derived through WithAttrs and WithGroup, so concurrent records
// never interleave within a line.
type LineHandler struct {
	w      io.Writer
	opts   LineOptions
	mu     *sync.Mutex
	attrs  string
	prefix string
}

// NewLineHandler creates a LineHandler writing to w.
func NewLineHandler(w io.Writer, opts LineOptions) *LineHandler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	return &LineHandler{w: w, opts: opts, mu: &sync.Mutex{}}
}

// NewConsoleHandler creates the console handler: a LineHandler whose output
// is styled when w is a terminal under the current ux colour mode.
func NewConsoleHandler(w io.Writer, timingInfo bool) *LineHandler {
	return NewLineHandler(w, LineOptions{
		TimingInfo: timingInfo,
		Styled:     ux.ShouldStyle(w),
	})
}

// Enabled reports whether level reaches the handler's minimum level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes the record.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})

	line := b.String()
	if h.opts.TimingInfo {
		line = r.Time.Format(TimestampLayout) + ":  #" + line
	} else {
		line = "#" + line
	}

	if h.opts.Styled {
		line = styleLines(line, r.Level >= slog.LevelError)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

// WithAttrs returns a handler that appends attrs to every line.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

// WithGroup returns a handler that prefixes attribute keys with name.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, group, ga)
		}
		return
	}
	b.WriteString(" ")
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteString("=")
	b.WriteString(a.Value.String())
}

// styleLines renders a possibly multi-line message. Continuation lines of an
// error record keep the error colour.
func styleLines(msg string, isError bool) string {
	lines := strings.Split(msg, "\n")
	for i, l := range lines {
		lines[i] = ux.RenderLine(l, isError)
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// Fan-out Handler
// =============================================================================

// fanout sends log records to multiple slog handlers.
//
// Unlike a first-error-wins chain, every enabled handler receives the record
// and the errors are joined.
type fanout struct {
	handlers []slog.Handler
}

// Fanout returns a handler that forwards records to every handler in hs.
func Fanout(hs ...slog.Handler) slog.Handler {
	return &fanout{handlers: append([]slog.Handler(nil), hs...)}
}

// Enabled returns true if any handler is enabled for the level.
func (h *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WithAttrs returns a new handler with additional attributes.
func (h *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &fanout{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &fanout{handlers: handlers}
}
