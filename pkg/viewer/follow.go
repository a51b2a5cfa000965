// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// FollowOptions configures Follow.
type FollowOptions struct {
	// Styled renders lines with the ux styles.
	Styled bool

	// Prefix is written before every line, e.g. "[calc.Add] ".
	Prefix string

	// FromStart prints the existing content before following. Otherwise
	// only lines appended after Follow started are printed.
	FromStart bool
}

// Follow writes the lines appended to the file at path to w until ctx is
// done.
//
// # Description
//
// The file's directory is watched with fsnotify. Write events drain the
// new bytes; only complete lines are written, a trailing partial line is
// held until its newline arrives. A file that shrinks is read again from
// the start, and a file that is recreated is reopened.
//
// # Inputs
//
//   - ctx: Cancellation. Follow returns nil when ctx is done.
//   - path: The sink file. It must exist when Follow starts.
//   - w: Destination. Each line is written with a single Write call.
//   - opts: Rendering options.
//
// # Outputs
//
//   - error: The file could not be opened or watched, or w failed.
func Follow(ctx context.Context, path string, w io.Writer, opts FollowOptions) error {
	t, err := newTailer(path, w, opts)
	if err != nil {
		return err
	}
	defer t.close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", t.path, err)
	}

	if err := t.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				if err := t.reopen(); err != nil {
					return err
				}
			case event.Has(fsnotify.Write):
			default:
				continue
			}
			if err := t.drain(); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", t.path, err)
		}
	}
}

// FollowAll follows every path concurrently, writing to a shared w. With
// more than one path each line is prefixed with its sink name. The first
// failure cancels the others.
func FollowAll(ctx context.Context, paths []string, w io.Writer, styled bool, suffix string) error {
	if len(paths) == 0 {
		return errors.New("nothing to follow")
	}

	shared := &lockedWriter{w: w}
	g, gCtx := errgroup.WithContext(ctx)

	for _, path := range paths {
		path := path
		opts := FollowOptions{Styled: styled}
		if len(paths) > 1 {
			opts.Prefix = "[" + NameOf(path, suffix) + "] "
		}
		g.Go(func() error {
			return Follow(gCtx, path, shared, opts)
		})
	}
	return g.Wait()
}

// =============================================================================
// Tailer
// =============================================================================

type tailer struct {
	path    string
	f       *os.File
	offset  int64
	pending []byte
	w       io.Writer
	prefix  string
	st      *styler
}

func newTailer(path string, w io.Writer, opts FollowOptions) (*tailer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	t := &tailer{
		path:   filepath.Clean(abs),
		f:      f,
		w:      w,
		prefix: opts.Prefix,
		st:     &styler{styled: opts.Styled},
	}
	if !opts.FromStart {
		if t.offset, err = f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return nil, err
		}
	}
	return t, nil
}

func (t *tailer) reopen() error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", t.path, err)
	}
	t.f.Close()
	t.f, t.offset, t.pending = f, 0, nil
	return nil
}

// drain reads everything past the current offset and emits complete lines.
func (t *tailer) drain() error {
	info, err := t.f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < t.offset {
		t.offset, t.pending = 0, nil
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := t.f.ReadAt(buf, t.offset)
		if n > 0 {
			t.offset += int64(n)
			t.pending = append(t.pending, buf[:n]...)
			if werr := t.emit(); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (t *tailer) emit() error {
	for {
		i := bytes.IndexByte(t.pending, '\n')
		if i < 0 {
			return nil
		}
		line := string(t.pending[:i])
		t.pending = t.pending[i+1:]

		if _, err := io.WriteString(t.w, t.prefix+t.st.render(line)+"\n"); err != nil {
			return err
		}
	}
}

func (t *tailer) close() {
	t.f.Close()
}

// lockedWriter serializes writes from concurrent followers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
