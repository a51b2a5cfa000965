// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package viewer finds, prints and follows runtimedocs sink files.
package viewer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/runtimedocs/pkg/sink"
	"github.com/AleutianAI/runtimedocs/pkg/ux"
)

// ErrNotFound is returned when a sink name or path does not resolve to a
// file.
var ErrNotFound = errors.New("sink file not found")

// maxLineSize bounds one scanned line. Stack traces are written as a single
// message but span many lines, so single lines stay short.
const maxLineSize = 1024 * 1024

// =============================================================================
// Discovery
// =============================================================================

// LogFile describes one sink file on disk.
type LogFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Discover lists the sink files in dir, sorted by name. An empty suffix
// selects sink.DefaultSuffix.
func Discover(dir, suffix string) ([]LogFile, error) {
	if suffix == "" {
		suffix = sink.DefaultSuffix
	}
	dir = sink.ExpandPath(dir)
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) || e.Name() == suffix {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFile{
			Name:    strings.TrimSuffix(e.Name(), suffix),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ResolvePath turns a command line argument into a sink file path. The
// argument is used as is when it names an existing file, otherwise it is
// taken as a sink name inside dir.
func ResolvePath(arg, dir, suffix string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}
	if info, err := os.Stat(sink.ExpandPath(arg)); err == nil && !info.IsDir() {
		return sink.ExpandPath(arg), nil
	}

	path := sink.Spec{Name: arg, Dir: dir, Suffix: suffix}.FilePath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	return path, nil
}

// NameOf returns the sink name of a sink file path.
func NameOf(path, suffix string) string {
	if suffix == "" {
		suffix = sink.DefaultSuffix
	}
	return strings.TrimSuffix(filepath.Base(path), suffix)
}

// =============================================================================
// Reading
// =============================================================================

// Tail returns the last n lines of the file at path. n <= 0 returns every
// line.
func Tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := newScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// Render copies r to w line by line, styling each line when styled is set.
func Render(r io.Reader, w io.Writer, styled bool) error {
	st := &styler{styled: styled}
	sc := newScanner(r)
	for sc.Scan() {
		if _, err := io.WriteString(w, st.render(sc.Text())+"\n"); err != nil {
			return err
		}
	}
	return sc.Err()
}

// RenderLines writes already split lines to w.
func RenderLines(lines []string, w io.Writer, styled bool) error {
	st := &styler{styled: styled}
	for _, l := range lines {
		if _, err := io.WriteString(w, st.render(l)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

// styler tracks whether the lines being rendered belong to a failure
// report. Unmarked continuation lines (stack frames, wrapped error chains)
// inherit the error style until the next call banner.
type styler struct {
	styled      bool
	inException bool
}

func (s *styler) render(line string) string {
	if _, msg, ok := ux.SplitLine(line); ok {
		switch ux.Classify(msg) {
		case ux.KindException:
			s.inException = true
		case ux.KindBanner:
			s.inException = false
		}
	}
	if !s.styled {
		return line
	}
	return ux.RenderLine(line, s.inException)
}
