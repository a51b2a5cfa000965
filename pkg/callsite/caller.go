// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package callsite

import (
	"os"
	"runtime"
	"strings"
)

// maxStackDepth bounds the stack walk. Instrumented calls are rarely more
// than a few dozen frames away from the frame of interest.
const maxStackDepth = 64

// host is resolved once at process start.
var host = resolveHost()

// Hostname returns the host identifier resolved at process start.
func Hostname() string {
	return host
}

func resolveHost() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return UnknownName
	}
	return name
}

// Caller returns the identity of a frame on the current goroutine's stack.
//
// # Description
//
// Walks outward from the function that called Caller. Frames that belong to
// the Go runtime or the reflect package, and frames whose function name
// starts with any of the ignore prefixes, are transparent: they are neither
// returned nor counted. Of the remaining frames, depth selects how many to
// step over, so depth 0 is the nearest visible frame.
//
// Inlined functions are reported as separate frames, matching what a reader
// sees in source.
//
// # Inputs
//
//   - depth: number of visible frames to step over (negative is treated as 0)
//   - ignore: function name prefixes treated as transparent
//
// # Outputs
//
//   - Identity: the resolved frame, with File and Line set. When the walk
//     runs off the stack, Name is UnknownName.
//
// # Example
//
//	func helper() string { return callsite.Caller(1).String() }
//	func Run() { helper() } // helper returns "pkg.Run"
func Caller(depth int, ignore ...string) Identity {
	if depth < 0 {
		depth = 0
	}

	pcs := make([]uintptr, maxStackDepth)
	// Skip runtime.Callers and Caller itself.
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !transparent(frame.Function, ignore) {
			if depth == 0 {
				id := FromFunctionName(frame.Function)
				id.File = frame.File
				id.Line = frame.Line
				id.Resolved = true
				return id
			}
			depth--
		}
		if !more {
			break
		}
	}

	return Identity{Name: UnknownName}
}

func transparent(function string, ignore []string) bool {
	if strings.HasPrefix(function, "runtime.") || strings.HasPrefix(function, "reflect.") {
		return true
	}
	for _, prefix := range ignore {
		if prefix != "" && strings.HasPrefix(function, prefix) {
			return true
		}
	}
	return false
}
