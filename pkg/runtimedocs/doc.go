// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runtimedocs instruments functions so that every call documents
// itself in a per-function log.
//
// A wrapped function behaves exactly like the original: same type, same
// results, same panics. Around each call it records
//
//   - the function name, declaring package and a unique call id
//   - the calling function and the host it ran on
//   - the declared signature next to the dynamic types actually passed
//   - a description of every argument and result, produced by the parser
//     registry (package parsers)
//   - the elapsed time on success, or the panic value and stack, or the
//     returned error and its wrap chain on failure
//
// # Basic Usage
//
//	docs := runtimedocs.MustNew(runtimedocs.DefaultConfig())
//
//	var add = runtimedocs.Wrap(docs, func(a, b int) int { return a + b },
//	    runtimedocs.WithName("add"), runtimedocs.WithParams("a", "b"))
//
//	add(1, 2) // appends to ./runtimedocs.add.runtimedocs.log
//
// # Named Arguments
//
// A function whose last parameter is ...Kwarg has those arguments logged as
// key word parameters:
//
//	func Render(tmpl string, kw ...runtimedocs.Kwarg) string
//
//	render(tmpl, runtimedocs.Kw("width", 80))
//
// # Disabling
//
// Setting DISABLE_RUNTIMEDOCS=true in the environment (or Disabled in the
// settings file named by RUNTIMEDOCS_CONFIG) makes Wrap return the original
// function and create no log file. Config.ForceEnable overrides it for one
// decorator.
//
// # Failures
//
// A panic in the wrapped function is logged at error level and re-raised
// with the same value. A non-nil error returned as the last result is
// logged the same way and returned unchanged. A panic raised while
// describing arguments (a faulty custom parser) is not recovered and aborts
// the call before the function runs.
package runtimedocs
