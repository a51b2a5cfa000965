// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import "strings"

// LineKind classifies one line of a runtimedocs log.
type LineKind int

const (
	KindPlain     LineKind = iota // free text, stack traces, blank lines
	KindBanner                    // the "####" call separator
	KindRule                      // a "----" section separator
	KindHeader                    // "calling [f] declared inside package [p]"
	KindMeta                      // call id, caller name, host
	KindSignature                 // declared / called signature
	KindCount                     // "Number of ... parameters"
	KindField                     // tab-indented record lines
	KindSuccess                   // "[f] ran successfully in ..."
	KindException                 // "!!!EXCEPTION!!! ..."
)

// TimestampLayout is the layout of the optional per-line timestamp.
const TimestampLayout = "2006-01-02 15:04:05,000"

const timestampSep = ":  #"

// SplitLine separates a log line into its timestamp (possibly empty) and
// message. Lines without the "#" marker are continuation lines of a
// multi-line message and are returned whole with ok false.
func SplitLine(line string) (ts, msg string, ok bool) {
	n := len(TimestampLayout)
	if len(line) >= n+len(timestampSep) && line[n:n+len(timestampSep)] == timestampSep && line[4] == '-' {
		return line[:n], line[n+len(timestampSep):], true
	}
	if strings.HasPrefix(line, "#") {
		return "", line[1:], true
	}
	return "", line, false
}

// Classify returns the kind of a message (a line with its prefix removed).
func Classify(msg string) LineKind {
	switch {
	case msg == "":
		return KindPlain
	case strings.Trim(msg, "#") == "":
		return KindBanner
	case strings.Trim(msg, "-") == "":
		return KindRule
	case strings.HasPrefix(msg, "!!!EXCEPTION!!!"):
		return KindException
	case strings.HasPrefix(msg, "calling ["):
		return KindHeader
	case strings.HasPrefix(msg, "call id:"),
		strings.HasPrefix(msg, "caller name:"),
		strings.HasPrefix(msg, "ran inside:"):
		return KindMeta
	case strings.HasPrefix(msg, "declared signature"),
		strings.HasPrefix(msg, "called   signature"):
		return KindSignature
	case strings.HasPrefix(msg, "Number of "):
		return KindCount
	case strings.HasPrefix(msg, "\t"):
		return KindField
	case strings.Contains(msg, "] ran successfully in ["):
		return KindSuccess
	default:
		return KindPlain
	}
}

// RenderMessage styles a message according to its kind.
func RenderMessage(msg string) string {
	switch Classify(msg) {
	case KindBanner, KindHeader:
		return Styles.Banner.Render(msg)
	case KindRule:
		return Styles.Rule.Render(msg)
	case KindMeta, KindSignature, KindCount:
		return Styles.Subtitle.Render(msg)
	case KindField:
		if key, value, found := strings.Cut(msg, " = "); found {
			return Styles.FieldKey.Render(key) + " = " + value
		}
		return Styles.FieldKey.Render(msg)
	case KindSuccess:
		return Styles.Success.Render(msg)
	case KindException:
		return Styles.Error.Bold(true).Render(msg)
	default:
		return msg
	}
}

// RenderLine styles a full log line, keeping its timestamp and marker.
// Continuation lines inherit the error style when inException is true.
func RenderLine(line string, inException bool) string {
	ts, msg, ok := SplitLine(line)
	if !ok {
		if inException {
			return Styles.Error.Render(line)
		}
		return line
	}
	if ts == "" {
		return "#" + RenderMessage(msg)
	}
	return Styles.Timestamp.Render(ts) + timestampSep + RenderMessage(msg)
}
