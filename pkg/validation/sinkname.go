// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for names that end
// up in file paths.
//
// Sink names come from function identities and user overrides and become
// file names under the log directory. Validating them prevents path traversal
// and keeps the files portable across operating systems.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxSinkNameLen bounds the length of a sink name.
const MaxSinkNameLen = 200

// ErrEmptySinkName is returned for names that are empty after trimming.
var ErrEmptySinkName = errors.New("sink name cannot be empty")

// sinkNamePattern matches valid sink names.
// Allows: letters, digits, underscore, dot, hyphen.
// Must not start with a dot or hyphen.
var sinkNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)

// unsafeChars matches every character not allowed anywhere in a sink name.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// ValidateSinkName validates a sink name before it is used as a file name.
//
// Valid names:
//   - 1-200 characters
//   - Letters, digits, underscore
//   - Dots (.) for scoped names like main.compute
//   - Hyphens (-)
//   - Not starting with a dot or hyphen
//
// Example:
//
//	if err := validation.ValidateSinkName(name); err != nil {
//	    return nil, fmt.Errorf("open sink: %w", err)
//	}
//	// Safe to join with the log directory
func ValidateSinkName(name string) error {
	if name == "" {
		return ErrEmptySinkName
	}
	if len(name) > MaxSinkNameLen {
		return fmt.Errorf("sink name too long: %d characters (max %d)", len(name), MaxSinkNameLen)
	}
	if !sinkNamePattern.MatchString(name) {
		return fmt.Errorf("invalid sink name format: %q (letters, digits, '_', '.', '-' only, not starting with '.' or '-')", name)
	}
	return nil
}

// SanitizeSinkName turns an arbitrary identity into a valid sink name.
//
// Surrounding whitespace is trimmed, every unsafe character becomes '_',
// a leading dot or hyphen is replaced the same way and the result is clipped
// to MaxSinkNameLen. Only an empty input fails.
//
//	name, err := validation.SanitizeSinkName("main.(*Server).Handle")
//	// name == "main.__Server_.Handle"
func SanitizeSinkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptySinkName
	}

	safe := unsafeChars.ReplaceAllString(name, "_")
	if safe[0] == '.' || safe[0] == '-' {
		safe = "_" + safe[1:]
	}
	if len(safe) > MaxSinkNameLen {
		safe = safe[:MaxSinkNameLen]
	}

	if err := ValidateSinkName(safe); err != nil {
		return "", err
	}
	return safe, nil
}
