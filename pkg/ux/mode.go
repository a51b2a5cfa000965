// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// ColorMode controls whether output is styled.
type ColorMode string

const (
	// ColorAuto styles output only when the destination is a terminal
	ColorAuto ColorMode = "auto"

	// ColorAlways styles output regardless of the destination
	ColorAlways ColorMode = "always"

	// ColorNever writes plain text suitable for files and scripting
	ColorNever ColorMode = "never"
)

// EnvColorMode names the environment variable read by InitColorMode.
const EnvColorMode = "RUNTIMEDOCS_COLOR"

var (
	currentMode = ColorAuto
	modeMu      sync.RWMutex
)

// GetColorMode returns the current colour mode.
func GetColorMode() ColorMode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetColorMode updates the current colour mode.
func SetColorMode(m ColorMode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseColorMode converts a string to ColorMode. Unknown values map to
// ColorAuto.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always", "on", "yes", "true", "1":
		return ColorAlways
	case "never", "off", "no", "false", "0", "plain":
		return ColorNever
	default:
		return ColorAuto
	}
}

// InitColorMode initializes the colour mode from the environment. NO_COLOR
// wins over RUNTIMEDOCS_COLOR.
func InitColorMode() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		SetColorMode(ColorNever)
		return
	}
	if env := os.Getenv(EnvColorMode); env != "" {
		SetColorMode(ParseColorMode(env))
	}
}

// ShouldStyle reports whether output written to w should be styled under the
// current colour mode.
func ShouldStyle(w io.Writer) bool {
	switch GetColorMode() {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return IsTerminal(w)
	}
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
