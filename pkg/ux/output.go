// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for runtimedocs consoles and
// the runtimedocs CLI.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette - deep ocean teals and arctic waters
var (
	// Primary palette (brightest to darkest)
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - banners
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, rules
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, timestamps

	// Semantic colors
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	// Text styles
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style

	// Log line styles
	Banner    lipgloss.Style
	Rule      lipgloss.Style
	Timestamp lipgloss.Style
	FieldKey  lipgloss.Style

	// Box styles
	Box lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),

	Banner:    lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Rule:      lipgloss.NewStyle().Foreground(ColorTealDeep),
	Timestamp: lipgloss.NewStyle().Foreground(ColorSlate),
	FieldKey:  lipgloss.NewStyle().Foreground(ColorTealPrimary).TabWidth(lipgloss.NoTabConversion),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Print helpers. Each one writes plain text when ShouldStyle(w) is false.

// Title prints a styled title
func Title(w io.Writer, text string) {
	if !ShouldStyle(w) {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintln(w, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(w io.Writer, text string) {
	if !ShouldStyle(w) {
		fmt.Fprintf(w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func Warning(w io.Writer, text string) {
	if !ShouldStyle(w) {
		fmt.Fprintf(w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func Error(w io.Writer, text string) {
	if !ShouldStyle(w) {
		fmt.Fprintf(w, "ERROR: %s\n", text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Info prints an informational message
func Info(w io.Writer, text string) {
	if !ShouldStyle(w) {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Box prints text in a rounded box
func Box(w io.Writer, title, content string) {
	if !ShouldStyle(w) {
		fmt.Fprintf(w, "%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(72)
	fmt.Fprintln(w, boxStyle.Render(Styles.Title.Render(title)+"\n"+content))
}

// FileStatus prints a file with its status and a short annotation
func FileStatus(w io.Writer, path string, status Icon, note string) {
	if !ShouldStyle(w) {
		fmt.Fprintf(w, "%s\t%s\n", path, note)
		return
	}
	if note != "" {
		fmt.Fprintf(w, "%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+note+")"))
		return
	}
	fmt.Fprintf(w, "%s %s\n", status.Render(), path)
}

// Summary prints a summary line with a file count and total size
func Summary(w io.Writer, files int, size int64) {
	if !ShouldStyle(w) {
		fmt.Fprintf(w, "SUMMARY: files=%d bytes=%d\n", files, size)
		return
	}
	fmt.Fprintf(w, "\n%s %s  %s %s\n",
		Styles.Bold.Render(fmt.Sprintf("%d", files)), Styles.Muted.Render("sinks"),
		Styles.Bold.Render(HumanBytes(size)), Styles.Muted.Render("total"),
	)
}

// HumanBytes renders a byte count with a binary unit suffix.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
