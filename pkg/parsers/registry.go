// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parsers

import "sync"

// Parser describes a value as a Record.
type Parser func(v any) Record

// FallbackParser is the lowest precedence parser, bound with the maximum
// rendering length when a Registry is built.
type FallbackParser func(v any, maxLen int) Record

// Entry pairs a matching rule with a parser.
//
// Entries built with ForTag match on the type tag only and are visible to
// Registry.ResolveTag. Entries built with When match on a predicate.
type Entry struct {
	Name  string
	Tag   string
	Match func(v any) bool
	Parse Parser
}

// ForTag returns an entry matching values whose TypeTag equals tag.
func ForTag(tag string, p Parser) Entry {
	return Entry{Name: tag, Tag: tag, Parse: p}
}

// When returns an entry matching values for which match returns true.
func When(name string, match func(v any) bool, p Parser) Entry {
	return Entry{Name: name, Match: match, Parse: p}
}

func (e Entry) matches(v any) bool {
	if e.Parse == nil {
		return false
	}
	if e.Match != nil {
		return e.Match(v)
	}
	return e.Tag != "" && TypeTag(v) == e.Tag
}

// Registry resolves parsers through the user, common and fallback tiers.
type Registry struct {
	custom   []Entry
	common   []Entry
	fallback FallbackParser
	maxLen   int
}

// NewRegistry builds an immutable registry. The entry slices are copied.
// A nil fallback selects DefaultParse.
func NewRegistry(custom, common []Entry, fallback FallbackParser, maxLen int) *Registry {
	if fallback == nil {
		fallback = DefaultParse
	}
	return &Registry{
		custom:   append([]Entry(nil), custom...),
		common:   append([]Entry(nil), common...),
		fallback: fallback,
		maxLen:   maxLen,
	}
}

// Resolve returns the highest precedence parser for v. It never fails.
func (r *Registry) Resolve(v any) Parser {
	for _, tier := range [][]Entry{r.custom, r.common} {
		for _, e := range tier {
			if e.matches(v) {
				return e.Parse
			}
		}
	}
	return r.Fallback()
}

// ResolveTag returns the parser registered for a type tag, consulting only
// tag entries. Predicate entries cannot be evaluated without a value.
func (r *Registry) ResolveTag(tag string) Parser {
	for _, tier := range [][]Entry{r.custom, r.common} {
		for _, e := range tier {
			if e.Tag == tag && e.Parse != nil {
				return e.Parse
			}
		}
	}
	return r.Fallback()
}

// Fallback returns the generic parser bound with the registry's max length.
func (r *Registry) Fallback() Parser {
	fallback, maxLen := r.fallback, r.maxLen
	return func(v any) Record {
		return fallback(v, maxLen)
	}
}

// Parse resolves and applies the parser for v.
func (r *Registry) Parse(v any) Record {
	return r.Resolve(v)(v)
}

// =============================================================================
// Extensions
// =============================================================================

var (
	extensions   []Entry
	extensionsMu sync.RWMutex
)

// RegisterExtension appends entries to the process-wide extension list.
// Extensions rank above the native entries and below user overrides.
// Registries built before the call are unaffected.
func RegisterExtension(entries ...Entry) {
	extensionsMu.Lock()
	defer extensionsMu.Unlock()

	extensions = append(extensions, entries...)
}

// Extensions returns a snapshot of the registered extension entries.
func Extensions() []Entry {
	extensionsMu.RLock()
	defer extensionsMu.RUnlock()

	return append([]Entry(nil), extensions...)
}

// Common returns the extension entries followed by the native entries.
func Common() []Entry {
	return append(Extensions(), Natives()...)
}
