// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parsers turns runtime values into human-readable descriptive
// records.
//
// # Records
//
// A Record is an ordered list of field/text pairs. Order matters for the
// readability of the emitted log, so parsers append fields in a fixed order
// (type first, value last for the generic parser).
//
// # Resolution
//
// A Registry resolves the parser for a value through three tiers, highest
// precedence first:
//
//  1. user overrides, supplied per decorator
//  2. the common tier: extension entries (registered by optional packages
//     such as parsers/extra) followed by the native entries
//  3. a fallback parser bound with a maximum rendering length
//
// Inside a tier, entries are tried in registration order. An entry matches
// either by type tag (the reflected type string) or by an arbitrary
// predicate, which lets a parser target a capability such as "is a
// reflect.Type" or "implements error" rather than one concrete type.
//
// # Thread Safety
//
// Registries are immutable after construction and safe for concurrent use.
// The extension list is guarded by a mutex.
package parsers

import (
	"reflect"
	"strings"
)

// Field names emitted by the built-in parsers.
const (
	FieldType            = "type"
	FieldLen             = "len"
	FieldKeys            = "keys"
	FieldValue           = "value"
	FieldName            = "name"
	FieldSignature       = "signature"
	FieldFullArgSpec     = "fullargspec"
	FieldIsBuiltin       = "isbuiltin"
	FieldInheritanceTree = "inheritance_tree"
)

// NilTag is the type tag of an untyped nil.
const NilTag = "<nil>"

// Field is one named line of a Record.
type Field struct {
	Key   string
	Value string
}

// Record is an ordered description of a value.
type Record []Field

// NewRecord starts a record with its type field.
func NewRecord(typeTag string) Record {
	return Record{{Key: FieldType, Value: typeTag}}
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set replaces the value under key in place, or appends a new field.
func (r *Record) Set(key, value string) {
	for i := range *r {
		if (*r)[i].Key == key {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Field{Key: key, Value: value})
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// String renders the record as "key=value" pairs, mostly for tests and
// debugging.
func (r Record) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.Key + "=" + f.Value
	}
	return strings.Join(parts, " ")
}

// TypeTag returns the stable textual identifier of v's runtime type.
func TypeTag(v any) string {
	if v == nil {
		return NilTag
	}
	return reflect.TypeOf(v).String()
}

// Truncate clips s to at most maxLen characters. A negative maxLen disables
// clipping.
func Truncate(s string, maxLen int) string {
	if maxLen < 0 {
		return s
	}
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
