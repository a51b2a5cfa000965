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

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxStringify is the default clipping length of the value field.
const DefaultMaxStringify = 1000

// Lengther is implemented by values exposing a length of their own.
type Lengther interface {
	Len() int
}

// Keyer is implemented by mapping-like values that enumerate their keys.
type Keyer interface {
	Keys() []string
}

// DefaultParse is the generic fallback parser.
//
// Fields, in order:
//
//   - type: the type tag
//   - len: only for values with a length (arrays, slices, maps, strings,
//     channels, or a Lengther)
//   - keys: only for maps or a Keyer, rendered in sorted order
//   - value: Go-syntax rendering clipped to maxLen characters
func DefaultParse(v any, maxLen int) Record {
	rec := NewRecord(TypeTag(v))

	if n, ok := lengthOf(v); ok {
		rec.Set(FieldLen, strconv.Itoa(n))
	}
	if keys, ok := keysOf(v); ok {
		rec.Set(FieldKeys, keys)
	}
	rec.Set(FieldValue, Truncate(fmt.Sprintf("%#v", v), maxLen))

	return rec
}

// IsNilRef reports whether v is a nil pointer, map, slice, func, channel or
// interface held in a non-nil interface. Methods found through capability
// interfaces must not be called on such values.
func IsNilRef(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func lengthOf(v any) (int, bool) {
	if l, ok := v.(Lengther); ok && !IsNilRef(v) {
		return l.Len(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len(), true
	default:
		return 0, false
	}
}

func keysOf(v any) (string, bool) {
	if k, ok := v.(Keyer); ok && !IsNilRef(v) {
		keys := append([]string(nil), k.Keys()...)
		sort.Strings(keys)
		return renderKeys(keys), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return "", false
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, fmt.Sprintf("%#v", k.Interface()))
	}
	sort.Strings(keys)
	return renderKeys(keys), true
}

func renderKeys(keys []string) string {
	return "[" + strings.Join(keys, ", ") + "]"
}
