// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runtimedocs

import "reflect"

// Kwarg is a named argument. A function whose last parameter is
// ...Kwarg has its named arguments reported separately from the
// positional ones.
type Kwarg struct {
	Name  string
	Value any
}

// Kw builds a Kwarg.
func Kw(name string, value any) Kwarg {
	return Kwarg{Name: name, Value: value}
}

// Lookup returns the value of the first argument called name.
func Lookup(kwargs []Kwarg, name string) (any, bool) {
	for _, kw := range kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

var kwargsType = reflect.TypeOf([]Kwarg(nil))

// takesKwargs reports whether t ends with a ...Kwarg parameter.
func takesKwargs(t reflect.Type) bool {
	return t.IsVariadic() && t.In(t.NumIn()-1) == kwargsType
}
