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
	"bytes"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/AleutianAI/runtimedocs/pkg/callsite"
)

type animal struct {
	Name string
}

func (animal) Speak() string { return "..." }

type mammal struct {
	animal
	Legs int
}

type dog struct {
	*mammal
	Breed string
}

type bag struct{ items []string }

func (b bag) Len() int        { return len(b.items) }
func (b bag) Keys() []string { return []string{"z", "a"} }

type index struct{ keys []string }

func (i *index) Keys() []string { return i.keys }

func userFunc(a, b int) int { return a + b }

func sameKeys(t *testing.T, rec Record, want ...string) {
	t.Helper()
	got := rec.Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v, want %v", got, want)
	}
}

func field(t *testing.T, rec Record, key string) string {
	t.Helper()
	v, ok := rec.Get(key)
	if !ok {
		t.Fatalf("record %s has no field %q", rec, key)
	}
	return v
}

// =============================================================================
// Record
// =============================================================================

func TestRecord_SetReplacesInPlace(t *testing.T) {
	rec := NewRecord("int")
	rec.Set(FieldValue, "1")
	rec.Set(FieldLen, "0")
	rec.Set(FieldValue, "2")

	sameKeys(t, rec, FieldType, FieldValue, FieldLen)
	if v := field(t, rec, FieldValue); v != "2" {
		t.Errorf("value = %q, want 2", v)
	}
	if rec.Has(FieldKeys) {
		t.Error("unexpected keys field")
	}
}

func TestTypeTag(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{1, "int"},
		{"a", "string"},
		{[]int{}, "[]int"},
		{map[string]int{}, "map[string]int"},
		{userFunc, "func(int, int) int"},
		{nil, NilTag},
		{&animal{}, "*parsers.animal"},
	}
	for _, tt := range tests {
		if got := TypeTag(tt.value); got != tt.want {
			t.Errorf("TypeTag(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello world", 5, "hello"},
		{"hi", 5, "hi"},
		{"héllo wörld", 4, "héll"},
		{"anything", -1, "anything"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

// =============================================================================
// DefaultParse
// =============================================================================

func TestDefaultParse_Slice(t *testing.T) {
	rec := DefaultParse([]int{1, 2, 3}, 1000)

	sameKeys(t, rec, FieldType, FieldLen, FieldValue)
	if v := field(t, rec, FieldLen); v != "3" {
		t.Errorf("len = %q, want 3", v)
	}
	if v := field(t, rec, FieldValue); v != "[]int{1, 2, 3}" {
		t.Errorf("value = %q", v)
	}
}

func TestDefaultParse_Map(t *testing.T) {
	rec := DefaultParse(map[string]int{"b": 2, "a": 1}, 1000)

	sameKeys(t, rec, FieldType, FieldLen, FieldKeys, FieldValue)
	if v := field(t, rec, FieldLen); v != "2" {
		t.Errorf("len = %q, want 2", v)
	}
	if v := field(t, rec, FieldKeys); v != `["a", "b"]` {
		t.Errorf("keys = %q", v)
	}
}

func TestDefaultParse_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value any
		keys  []string
	}{
		{"int", 42, []string{FieldType, FieldValue}},
		{"string has len", "abc", []string{FieldType, FieldLen, FieldValue}},
		{"nil", nil, []string{FieldType, FieldValue}},
		{"struct", animal{Name: "rex"}, []string{FieldType, FieldValue}},
		{"capabilities", bag{items: []string{"x"}}, []string{FieldType, FieldLen, FieldKeys, FieldValue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sameKeys(t, DefaultParse(tt.value, 1000), tt.keys...)
		})
	}
}

func TestDefaultParse_CapabilityKeysSorted(t *testing.T) {
	rec := DefaultParse(bag{items: []string{"x", "y"}}, 1000)
	if v := field(t, rec, FieldKeys); v != "[a, z]" {
		t.Errorf("keys = %q, want [a, z]", v)
	}
	if v := field(t, rec, FieldLen); v != "2" {
		t.Errorf("len = %q, want 2", v)
	}
}

func TestDefaultParse_Truncation(t *testing.T) {
	values := []any{
		strings.Repeat("x", 50),
		[]int{1, 2, 3, 4, 5, 6, 7},
		map[string]int{"alpha": 1, "beta": 2},
		"日本語のテキストです",
	}
	for _, v := range values {
		rec := DefaultParse(v, 5)
		if n := utf8.RuneCountInString(field(t, rec, FieldValue)); n > 5 {
			t.Errorf("DefaultParse(%#v, 5) value has %d characters", v, n)
		}
	}
}

func TestDefaultParse_NilValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
		keys  []string
		want  string
	}{
		{"untyped nil", nil, []string{FieldType, FieldValue}, "<nil>"},
		{"nil map", map[string]int(nil), []string{FieldType, FieldLen, FieldKeys, FieldValue}, "map[string]int(nil)"},
		{"nil slice", []int(nil), []string{FieldType, FieldLen, FieldValue}, "[]int(nil)"},
		{"nil func", (func())(nil), []string{FieldType, FieldValue}, "(func())(nil)"},
		{"nil Lengther pointer", (*strings.Builder)(nil), []string{FieldType, FieldValue}, "(*strings.Builder)(nil)"},
		{"nil buffer", (*bytes.Buffer)(nil), []string{FieldType, FieldValue}, "(*bytes.Buffer)(nil)"},
		{"nil Keyer pointer", (*index)(nil), []string{FieldType, FieldValue}, "(*parsers.index)(nil)"},
		{"nil error pointer", (*fs.PathError)(nil), []string{FieldType, FieldValue}, "(*fs.PathError)(nil)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := DefaultParse(tt.value, 1000)
			sameKeys(t, rec, tt.keys...)
			if v := field(t, rec, FieldValue); v != tt.want {
				t.Errorf("value = %q, want %q", v, tt.want)
			}
		})
	}
}

func TestRegistry_NilValuesUseFallback(t *testing.T) {
	reg := NewRegistry(nil, Common(), DefaultParse, 10)

	values := []any{nil, map[int]int(nil), []string(nil), (func(int))(nil), (*strings.Builder)(nil), (*index)(nil), error((*fs.PathError)(nil))}
	for _, v := range values {
		rec := reg.Parse(v)
		if got := field(t, rec, FieldType); got != TypeTag(v) {
			t.Errorf("type = %q, want %q", got, TypeTag(v))
		}
	}
}

func TestIsNilRef(t *testing.T) {
	var nilBuf *bytes.Buffer
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{0, false},
		{"", false},
		{nilBuf, true},
		{&bytes.Buffer{}, false},
		{map[string]int(nil), true},
		{[]int{}, false},
		{(chan int)(nil), true},
	}
	for _, tt := range tests {
		if got := IsNilRef(tt.value); got != tt.want {
			t.Errorf("IsNilRef(%#v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// =============================================================================
// Native parsers
// =============================================================================

func TestParseCallable_UserFunction(t *testing.T) {
	rec := ParseCallable(userFunc)

	sameKeys(t, rec, FieldType, FieldName, FieldSignature, FieldFullArgSpec, FieldIsBuiltin)
	if v := field(t, rec, FieldName); !strings.HasSuffix(v, "parsers.userFunc") {
		t.Errorf("name = %q", v)
	}
	if v := field(t, rec, FieldSignature); v != "func(int, int) int" {
		t.Errorf("signature = %q", v)
	}
	if v := field(t, rec, FieldFullArgSpec); !strings.HasPrefix(v, "FullArgSpec(args=[int, int], varargs=None, results=[int]") {
		t.Errorf("fullargspec = %q", v)
	}
	if v := field(t, rec, FieldIsBuiltin); v != "false" {
		t.Errorf("isbuiltin = %q, want false", v)
	}
}

func TestParseCallable_StdFunction(t *testing.T) {
	rec := ParseCallable(strings.Join)

	if v := field(t, rec, FieldIsBuiltin); v != "true" {
		t.Errorf("isbuiltin = %q, want true", v)
	}
	if v := field(t, rec, FieldName); v != "strings.Join" {
		t.Errorf("name = %q", v)
	}
}

func TestFullArgSpec_LegacyFallback(t *testing.T) {
	fn := func(format string, args ...any) error { return nil }

	got := fullArgSpec(fn, callsite.Identity{})
	want := "ArgSpec(args=[string], varargs=...interface {}, results=[error])"
	if got != want {
		t.Errorf("fullArgSpec = %q, want %q", got, want)
	}
}

func TestParseClass(t *testing.T) {
	rec := ParseClass(reflect.TypeOf(dog{}))

	sameKeys(t, rec, FieldType, FieldName, FieldSignature, FieldFullArgSpec, FieldIsBuiltin, FieldInheritanceTree)
	if v := field(t, rec, FieldInheritanceTree); v != "(parsers.dog, *parsers.mammal, parsers.animal)" {
		t.Errorf("inheritance_tree = %q", v)
	}
	if v := field(t, rec, FieldSignature); v != "struct{*parsers.mammal; Breed string}" {
		t.Errorf("signature = %q", v)
	}
	if v := field(t, rec, FieldIsBuiltin); v != "false" {
		t.Errorf("isbuiltin = %q", v)
	}
}

func TestParseClass_BuiltinTypes(t *testing.T) {
	for _, typ := range []reflect.Type{reflect.TypeOf(0), reflect.TypeOf(""), reflect.TypeOf(strings.Builder{})} {
		rec := ParseClass(typ)
		if v := field(t, rec, FieldIsBuiltin); v != "true" {
			t.Errorf("%s isbuiltin = %q, want true", typ, v)
		}
	}
}

// =============================================================================
// Registry
// =============================================================================

func TestRegistry_Precedence(t *testing.T) {
	tagged := func(label string) Parser {
		return func(v any) Record {
			rec := NewRecord(TypeTag(v))
			rec.Set("tier", label)
			return rec
		}
	}

	custom := []Entry{ForTag("int", tagged("custom"))}
	common := []Entry{
		ForTag("int", tagged("common")),
		ForTag("string", tagged("common")),
	}
	reg := NewRegistry(custom, common, DefaultParse, 1000)

	tests := []struct {
		value any
		want  string
	}{
		{1, "custom"},
		{"s", "common"},
	}
	for _, tt := range tests {
		if v := field(t, reg.Parse(tt.value), "tier"); v != tt.want {
			t.Errorf("Parse(%#v) tier = %q, want %q", tt.value, v, tt.want)
		}
	}

	if rec := reg.Parse(1.5); rec.Has("tier") {
		t.Errorf("float should fall back, got %s", rec)
	}
}

func TestRegistry_PredicateOrder(t *testing.T) {
	first := When("first", func(v any) bool { return true }, func(v any) Record { return Record{{Key: "by", Value: "first"}} })
	second := When("second", func(v any) bool { return true }, func(v any) Record { return Record{{Key: "by", Value: "second"}} })

	reg := NewRegistry(nil, []Entry{first, second}, nil, 10)
	if v := field(t, reg.Parse(3), "by"); v != "first" {
		t.Errorf("by = %q, want first", v)
	}
}

func TestRegistry_ResolveTagSkipsPredicates(t *testing.T) {
	pred := When("any-int", func(v any) bool { return true }, func(v any) Record { return Record{{Key: "by", Value: "pred"}} })
	reg := NewRegistry(nil, []Entry{pred}, DefaultParse, 1000)

	rec := reg.ResolveTag("int")(7)
	if rec.Has("by") {
		t.Errorf("ResolveTag consulted a predicate entry: %s", rec)
	}
}

func TestRegistry_FallbackBoundWithMaxLen(t *testing.T) {
	reg := NewRegistry(nil, nil, DefaultParse, 3)
	if v := field(t, reg.Parse("abcdef"), FieldValue); len(v) > 3 {
		t.Errorf("name = %q", v)
	}
}

func TestRegistry_NativesDispatch(t *testing.T) {
	reg := NewRegistry(nil, Natives(), DefaultParse, 1000)

	if !reg.Parse(userFunc).Has(FieldSignature) {
		t.Error("user function not routed to ParseCallable")
	}
	if !reg.Parse(strings.ToLower).Has(FieldIsBuiltin) {
		t.Error("std function not routed to ParseCallable")
	}
	if !reg.Parse(reflect.TypeOf(animal{})).Has(FieldInheritanceTree) {
		t.Error("reflect.Type not routed to ParseClass")
	}
	var nilFn func()
	if reg.Parse(nilFn).Has(FieldSignature) {
		t.Error("nil function should use the fallback")
	}
}

func TestRegisterExtension(t *testing.T) {
	type marker struct{}
	tag := TypeTag(marker{})

	before := NewRegistry(nil, Common(), DefaultParse, 1000)
	RegisterExtension(ForTag(tag, func(v any) Record { return Record{{Key: "ext", Value: "yes"}} }))
	after := NewRegistry(nil, Common(), DefaultParse, 1000)

	if before.Parse(marker{}).Has("ext") {
		t.Error("registry built before registration must not see the extension")
	}
	if !after.Parse(marker{}).Has("ext") {
		t.Error("registry built after registration must see the extension")
	}

	override := NewRegistry([]Entry{ForTag(tag, func(v any) Record { return Record{{Key: "user", Value: "yes"}} })}, Common(), DefaultParse, 1000)
	if !override.Parse(marker{}).Has("user") {
		t.Error("user override must outrank extensions")
	}

	common := Common()
	if common[len(common)-1].Name != NativeUserFunction {
		t.Errorf("natives must come after extensions, last = %q", common[len(common)-1].Name)
	}
}
