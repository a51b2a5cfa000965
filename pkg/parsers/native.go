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
	"strconv"
	"strings"

	"github.com/AleutianAI/runtimedocs/pkg/callsite"
)

// Names of the native entries.
const (
	NativeTypeObject     = "type-object"
	NativeBuiltinRoutine = "builtin-routine"
	NativeUserFunction   = "user-function"
)

// Natives returns the native entries: reflect.Type values go to ParseClass,
// standard library and user-defined functions go to ParseCallable.
func Natives() []Entry {
	return []Entry{
		When(NativeTypeObject, isTypeObject, ParseClass),
		When(NativeBuiltinRoutine, func(v any) bool { return isFunc(v) && callsite.Describe(v).Std() }, ParseCallable),
		When(NativeUserFunction, func(v any) bool { return isFunc(v) && !callsite.Describe(v).Std() }, ParseCallable),
	}
}

func isTypeObject(v any) bool {
	_, ok := v.(reflect.Type)
	return ok
}

func isFunc(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

// ParseCallable describes a function value.
//
// Fields, in order: type, name, signature, fullargspec, isbuiltin.
//
// fullargspec comes from the symbol table when the runtime knows the entry
// point (declaring file and line included) and degrades to a reflection-only
// ArgSpec rendering otherwise.
func ParseCallable(v any) Record {
	rec := NewRecord(TypeTag(v))
	id := callsite.Describe(v)

	name := id.Function
	if name == "" {
		name = id.Name
	}
	rec.Set(FieldName, name)
	rec.Set(FieldSignature, id.Signature)
	rec.Set(FieldFullArgSpec, fullArgSpec(v, id))
	rec.Set(FieldIsBuiltin, strconv.FormatBool(id.Std()))

	return rec
}

func fullArgSpec(v any, id callsite.Identity) string {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Func {
		return "ArgSpec(args=[], varargs=None, results=[])"
	}

	args, varargs := funcArgs(t)
	results := funcResults(t)

	if !id.Resolved {
		return fmt.Sprintf("ArgSpec(args=[%s], varargs=%s, results=[%s])",
			strings.Join(args, ", "), varargs, strings.Join(results, ", "))
	}

	return fmt.Sprintf("FullArgSpec(args=[%s], varargs=%s, results=[%s], variadic=%t, package=%s, file=%s:%d)",
		strings.Join(args, ", "), varargs, strings.Join(results, ", "),
		t.IsVariadic(), id.PkgPath, id.File, id.Line)
}

func funcArgs(t reflect.Type) (args []string, varargs string) {
	varargs = "None"
	n := t.NumIn()
	for i := 0; i < n; i++ {
		if t.IsVariadic() && i == n-1 {
			varargs = "..." + t.In(i).Elem().String()
			continue
		}
		args = append(args, t.In(i).String())
	}
	return args, varargs
}

func funcResults(t reflect.Type) []string {
	results := make([]string, t.NumOut())
	for i := range results {
		results[i] = t.Out(i).String()
	}
	return results
}

// ParseClass describes a reflect.Type value. It extends the callable fields
// with inheritance_tree: the type followed by its embedded types, depth
// first, which is the order Go promotes fields and methods from.
func ParseClass(v any) Record {
	t, ok := v.(reflect.Type)
	if !ok || t == nil {
		return DefaultParse(v, DefaultMaxStringify)
	}

	rec := NewRecord(TypeTag(v))
	rec.Set(FieldName, typeName(t))
	rec.Set(FieldSignature, underlying(t))
	rec.Set(FieldFullArgSpec, typeSpec(t))
	rec.Set(FieldIsBuiltin, strconv.FormatBool(isBuiltinType(t)))
	rec.Set(FieldInheritanceTree, "("+strings.Join(inheritanceTree(t), ", ")+")")

	return rec
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() != "" {
			return t.PkgPath() + "." + t.Name()
		}
		return t.Name()
	}
	return t.String()
}

func isBuiltinType(t reflect.Type) bool {
	base := t
	for base.Kind() == reflect.Pointer || base.Kind() == reflect.Slice || base.Kind() == reflect.Array {
		base = base.Elem()
	}
	if base.Name() == "" {
		return base.PkgPath() == "" && base.Kind() != reflect.Struct && base.Kind() != reflect.Interface
	}
	return base.PkgPath() == "" || callsite.IsStdPkg(base.PkgPath())
}

// underlying renders the structure behind a named type.
func underlying(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Struct:
		fields := make([]string, t.NumField())
		for i := range fields {
			f := t.Field(i)
			if f.Anonymous {
				fields[i] = f.Type.String()
				continue
			}
			fields[i] = f.Name + " " + f.Type.String()
		}
		return "struct{" + strings.Join(fields, "; ") + "}"
	case reflect.Interface:
		methods := make([]string, t.NumMethod())
		for i := range methods {
			m := t.Method(i)
			methods[i] = m.Name + strings.TrimPrefix(m.Type.String(), "func")
		}
		return "interface{" + strings.Join(methods, "; ") + "}"
	case reflect.Func:
		return "func" + strings.TrimPrefix(t.String(), "func")
	default:
		return t.Kind().String()
	}
}

func typeSpec(t reflect.Type) string {
	methods := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		methods = append(methods, t.Method(i).Name)
	}

	var fields []string
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct {
		for i := 0; i < base.NumField(); i++ {
			fields = append(fields, base.Field(i).Name)
		}
	}

	return fmt.Sprintf("TypeSpec(kind=%s, methods=[%s], fields=[%s], pkgpath=%s)",
		t.Kind(), strings.Join(methods, ", "), strings.Join(fields, ", "), t.PkgPath())
}

func inheritanceTree(t reflect.Type) []string {
	var tree []string
	seen := make(map[reflect.Type]bool)

	var walk func(t reflect.Type)
	walk = func(t reflect.Type) {
		if seen[t] {
			return
		}
		seen[t] = true
		tree = append(tree, t.String())

		base := t
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if base.Kind() != reflect.Struct {
			return
		}
		for i := 0; i < base.NumField(); i++ {
			if f := base.Field(i); f.Anonymous {
				walk(f.Type)
			}
		}
	}
	walk(t)

	return tree
}
