// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package callsite extracts identity information about functions and the
// frames that call them.
//
// Go keeps no declared parameter names or documentation at runtime, so the
// identity of a function is reconstructed from two sources:
//
//   - the symbol table (runtime.FuncForPC): fully qualified name, package,
//     receiver, declaring file and line
//   - reflection: the declared parameter and result types
//
// Caller identity is resolved by walking the active call stack with
// runtime.Callers. Frame counting is fragile across inlining and wrapper
// layers, so Caller skips frames by name (runtime, reflect and any prefix the
// caller asks to ignore) before applying an explicit depth.
package callsite

import (
	"reflect"
	"runtime"
	"strings"
)

// UnknownName is used when a function or frame cannot be resolved.
const UnknownName = "<unknown>"

// Identity describes a function as far as the runtime can tell.
type Identity struct {
	// Function is the fully qualified runtime name, for example
	// "github.com/acme/calc.(*Engine).Add".
	Function string

	// PkgPath is the import path of the declaring package.
	PkgPath string

	// Package is the last element of PkgPath, the package name as written
	// in source for all conventional layouts.
	Package string

	// Receiver is the receiver type name for methods, without pointer
	// marker. Empty for plain functions and closures.
	Receiver string

	// Name is the routine name. Closures keep their enclosing path,
	// for example "TestAdd.func1".
	Name string

	// Signature is the reflected function type, for example
	// "func(int, int) int". Empty for frames.
	Signature string

	File string
	Line int

	// Resolved reports whether the symbol table knew the entry point.
	Resolved bool
}

// ShortName returns "Receiver.Name" for methods and Name otherwise.
func (id Identity) ShortName() string {
	if id.Receiver != "" {
		return id.Receiver + "." + id.Name
	}
	return id.Name
}

// String composes "<package>.<receiver>.<routine>", omitting empty parts.
func (id Identity) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{id.Package, id.Receiver, id.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return UnknownName
	}
	return strings.Join(parts, ".")
}

// Std reports whether the function is declared in the standard library.
func (id Identity) Std() bool {
	return IsStdPkg(id.PkgPath)
}

// Describe returns the identity of fn. Non-function values yield an
// Identity holding only their reflected type as Signature.
func Describe(fn any) Identity {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() {
		return Identity{Name: UnknownName}
	}
	if rv.Kind() != reflect.Func {
		return Identity{Name: UnknownName, Signature: rv.Type().String()}
	}

	id := Identity{Name: UnknownName, Signature: rv.Type().String()}
	if rv.IsNil() {
		return id
	}

	rf := runtime.FuncForPC(rv.Pointer())
	if rf == nil {
		return id
	}

	named := FromFunctionName(rf.Name())
	named.Signature = id.Signature
	named.File, named.Line = rf.FileLine(rf.Entry())
	named.Resolved = true
	return named
}

// FromFunctionName splits a runtime function name into its parts.
//
// Examples:
//
//	"main.main"                          -> Package "main", Name "main"
//	"github.com/acme/calc.(*Engine).Add" -> Package "calc", Receiver "Engine", Name "Add"
//	"github.com/acme/calc.Engine.Add-fm" -> Package "calc", Receiver "Engine", Name "Add"
//	"github.com/acme/calc.TestAdd.func1" -> Package "calc", Name "TestAdd.func1"
func FromFunctionName(full string) Identity {
	if full == "" {
		return Identity{Name: UnknownName}
	}

	pkgPath, rest := splitPackage(full)
	recv, name := splitReceiver(rest)

	pkg := pkgPath
	if slash := strings.LastIndex(pkg, "/"); slash >= 0 {
		pkg = pkg[slash+1:]
	}

	return Identity{
		Function: full,
		PkgPath:  unescape(pkgPath),
		Package:  unescape(pkg),
		Receiver: recv,
		Name:     name,
	}
}

// IsStdPkg reports whether an import path belongs to the standard library.
// The first path element of every non-standard module path contains a dot.
func IsStdPkg(pkgPath string) bool {
	if pkgPath == "" || pkgPath == "main" || pkgPath == "command-line-arguments" {
		return false
	}
	first, _, _ := strings.Cut(pkgPath, "/")
	return !strings.Contains(first, ".")
}

func splitPackage(full string) (pkgPath, rest string) {
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	cut := slash + 1 + dot
	return full[:cut], full[cut+1:]
}

func splitReceiver(rest string) (recv, name string) {
	rest = strings.TrimSuffix(rest, "-fm")

	if strings.HasPrefix(rest, "(") {
		if end := strings.Index(rest, ")."); end > 0 {
			return strings.TrimPrefix(rest[1:end], "*"), rest[end+2:]
		}
	}

	parts := strings.Split(rest, ".")
	if len(parts) == 2 && !isClosureSegment(parts[1]) {
		return parts[0], parts[1]
	}
	return "", rest
}

// isClosureSegment matches compiler generated names: func1, gowrap2,
// deferwrap1 and the bare numbers used for nested closures.
func isClosureSegment(s string) bool {
	for _, prefix := range []string{"func", "gowrap", "deferwrap"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// unescape reverses the runtime's escaping of dots in the last path element
// ("gopkg.in/yaml%2ev3").
func unescape(s string) string {
	return strings.ReplaceAll(s, "%2e", ".")
}
