// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package callsite

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct{}

func (e *engine) add(a, b int) int { return a + b }

func (e engine) name() string { return "engine" }

func plainFixture(a int, rest ...string) (int, error) { return a, nil }

//go:noinline
func outer(depth int, ignore ...string) Identity { return inner(depth, ignore...) }

//go:noinline
func inner(depth int, ignore ...string) Identity { return Caller(depth, ignore...) }

func runtimeName(fn any) string {
	return runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
}

// =============================================================================
// FromFunctionName
// =============================================================================

func TestFromFunctionName(t *testing.T) {
	tests := []struct {
		full     string
		pkgPath  string
		pkg      string
		receiver string
		name     string
	}{
		{"main.main", "main", "main", "", "main"},
		{"github.com/acme/calc.Add", "github.com/acme/calc", "calc", "", "Add"},
		{"github.com/acme/calc.(*Engine).Add", "github.com/acme/calc", "calc", "Engine", "Add"},
		{"github.com/acme/calc.(*Engine).Add-fm", "github.com/acme/calc", "calc", "Engine", "Add"},
		{"github.com/acme/calc.Engine.Name", "github.com/acme/calc", "calc", "Engine", "Name"},
		{"github.com/acme/calc.TestAdd.func1", "github.com/acme/calc", "calc", "", "TestAdd.func1"},
		{"github.com/acme/calc.TestAdd.func1.2", "github.com/acme/calc", "calc", "", "TestAdd.func1.2"},
		{"gopkg.in/yaml%2ev3.Marshal", "gopkg.in/yaml.v3", "yaml.v3", "", "Marshal"},
		{"strings.ToUpper", "strings", "strings", "", "ToUpper"},
	}

	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			id := FromFunctionName(tt.full)
			assert.Equal(t, tt.pkgPath, id.PkgPath)
			assert.Equal(t, tt.pkg, id.Package)
			assert.Equal(t, tt.receiver, id.Receiver)
			assert.Equal(t, tt.name, id.Name)
			assert.Equal(t, tt.full, id.Function)
		})
	}
}

func TestFromFunctionName_Empty(t *testing.T) {
	id := FromFunctionName("")
	assert.Equal(t, UnknownName, id.Name)
	assert.Equal(t, UnknownName, id.String())
}

func TestIdentity_StringAndShortName(t *testing.T) {
	id := Identity{Package: "calc", Receiver: "Engine", Name: "Add"}
	assert.Equal(t, "calc.Engine.Add", id.String())
	assert.Equal(t, "Engine.Add", id.ShortName())

	id.Receiver = ""
	assert.Equal(t, "calc.Add", id.String())
	assert.Equal(t, "Add", id.ShortName())
}

func TestIsStdPkg(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"strings", true},
		{"net/http", true},
		{"main", false},
		{"", false},
		{"command-line-arguments", false},
		{"github.com/acme/calc", false},
		{"gopkg.in/yaml.v3", false},
	}
	for _, tt := range tests {
		if got := IsStdPkg(tt.path); got != tt.want {
			t.Errorf("IsStdPkg(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// =============================================================================
// Describe
// =============================================================================

func TestDescribe_StdFunction(t *testing.T) {
	id := Describe(strings.ToUpper)

	assert.True(t, id.Resolved)
	assert.Equal(t, "strings", id.PkgPath)
	assert.Equal(t, "ToUpper", id.Name)
	assert.Equal(t, "func(string) string", id.Signature)
	assert.True(t, id.Std())
}

func TestDescribe_UserFunction(t *testing.T) {
	id := Describe(plainFixture)

	require.True(t, id.Resolved)
	assert.Equal(t, "callsite", id.Package)
	assert.Equal(t, "plainFixture", id.Name)
	assert.Equal(t, "func(int, ...string) (int, error)", id.Signature)
	assert.False(t, id.Std())
	assert.True(t, strings.HasSuffix(id.File, "callsite_test.go"), "file = %s", id.File)
	assert.Greater(t, id.Line, 0)
}

func TestDescribe_MethodValues(t *testing.T) {
	e := &engine{}

	ptr := Describe(e.add)
	assert.Equal(t, "engine", ptr.Receiver)
	assert.Equal(t, "add", ptr.Name)
	assert.Equal(t, "engine.add", ptr.ShortName())

	val := Describe(engine{}.name)
	assert.Equal(t, "engine", val.Receiver)
	assert.Equal(t, "name", val.Name)
}

func TestDescribe_NonFunctions(t *testing.T) {
	assert.Equal(t, UnknownName, Describe(nil).Name)

	id := Describe(42)
	assert.Equal(t, UnknownName, id.Name)
	assert.Equal(t, "int", id.Signature)

	var nilFn func()
	id = Describe(nilFn)
	assert.False(t, id.Resolved)
	assert.Equal(t, "func()", id.Signature)
}

// =============================================================================
// Caller
// =============================================================================

func TestCaller_Direct(t *testing.T) {
	id := Caller(0)

	assert.Equal(t, "callsite.TestCaller_Direct", id.String())
	assert.True(t, strings.HasSuffix(id.File, "callsite_test.go"))
}

func TestCaller_NestedDepths(t *testing.T) {
	tests := []struct {
		depth int
		want  string
	}{
		{0, "callsite.inner"},
		{1, "callsite.outer"},
		{2, "callsite.TestCaller_NestedDepths"},
		{-1, "callsite.inner"},
	}

	for _, tt := range tests {
		got := outer(tt.depth).String()
		assert.Equal(t, tt.want, got, "depth %d", tt.depth)
	}
}

func TestCaller_IgnorePrefixes(t *testing.T) {
	innerName := runtimeName(inner)
	outerName := runtimeName(outer)

	id := outer(0, innerName)
	assert.Equal(t, "callsite.outer", id.String())

	id = outer(0, innerName, outerName)
	assert.Equal(t, "callsite.TestCaller_IgnorePrefixes", id.String())
}

func TestCaller_Closure(t *testing.T) {
	var id Identity
	func() {
		id = Caller(0)
	}()

	assert.Equal(t, "TestCaller_Closure.func1", id.Name)
	assert.Equal(t, "", id.Receiver)
}

func TestCaller_Method(t *testing.T) {
	var id Identity
	probe := func() { id = Caller(1) }
	(&caller{probe: probe}).run()

	assert.Equal(t, "callsite.caller.run", id.String())
}

func TestCaller_OffTheStack(t *testing.T) {
	id := Caller(maxStackDepth * 2)
	assert.Equal(t, UnknownName, id.Name)
	assert.False(t, id.Resolved)
}

func TestHostname(t *testing.T) {
	assert.NotEmpty(t, Hostname())
	assert.Equal(t, Hostname(), Hostname())
}

type caller struct {
	probe func()
}

//go:noinline
func (c *caller) run() { c.probe() }
