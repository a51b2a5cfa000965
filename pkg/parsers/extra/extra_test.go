// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extra

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/runtimedocs/pkg/parsers"
)

func registry() *parsers.Registry {
	return parsers.NewRegistry(nil, parsers.Common(), parsers.DefaultParse, parsers.DefaultMaxStringify)
}

func get(t *testing.T, rec parsers.Record, key string) string {
	t.Helper()
	v, ok := rec.Get(key)
	require.True(t, ok, "missing %q in %s", key, rec)
	return v
}

func TestInitRegistersEntries(t *testing.T) {
	names := make(map[string]bool)
	for _, e := range parsers.Extensions() {
		names[e.Name] = true
	}
	for _, e := range Entries() {
		assert.True(t, names[e.Name], "extension %q not registered", e.Name)
	}
}

func TestNumericSlices(t *testing.T) {
	tests := []struct {
		name  string
		value any
		min   string
		max   string
		mean  string
		std   string
	}{
		{"ints", []int{1, 2, 3, 4}, "1", "4", "2.5", "1.118033988749895"},
		{"int64s", []int64{-5, 5}, "-5", "5", "0", "5"},
		{"float64s", []float64{2, 2, 2}, "2", "2", "2", "0"},
		{"float32s", []float32{0.5, 1.5}, "0.5", "1.5", "1", "0.5"},
	}
	reg := registry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := reg.Parse(tt.value)
			assert.Equal(t, []string{"type", "len", "min", "max", "mean", "std", "value"}, rec.Keys())
			assert.Equal(t, tt.min, get(t, rec, FieldMin))
			assert.Equal(t, tt.max, get(t, rec, FieldMax))
			assert.Equal(t, tt.mean, get(t, rec, FieldMean))
			assert.Equal(t, tt.std, get(t, rec, FieldStd))
		})
	}
}

func TestNumericSlices_Empty(t *testing.T) {
	rec := registry().Parse([]int{})
	assert.Equal(t, []string{"type", "len", "value"}, rec.Keys())
	assert.Equal(t, "0", get(t, rec, parsers.FieldLen))
}

func TestTimeValues(t *testing.T) {
	reg := registry()

	ts := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)
	rec := reg.Parse(ts)
	assert.Equal(t, "2024-03-01T12:30:00.0000005Z", get(t, rec, parsers.FieldValue))
	assert.Equal(t, fmt.Sprint(ts.Unix()), get(t, rec, FieldUnix))

	rec = reg.Parse(1500 * time.Millisecond)
	assert.Equal(t, "1.5s", get(t, rec, parsers.FieldValue))
	assert.Equal(t, "1.5", get(t, rec, FieldSeconds))
}

func TestUUID(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-41d1-80b4-00c04fd430c8")

	rec := registry().Parse(id)
	assert.Equal(t, "uuid.UUID", get(t, rec, parsers.FieldType))
	assert.Equal(t, id.String(), get(t, rec, parsers.FieldValue))
	assert.Equal(t, "4", get(t, rec, FieldVersion))
	assert.Equal(t, "RFC4122", get(t, rec, FieldVariant))
}

func TestBytes(t *testing.T) {
	reg := registry()

	rec := reg.Parse([]byte("hi"))
	assert.Equal(t, "6869", get(t, rec, parsers.FieldValue))
	assert.Equal(t, "2", get(t, rec, parsers.FieldLen))

	long := bytes.Repeat([]byte{0xab}, 100)
	rec = reg.Parse(long)
	value := get(t, rec, parsers.FieldValue)
	assert.Len(t, value, hexPreviewLen*2+3)
	assert.Equal(t, "100", get(t, rec, parsers.FieldLen))
}

func TestErrorChain(t *testing.T) {
	base := fs.ErrNotExist
	wrapped := fmt.Errorf("open config: %w", base)

	rec := registry().Parse(wrapped)
	assert.Equal(t, "open config: file does not exist", get(t, rec, parsers.FieldValue))
	assert.Equal(t, "*fmt.wrapError -> *errors.errorString", get(t, rec, FieldChain))

	rec = registry().Parse(errors.New("plain"))
	assert.Equal(t, "*errors.errorString", get(t, rec, FieldChain))
}

func TestUserOverrideBeatsExtension(t *testing.T) {
	custom := []parsers.Entry{parsers.ForTag("[]int", func(v any) parsers.Record {
		return parsers.Record{{Key: "custom", Value: "yes"}}
	})}
	reg := parsers.NewRegistry(custom, parsers.Common(), parsers.DefaultParse, 10)

	assert.True(t, reg.Parse([]int{1}).Has("custom"))
	assert.True(t, reg.Parse([]int64{1}).Has(FieldMean))
}

func TestParsersRejectForeignTypes(t *testing.T) {
	rec := ParseUUID("not a uuid")
	assert.Equal(t, []string{"type", "len", "value"}, rec.Keys())

	rec = ParseTime(42)
	assert.False(t, rec.Has(FieldUnix))
}

type codeError struct {
	code  int
	inner error
}

func (e *codeError) Error() string { return fmt.Sprintf("code %d", e.code) }
func (e *codeError) Unwrap() error { return e.inner }

func TestErrorTypedNil(t *testing.T) {
	var nilErr *codeError

	for _, v := range []any{nilErr, error(nilErr)} {
		var rec parsers.Record
		require.NotPanics(t, func() { rec = registry().Parse(v) })
		assert.Equal(t, "(*extra.codeError)(nil)", get(t, rec, parsers.FieldValue))
		assert.False(t, rec.Has(FieldChain))
	}

	rec := ParseError(nilErr)
	assert.Equal(t, "*extra.codeError", get(t, rec, parsers.FieldType))
}

func TestErrorChainStopsAtTypedNil(t *testing.T) {
	var inner *codeError
	outer := &codeError{code: 7, inner: inner}

	var rec parsers.Record
	require.NotPanics(t, func() { rec = registry().Parse(outer) })
	assert.Equal(t, "code 7", get(t, rec, parsers.FieldValue))
	assert.Equal(t, "*extra.codeError -> *extra.codeError", get(t, rec, FieldChain))
}

func TestValueClipIgnoresRegistryLimit(t *testing.T) {
	reg := parsers.NewRegistry(nil, parsers.Common(), parsers.DefaultParse, 10)

	xs := make([]int, 50)
	for i := range xs {
		xs[i] = i
	}
	assert.Equal(t, fmt.Sprintf("%v", xs), get(t, reg.Parse(xs), parsers.FieldValue))

	long := make([]int, 2*parsers.DefaultMaxStringify)
	assert.Len(t, get(t, reg.Parse(long), parsers.FieldValue), parsers.DefaultMaxStringify)

	type point struct{ X, Y int }
	assert.Len(t, get(t, reg.Parse(point{X: 100000, Y: 200000}), parsers.FieldValue), 10)
}
