// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extra registers additional value parsers as parser extensions.
//
// Import it for its side effect:
//
//	import _ "github.com/AleutianAI/runtimedocs/pkg/parsers/extra"
//
// Decorators built afterwards with the default common tier describe numeric
// slices with summary statistics, time values in a readable form, UUIDs with
// their version, errors with their wrap chain and byte slices as hex.
//
// These parsers clip their value field at parsers.DefaultMaxStringify. They
// do not see a decorator's MaxStringify, which only bounds the fallback
// parser.
package extra

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/runtimedocs/pkg/parsers"
)

// Field names added by this package.
const (
	FieldMin      = "min"
	FieldMax      = "max"
	FieldMean     = "mean"
	FieldStd      = "std"
	FieldUnix     = "unix"
	FieldSeconds  = "seconds"
	FieldVersion  = "version"
	FieldVariant  = "variant"
	FieldChain    = "chain"
	hexPreviewLen = 64
)

func init() {
	parsers.RegisterExtension(Entries()...)
}

// Entries returns the parser entries of this package, in registration order.
// The error entry is a predicate and comes last so that concrete types win.
func Entries() []parsers.Entry {
	return []parsers.Entry{
		parsers.ForTag("[]int", numericParser[int]),
		parsers.ForTag("[]int64", numericParser[int64]),
		parsers.ForTag("[]float64", numericParser[float64]),
		parsers.ForTag("[]float32", numericParser[float32]),
		parsers.ForTag("[]uint8", ParseBytes),
		parsers.ForTag("time.Time", ParseTime),
		parsers.ForTag("time.Duration", ParseDuration),
		parsers.ForTag("uuid.UUID", ParseUUID),
		parsers.When("error", isError, ParseError),
	}
}

// =============================================================================
// Numeric slices
// =============================================================================

type number interface {
	~int | ~int64 | ~float32 | ~float64
}

func floats[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

// Type tags are not unique across packages, so every parser here checks the
// concrete type and defers to the generic parser on a mismatch.
func fallback(v any) parsers.Record {
	return parsers.DefaultParse(v, parsers.DefaultMaxStringify)
}

func numericParser[T number](v any) parsers.Record {
	in, ok := v.([]T)
	if !ok {
		return fallback(v)
	}
	return numeric(v, floats(in))
}

func numeric(v any, xs []float64) parsers.Record {
	rec := parsers.NewRecord(parsers.TypeTag(v))
	rec.Set(parsers.FieldLen, strconv.Itoa(len(xs)))

	if len(xs) > 0 {
		lo, hi, sum := xs[0], xs[0], 0.0
		for _, x := range xs {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
			sum += x
		}
		mean := sum / float64(len(xs))

		var sq float64
		for _, x := range xs {
			sq += (x - mean) * (x - mean)
		}

		rec.Set(FieldMin, formatFloat(lo))
		rec.Set(FieldMax, formatFloat(hi))
		rec.Set(FieldMean, formatFloat(mean))
		rec.Set(FieldStd, formatFloat(math.Sqrt(sq/float64(len(xs)))))
	}

	rec.Set(parsers.FieldValue, parsers.Truncate(fmt.Sprintf("%v", v), parsers.DefaultMaxStringify))
	return rec
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// =============================================================================
// Scalars
// =============================================================================

// ParseTime describes a time.Time.
func ParseTime(v any) parsers.Record {
	t, ok := v.(time.Time)
	if !ok {
		return fallback(v)
	}
	rec := parsers.NewRecord(parsers.TypeTag(v))
	rec.Set(parsers.FieldValue, t.Format(time.RFC3339Nano))
	rec.Set(FieldUnix, strconv.FormatInt(t.Unix(), 10))
	return rec
}

// ParseDuration describes a time.Duration.
func ParseDuration(v any) parsers.Record {
	d, ok := v.(time.Duration)
	if !ok {
		return fallback(v)
	}
	rec := parsers.NewRecord(parsers.TypeTag(v))
	rec.Set(parsers.FieldValue, d.String())
	rec.Set(FieldSeconds, formatFloat(d.Seconds()))
	return rec
}

// ParseUUID describes a uuid.UUID.
func ParseUUID(v any) parsers.Record {
	id, ok := v.(uuid.UUID)
	if !ok {
		return fallback(v)
	}
	rec := parsers.NewRecord(parsers.TypeTag(v))
	rec.Set(parsers.FieldValue, id.String())
	rec.Set(FieldVersion, strconv.Itoa(int(id.Version())))
	rec.Set(FieldVariant, id.Variant().String())
	return rec
}

// ParseBytes describes a byte slice with a hex preview of its first bytes.
func ParseBytes(v any) parsers.Record {
	b, ok := v.([]byte)
	if !ok {
		return fallback(v)
	}
	rec := parsers.NewRecord(parsers.TypeTag(v))
	rec.Set(parsers.FieldLen, strconv.Itoa(len(b)))

	preview := b
	if len(preview) > hexPreviewLen {
		preview = preview[:hexPreviewLen]
	}
	value := hex.EncodeToString(preview)
	if len(b) > hexPreviewLen {
		value += "..."
	}
	rec.Set(parsers.FieldValue, value)
	return rec
}

// =============================================================================
// Errors
// =============================================================================

func isError(v any) bool {
	_, ok := v.(error)
	return ok
}

// ParseError describes an error value. chain lists the dynamic types met by
// repeatedly unwrapping it, outermost first.
func ParseError(v any) parsers.Record {
	err, ok := v.(error)
	if !ok || parsers.IsNilRef(v) {
		return fallback(v)
	}
	rec := parsers.NewRecord(parsers.TypeTag(v))
	rec.Set(parsers.FieldValue, parsers.Truncate(err.Error(), parsers.DefaultMaxStringify))

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, parsers.TypeTag(e))
		if parsers.IsNilRef(e) {
			break
		}
	}
	rec.Set(FieldChain, strings.Join(chain, " -> "))
	return rec
}
