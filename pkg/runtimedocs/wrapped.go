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

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/runtimedocs/pkg/callsite"
	"github.com/AleutianAI/runtimedocs/pkg/parsers"
	"github.com/AleutianAI/runtimedocs/pkg/sink"
)

var (
	bannerLine  = strings.Repeat("#", 100)
	sectionLine = strings.Repeat("-", 100)
	recordEnd   = strings.Repeat("-", 5)

	errorType = reflect.TypeOf((*error)(nil)).Elem()

	// wrapperFrames prefixes every frame of the wrapper machinery. The
	// caller walk skips them.
	wrapperFrames = reflect.TypeOf(wrapped{}).PkgPath() + ".(*wrapped)."
)

// wrapped holds the identity copied from the original function and the sink
// it logs to.
type wrapped struct {
	d        *Decorator
	fn       reflect.Value
	typ      reflect.Type
	id       callsite.Identity
	name     string
	pkg      string
	kwargs   bool
	declared string
	sink     *sink.Sink
}

// callRecord is the state of one invocation.
type callRecord struct {
	id         string
	caller     callsite.Identity
	positional []any
	named      []Kwarg
	start      time.Time
	end        time.Time
}

// panicked is a recovered panic and the stack it was raised on.
type panicked struct {
	value any
	stack []byte
}

func (w *wrapped) makeFunc(t reflect.Type) reflect.Value {
	return reflect.MakeFunc(t, w.call)
}

// call runs the logging protocol around one invocation:
// announce, declare, inspect, invoke, then success or failure.
func (w *wrapped) call(args []reflect.Value) []reflect.Value {
	rec := w.record(args)

	w.announce(rec)
	w.declare(rec)
	w.inspect(rec)

	rec.start = time.Now()
	results, p := w.invoke(args)
	rec.end = time.Now()

	if p != nil {
		w.reportPanic(p)
		panic(p.value)
	}
	if err := trailingError(w.typ, results); err != nil {
		w.reportError(err)
		return results
	}
	w.reportSuccess(rec, results)
	return results
}

// invoke calls the original function. Only panics raised by it are
// recovered here, so a failure of the instrumentation itself is never
// reported as a failure of the function.
func (w *wrapped) invoke(args []reflect.Value) (results []reflect.Value, p *panicked) {
	defer func() {
		if r := recover(); r != nil {
			p = &panicked{value: r, stack: debug.Stack()}
		}
	}()

	if w.typ.IsVariadic() {
		return w.fn.CallSlice(args), nil
	}
	return w.fn.Call(args), nil
}

func (w *wrapped) record(args []reflect.Value) *callRecord {
	rec := &callRecord{
		id:     uuid.NewString(),
		caller: callsite.Caller(w.d.cfg.CallerDepth, wrapperFrames),
	}

	fixed := args
	if w.typ.IsVariadic() {
		fixed = args[:len(args)-1]
	}
	for _, a := range fixed {
		rec.positional = append(rec.positional, a.Interface())
	}

	if w.typ.IsVariadic() {
		rest := args[len(args)-1]
		if w.kwargs {
			rec.named, _ = rest.Interface().([]Kwarg)
		} else {
			for i := 0; i < rest.Len(); i++ {
				rec.positional = append(rec.positional, rest.Index(i).Interface())
			}
		}
	}
	return rec
}

// =============================================================================
// Protocol Steps
// =============================================================================

func (w *wrapped) announce(rec *callRecord) {
	w.info(bannerLine)
	w.info(fmt.Sprintf("calling [%s] declared inside package [%s]", w.name, w.pkg))
	w.info(fmt.Sprintf("call id: [%s]", rec.id))
	w.info(fmt.Sprintf("caller name: [%s]", rec.caller))
	w.info(fmt.Sprintf("ran inside: hostname=[%s]", callsite.Hostname()))
	w.info(sectionLine)
}

func (w *wrapped) declare(rec *callRecord) {
	tags := make([]string, 0, len(rec.positional)+len(rec.named))
	for _, v := range rec.positional {
		tags = append(tags, parsers.TypeTag(v))
	}
	for _, kw := range rec.named {
		tags = append(tags, kw.Name+"="+parsers.TypeTag(kw.Value))
	}

	w.info("declared signature = " + w.declared)
	w.info(fmt.Sprintf("called   signature = %s(%s)", w.name, strings.Join(tags, ", ")))
	w.info(sectionLine)
}

func (w *wrapped) inspect(rec *callRecord) {
	w.info(fmt.Sprintf("Number of positional parameters: %d", len(rec.positional)))
	for i, v := range rec.positional {
		w.info(fmt.Sprintf("\t#%d:", i))
		w.describe(v)
	}

	w.info(fmt.Sprintf("Number of key word parameters: %d", len(rec.named)))
	for _, kw := range rec.named {
		w.info(fmt.Sprintf("\t%s:", kw.Name))
		w.describe(kw.Value)
	}
	w.info(sectionLine)
}

func (w *wrapped) reportSuccess(rec *callRecord, results []reflect.Value) {
	w.info(fmt.Sprintf("[%s] ran successfully in [%s]seconds and its returned value has these specs:",
		w.name, elapsedSeconds(rec.end.Sub(rec.start))))

	switch len(results) {
	case 0:
		w.info("single output return statement:")
		w.info("\t <no returned value>")
		w.info(recordEnd)
	case 1:
		w.info("single output return statement:")
		w.describe(results[0].Interface())
	default:
		w.info("returned value is a tuple and could be a multi output return statement:")
		for i, r := range results {
			w.info(fmt.Sprintf("\t#%d:", i))
			w.describe(r.Interface())
		}
	}
}

func (w *wrapped) reportPanic(p *panicked) {
	w.errorLine(fmt.Sprintf("!!!EXCEPTION!!! [%s] ran into an exception before exiting:", w.name))
	w.errorLine("")
	w.errorLine(fmt.Sprintf("panic: %v\n%s", p.value, strings.TrimRight(string(p.stack), "\n")))
}

func (w *wrapped) reportError(err error) {
	w.errorLine(fmt.Sprintf("!!!EXCEPTION!!! [%s] ran into an exception before exiting:", w.name))
	w.errorLine("")

	// A typed nil is non-nil to the caller but its methods may dereference
	// the receiver, so it is rendered without calling Error or Unwrap.
	if parsers.IsNilRef(err) {
		w.errorLine(fmt.Sprintf("error: %#v", err))
		return
	}
	lines := []string{fmt.Sprintf("error: %+v", err)}
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		if parsers.IsNilRef(e) {
			lines = append(lines, fmt.Sprintf("caused by: %#v", e))
			break
		}
		lines = append(lines, fmt.Sprintf("caused by: (%T) %v", e, e))
	}
	w.errorLine(strings.Join(lines, "\n"))
}

// describe writes the parsed record of v followed by the record separator.
func (w *wrapped) describe(v any) {
	for _, f := range w.d.registry.Parse(v) {
		w.info(fmt.Sprintf("\t %s = %s", f.Key, f.Value))
	}
	w.info(recordEnd)
}

// =============================================================================
// Sink Writes
// =============================================================================

func (w *wrapped) info(msg string) {
	if err := w.sink.Info(msg); err != nil {
		w.d.cfg.Logger.Warn("runtimedocs: sink write failed", "sink", w.sink.Name(), "error", err)
	}
}

func (w *wrapped) errorLine(msg string) {
	if err := w.sink.Error(msg); err != nil {
		w.d.cfg.Logger.Warn("runtimedocs: sink write failed", "sink", w.sink.Name(), "error", err)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// trailingError returns the last result when the function declares error as
// its last result and the value is non-nil.
func trailingError(t reflect.Type, results []reflect.Value) error {
	n := t.NumOut()
	if n == 0 || t.Out(n-1) != errorType || len(results) != n {
		return nil
	}
	last := results[n-1]
	if last.IsNil() {
		return nil
	}
	err, _ := last.Interface().(error)
	return err
}

// elapsedSeconds renders d in seconds rounded to four decimals.
func elapsedSeconds(d time.Duration) string {
	s := math.Round(d.Seconds()*1e4) / 1e4
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// declaredSignature renders "name(params) results" from the function type,
// using parameter names when they were supplied.
func declaredSignature(name string, t reflect.Type, names []string) string {
	params := make([]string, t.NumIn())
	for i := range params {
		typ := t.In(i).String()
		if t.IsVariadic() && i == t.NumIn()-1 {
			typ = "..." + t.In(i).Elem().String()
		}
		if i < len(names) && names[i] != "" {
			typ = names[i] + " " + typ
		}
		params[i] = typ
	}

	results := make([]string, t.NumOut())
	for i := range results {
		results[i] = t.Out(i).String()
	}

	sig := name + "(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
		return sig
	case 1:
		return sig + " " + results[0]
	default:
		return sig + " (" + strings.Join(results, ", ") + ")"
	}
}
