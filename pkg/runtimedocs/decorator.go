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
	"reflect"
	"strings"

	"github.com/AleutianAI/runtimedocs/pkg/callsite"
	"github.com/AleutianAI/runtimedocs/pkg/parsers"
	"github.com/AleutianAI/runtimedocs/pkg/sink"
	"github.com/AleutianAI/runtimedocs/pkg/validation"
)

// ErrNotFunc is returned when the value to instrument is not a non-nil
// function.
var ErrNotFunc = errors.New("runtimedocs: not a function")

// =============================================================================
// Decorator
// =============================================================================

// Decorator instruments functions with one immutable configuration.
//
// A Decorator is safe for concurrent use. Decorate functions before handing
// them to concurrent callers: opening a sink touches the process-wide sink
// table.
type Decorator struct {
	cfg      Config
	registry *parsers.Registry
}

// New validates cfg, fills its defaults and builds the parser registry.
//
// # Description
//
// The registry is resolved once here: extensions registered after New are
// not seen by this decorator. Settings are captured too, so the bypass rule
// is decided with the settings in effect when New ran.
//
// # Inputs
//
//   - cfg: Decorator configuration, usually derived from DefaultConfig.
//
// # Outputs
//
//   - *Decorator: Ready to instrument functions.
//   - error: Wraps ErrInvalidConfig when cfg fails validation.
//
// # Example
//
//	cfg := runtimedocs.DefaultConfig()
//	cfg.Verbosity = 1
//	d, err := runtimedocs.New(cfg)
//	if err != nil {
//	    return err
//	}
//	add := runtimedocs.Wrap(d, func(a, b int) int { return a + b })
func New(cfg Config) (*Decorator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &Decorator{
		cfg:      cfg,
		registry: parsers.NewRegistry(cfg.CustomParsers, cfg.CommonParsers, cfg.DefaultParser, cfg.MaxStringify),
	}, nil
}

// MustNew is like New but panics on an invalid config.
func MustNew(cfg Config) *Decorator {
	d, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return d
}

// Config returns a copy of the effective configuration.
func (d *Decorator) Config() Config { return d.cfg }

// Registry returns the parser registry used for arguments and results.
func (d *Decorator) Registry() *parsers.Registry { return d.registry }

// Enabled reports whether Instrument wraps functions. It is false when the
// settings disable instrumentation and ForceEnable is not set.
func (d *Decorator) Enabled() bool {
	return !d.cfg.Settings.Disabled || d.cfg.ForceEnable
}

// =============================================================================
// Wrap Options
// =============================================================================

// WrapOption adjusts the identity copied into one wrapper.
type WrapOption func(*wrapOptions)

type wrapOptions struct {
	name   string
	params []string
}

// WithName replaces the function name shown in the log and used to derive
// the sink name. Useful for closures, which otherwise appear as "func1".
func WithName(name string) WrapOption {
	return func(o *wrapOptions) { o.name = name }
}

// WithParams names the declared parameters, in order. Reflection does not
// expose parameter names, so without this the declared signature lists
// types only.
func WithParams(names ...string) WrapOption {
	return func(o *wrapOptions) { o.params = append([]string(nil), names...) }
}

// =============================================================================
// Instrumentation
// =============================================================================

// Instrument returns a function of the same type as fn that logs every call
// to fn in the sink resolved for it.
//
// # Description
//
// When the decorator is not Enabled, fn is returned unchanged and no sink is
// created. Otherwise the identity of fn (name, package, declared signature)
// is copied into the wrapper, the sink is opened with the console handler
// (Verbosity > 0), the sink file and the extra handlers, and a wrapper built
// with reflect.MakeFunc is returned.
//
// # Inputs
//
//   - d: The decorator.
//   - fn: A non-nil function of any signature.
//   - opts: Identity adjustments.
//
// # Outputs
//
//   - F: The wrapper, or fn itself when instrumentation is disabled.
//   - error: ErrNotFunc, or a failure to open the sink. fn is returned with
//     the error so callers may fall back to it.
func Instrument[F any](d *Decorator, fn F, opts ...WrapOption) (F, error) {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return fn, fmt.Errorf("%w: %T", ErrNotFunc, fn)
	}
	if !d.Enabled() {
		return fn, nil
	}

	w, err := d.newWrapped(rv, opts)
	if err != nil {
		return fn, err
	}
	return w.makeFunc(rv.Type()).Interface().(F), nil
}

// Wrap is like Instrument but panics on error. It suits package-level
// decoration:
//
//	var compute = runtimedocs.Wrap(docs, computeImpl)
func Wrap[F any](d *Decorator, fn F, opts ...WrapOption) F {
	out, err := Instrument(d, fn, opts...)
	if err != nil {
		panic(err)
	}
	return out
}

// IdentityOf describes fn the way a wrapper built from it would report it.
func IdentityOf(fn any, opts ...WrapOption) callsite.Identity {
	id := callsite.Describe(fn)
	o := collect(opts)
	if o.name != "" {
		id.Receiver, id.Name = "", o.name
	}
	return id
}

func collect(opts []WrapOption) wrapOptions {
	var o wrapOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// SinkName applies the naming policy: a non-blank override wins, otherwise
// "<package>.<function>" when prefixScope is set, else "<function>". The
// result is sanitized for use as a file name.
func SinkName(override string, prefixScope bool, id callsite.Identity) (string, error) {
	if name := strings.TrimSpace(override); name != "" {
		return validation.SanitizeSinkName(name)
	}
	name := id.ShortName()
	if prefixScope && id.Package != "" {
		name = id.Package + "." + name
	}
	return validation.SanitizeSinkName(name)
}

func (d *Decorator) newWrapped(fn reflect.Value, opts []WrapOption) (*wrapped, error) {
	o := collect(opts)
	id := IdentityOf(fn.Interface(), opts...)

	name, err := SinkName(d.cfg.SinkName, d.cfg.PrefixScope, id)
	if err != nil {
		return nil, fmt.Errorf("runtimedocs: sink name for %s: %w", id, err)
	}

	spec := sink.Spec{
		Name:       name,
		Dir:        d.cfg.Dir,
		Suffix:     d.cfg.Suffix,
		TimingInfo: d.cfg.TimingInfo,
		Extras:     d.cfg.ExtraHandlers,
	}
	if d.cfg.Verbosity > 0 {
		spec.Console = d.cfg.Console
	}

	s, err := sink.Open(spec)
	if err != nil {
		return nil, fmt.Errorf("runtimedocs: %w", err)
	}

	pkg := id.PkgPath
	if pkg == "" {
		pkg = callsite.UnknownName
	}

	return &wrapped{
		d:        d,
		fn:       fn,
		typ:      fn.Type(),
		id:       id,
		name:     id.ShortName(),
		pkg:      pkg,
		kwargs:   takesKwargs(fn.Type()),
		declared: declaredSignature(id.ShortName(), fn.Type(), o.params),
		sink:     s,
	}, nil
}
