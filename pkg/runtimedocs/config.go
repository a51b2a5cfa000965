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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/runtimedocs/pkg/parsers"
	"github.com/AleutianAI/runtimedocs/pkg/sink"
)

// ErrInvalidConfig wraps every Config validation failure.
var ErrInvalidConfig = errors.New("invalid runtimedocs config")

// =============================================================================
// Shared Validator Instance
// =============================================================================

// configValidate is the validator instance for Config.
// Initialized in init() with custom validators.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()

	_ = configValidate.RegisterValidation("logsuffix", validateLogSuffix)
}

// validateLogSuffix accepts an empty suffix (the default) or one starting
// with a dot and free of path separators.
func validateLogSuffix(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return strings.HasPrefix(s, ".") && !strings.ContainsAny(s, `/\`)
}

// =============================================================================
// Config
// =============================================================================

// Config configures one decorator. Start from DefaultConfig; the zero value
// turns timestamps and scope prefixes off.
type Config struct {
	// ForceEnable instruments even when Settings.Disabled is set.
	ForceEnable bool `validate:"-"`

	// Verbosity > 0 attaches a console handler writing to Console.
	Verbosity int `validate:"gte=0"`

	// TimingInfo prefixes every log line with its timestamp.
	TimingInfo bool `validate:"-"`

	// DefaultParser describes values no registered parser matches.
	// Default: parsers.DefaultParse
	DefaultParser parsers.FallbackParser `validate:"-"`

	// MaxStringify clips the value rendering of DefaultParser.
	// 0 selects parsers.DefaultMaxStringify, -1 disables clipping.
	MaxStringify int `validate:"gte=-1"`

	// PrefixScope names the sink "<package>.<function>" instead of
	// "<function>". Ignored when SinkName is set.
	PrefixScope bool `validate:"-"`

	// SinkName overrides the derived sink name when non-blank.
	SinkName string `validate:"max=200"`

	// Suffix is appended to the sink name to form the file name.
	// Default: sink.DefaultSuffix
	Suffix string `validate:"logsuffix"`

	// ExtraHandlers are attached after the sink file, in order.
	ExtraHandlers []sink.Extra `validate:"-"`

	// CommonParsers is the built-in and extension tier.
	// Default: parsers.Common() at New time
	CommonParsers []parsers.Entry `validate:"-"`

	// CustomParsers is the user tier, consulted first.
	CustomParsers []parsers.Entry `validate:"-"`

	// CallerDepth walks that many extra frames outward when naming the
	// caller, for functions only ever called through a helper.
	CallerDepth int `validate:"gte=0,lte=32"`

	// Dir is the directory of the sink file.
	// Default: Settings.LogDir
	Dir string `validate:"-"`

	// Console receives the console handler output when Verbosity > 0.
	// Default: os.Stdout
	Console io.Writer `validate:"-"`

	// Logger receives the decorator's own diagnostics, such as a failed
	// write to a sink.
	// Default: slog.Default()
	Logger *slog.Logger `validate:"-"`

	// Settings are the process-wide switches.
	// Default: ProcessSettings()
	Settings *Settings `validate:"-"`
}

// DefaultConfig returns the documented defaults: timestamps on, scope
// prefix on, verbosity 0 and the default parsers.
func DefaultConfig() Config {
	return Config{
		TimingInfo:    true,
		PrefixScope:   true,
		MaxStringify:  parsers.DefaultMaxStringify,
		DefaultParser: parsers.DefaultParse,
	}
}

// Validate validates the Config fields.
//
// # Outputs
//
//   - error: Non-nil if validation failed, wrapping ErrInvalidConfig.
//
// # Examples
//
//	if err := cfg.Validate(); err != nil {
//	    return fmt.Errorf("decorate: %w", err)
//	}
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// withDefaults fills the unset optional fields.
func (c Config) withDefaults() Config {
	if c.DefaultParser == nil {
		c.DefaultParser = parsers.DefaultParse
	}
	if c.MaxStringify == 0 {
		c.MaxStringify = parsers.DefaultMaxStringify
	}
	if c.CommonParsers == nil {
		c.CommonParsers = parsers.Common()
	}
	if c.Console == nil {
		c.Console = os.Stdout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Settings == nil {
		c.Settings = ProcessSettings()
	}
	if c.Dir == "" {
		c.Dir = c.Settings.LogDir
	}
	if c.Suffix == "" {
		c.Suffix = sink.DefaultSuffix
	}
	c.ExtraHandlers = append([]sink.Extra(nil), c.ExtraHandlers...)
	c.CustomParsers = append([]parsers.Entry(nil), c.CustomParsers...)
	c.CommonParsers = append([]parsers.Entry(nil), c.CommonParsers...)
	return c
}
