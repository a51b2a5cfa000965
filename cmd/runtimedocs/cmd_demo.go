// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	_ "github.com/AleutianAI/runtimedocs/pkg/parsers/extra"
	"github.com/AleutianAI/runtimedocs/pkg/runtimedocs"
	"github.com/AleutianAI/runtimedocs/pkg/sink"
	"github.com/AleutianAI/runtimedocs/pkg/ux"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// newDemoCmd instruments a few sample functions and calls them once each.
//
// # Description
//
// Covers every path of the call log: a plain result, a multi-value result,
// a slice handled by the extension parsers, named arguments, a returned
// error and a panic. The panic is recovered by the demo after the wrapper
// has logged and re-raised it.
//
// # Examples
//
//	runtimedocs demo
//	runtimedocs demo --dir /tmp/docs -v
func newDemoCmd(opts *cliOptions) *cobra.Command {
	var (
		verbose bool
		noTime  bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Instrument sample functions and write their call logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts, verbose, !noTime)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Echo the call logs to stdout")
	cmd.Flags().BoolVar(&noTime, "no-time", false, "Omit the per-line timestamps")
	return cmd
}

// =============================================================================
// SAMPLE FUNCTIONS
// =============================================================================

var errOutOfRange = errors.New("port out of range")

func add(a, b int) int { return a + b }

func divmod(a, b int) (int, int) { return a / b, a % b }

func mean(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func checkout(order uuid.UUID, kw ...runtimedocs.Kwarg) string {
	qty := 1
	if v, ok := runtimedocs.Lookup(kw, "qty"); ok {
		qty, _ = v.(int)
	}
	return fmt.Sprintf("%s x%d", order, qty)
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse port %q: %w", s, err)
	}
	if n < 1 || n > math.MaxUint16 {
		return 0, fmt.Errorf("parse port %d: %w", n, errOutOfRange)
	}
	return n, nil
}

func sqrt(x float64) float64 {
	if x < 0 {
		panic(fmt.Sprintf("sqrt of negative number %g", x))
	}
	return math.Sqrt(x)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

type demoStep struct {
	sink string
	note string
}

func runDemo(cmd *cobra.Command, opts *cliOptions, verbose, timing bool) error {
	out := cmd.OutOrStdout()

	cfg := runtimedocs.DefaultConfig()
	cfg.ForceEnable = true
	cfg.TimingInfo = timing
	cfg.Dir = opts.dir
	cfg.Suffix = opts.suffix
	cfg.Console = out
	cfg.Logger = opts.logger.Slog()
	if verbose {
		cfg.Verbosity = 1
	}

	docs, err := runtimedocs.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.CloseAll(); err != nil {
			opts.logger.Warn("closing sinks", "error", err)
		}
	}()

	var steps []demoStep
	record := func(fn any, note string, wopts ...runtimedocs.WrapOption) {
		name, err := runtimedocs.SinkName(cfg.SinkName, cfg.PrefixScope, runtimedocs.IdentityOf(fn, wopts...))
		if err != nil {
			name = "?"
		}
		steps = append(steps, demoStep{sink: name, note: note})
	}

	addDocs, err := runtimedocs.Instrument(docs, add, runtimedocs.WithParams("a", "b"))
	if err != nil {
		return err
	}
	record(add, fmt.Sprintf("returned %d", addDocs(2, 3)))

	q, r := runtimedocs.Wrap(docs, divmod, runtimedocs.WithParams("a", "b"))(17, 5)
	record(divmod, fmt.Sprintf("returned (%d, %d)", q, r))

	avg := runtimedocs.Wrap(docs, mean, runtimedocs.WithParams("xs"))([]float64{1.5, 2.5, 3.5, 4.5})
	record(mean, fmt.Sprintf("returned %g", avg))

	receipt := runtimedocs.Wrap(docs, checkout, runtimedocs.WithParams("order", "kw"))(uuid.New(), runtimedocs.Kw("qty", 3))
	record(checkout, "returned "+strconv.Quote(receipt))

	if _, err := runtimedocs.Wrap(docs, parsePort, runtimedocs.WithParams("s"))("70000"); err != nil {
		record(parsePort, "error logged: "+err.Error())
	}

	if p := recoverValue(func() { runtimedocs.Wrap(docs, sqrt, runtimedocs.WithParams("x"))(-4) }); p != nil {
		record(sqrt, fmt.Sprintf("panic logged and recovered: %v", p))
	}

	ux.Title(out, "runtimedocs demo")
	for _, step := range steps {
		path := step.sink
		if s, ok := sink.Lookup(step.sink); ok {
			path = s.Path()
		}
		ux.FileStatus(out, path, ux.IconSuccess, step.note)
	}
	ux.Info(out, "inspect with: runtimedocs show <sink>")

	opts.logger.Info("demo finished", "sinks", len(steps), "dir", displayDir(opts.dir))
	return nil
}

// recoverValue runs f and returns the value it panicked with, if any.
func recoverValue(f func()) (p any) {
	defer func() { p = recover() }()
	f()
	return nil
}
