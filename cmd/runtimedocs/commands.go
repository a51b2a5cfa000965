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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/runtimedocs/pkg/logging"
	"github.com/AleutianAI/runtimedocs/pkg/runtimedocs"
	"github.com/AleutianAI/runtimedocs/pkg/ux"
)

// cliOptions holds the global flags shared by every subcommand.
type cliOptions struct {
	dir       string // sink directory, default Settings.LogDir
	suffix    string // sink file suffix
	colorMode string // auto/always/never
	logLevel  string // diagnostics level
	logJSON   bool   // diagnostics as JSON
	logDir    string // diagnostics file directory

	logger *logging.Logger
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package variables, so tests can execute commands repeatedly.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "runtimedocs",
		Short: "Inspect the call logs written by instrumented functions",
		Long: `runtimedocs reads the per-function logs written by the runtimedocs
library: every call's arguments, caller, result, panic or error.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", "",
		"Directory of the sink files (default: settings log_dir, or the current directory)")
	flags.StringVar(&opts.suffix, "suffix", "", "Sink file suffix (default: .runtimedocs.log)")
	flags.StringVar(&opts.colorMode, "color", "",
		"Colour output: auto, always or never (or set RUNTIMEDOCS_COLOR)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Diagnostics level: debug, info, warn, error")
	flags.BoolVar(&opts.logJSON, "log-json", false, "Write diagnostics as JSON")
	flags.StringVar(&opts.logDir, "log-dir", "", "Also write diagnostics to a daily JSON file in this directory")

	rootCmd.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newTailCmd(opts),
		newDemoCmd(opts),
		newSettingsCmd(opts),
	)
	return rootCmd
}

// init applies the global flags: colour mode, diagnostics logger and the
// default sink directory.
func (o *cliOptions) init(cmd *cobra.Command) error {
	if o.colorMode != "" {
		ux.SetColorMode(ux.ParseColorMode(o.colorMode))
	} else {
		ux.InitColorMode()
	}

	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	o.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  o.logDir,
		Service: "runtimedocs",
		JSON:    o.logJSON,
		Output:  cmd.ErrOrStderr(),
	})
	slog.SetDefault(o.logger.Slog())

	if o.dir == "" {
		o.dir = runtimedocs.ProcessSettings().LogDir
	}
	o.logger.Debug("options resolved", "dir", o.dir, "color", string(ux.GetColorMode()))
	return nil
}
