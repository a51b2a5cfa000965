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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/runtimedocs/pkg/ux"
	"github.com/AleutianAI/runtimedocs/pkg/viewer"
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// newListCmd lists the sink files of a directory.
//
// # Examples
//
//	runtimedocs list
//	runtimedocs list ~/.runtimedocs
func newListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List sink files with their size and last write time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if len(args) == 1 {
				dir = args[0]
			}
			return runList(cmd, opts, dir)
		},
	}
}

// newShowCmd prints whole sink files.
//
// # Examples
//
//	runtimedocs show calc.Add
//	runtimedocs show ./logs/calc.Add.runtimedocs.log
func newShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <sink|file>...",
		Short: "Print sink files, styled when writing to a terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args)
		},
	}
}

// newTailCmd prints the end of sink files and optionally follows them.
//
// # Examples
//
//	runtimedocs tail calc.Add
//	runtimedocs tail -n 50 -f calc.Add calc.Sub
func newTailCmd(opts *cliOptions) *cobra.Command {
	var (
		lines  int
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "tail <sink|file>...",
		Short: "Print the last lines of sink files, and follow them with -f",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(cmd, opts, args, lines, follow)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to print (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	return cmd
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runList(cmd *cobra.Command, opts *cliOptions, dir string) error {
	out := cmd.OutOrStdout()

	files, err := viewer.Discover(dir, opts.suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		ux.Info(out, fmt.Sprintf("no sink files in %s", displayDir(dir)))
		return nil
	}

	var total int64
	for _, f := range files {
		total += f.Size
		note := fmt.Sprintf("%s, %s", ux.HumanBytes(f.Size), f.ModTime.Format("2006-01-02 15:04:05"))
		ux.FileStatus(out, f.Name, ux.IconBullet, note)
	}
	ux.Summary(out, len(files), total)
	return nil
}

func runShow(cmd *cobra.Command, opts *cliOptions, args []string) error {
	out := cmd.OutOrStdout()
	styled := ux.ShouldStyle(out)

	paths, err := resolveAll(opts, args)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if len(paths) > 1 {
			ux.Title(out, viewer.NameOf(path, opts.suffix))
		}
		if err := showFile(path, out, styled); err != nil {
			return err
		}
	}
	return nil
}

func showFile(path string, out io.Writer, styled bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return viewer.Render(f, out, styled)
}

func runTail(cmd *cobra.Command, opts *cliOptions, args []string, n int, follow bool) error {
	out := cmd.OutOrStdout()
	styled := ux.ShouldStyle(out)

	paths, err := resolveAll(opts, args)
	if err != nil {
		return err
	}

	for _, path := range paths {
		lines, err := viewer.Tail(path, n)
		if err != nil {
			return err
		}
		if len(paths) > 1 {
			ux.Title(out, viewer.NameOf(path, opts.suffix))
		}
		if err := viewer.RenderLines(lines, out, styled); err != nil {
			return err
		}
	}

	if !follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts.logger.Debug("following sinks", "count", len(paths))
	return viewer.FollowAll(ctx, paths, out, styled, opts.suffix)
}

// =============================================================================
// HELPERS
// =============================================================================

func resolveAll(opts *cliOptions, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := viewer.ResolvePath(arg, opts.dir, opts.suffix)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
