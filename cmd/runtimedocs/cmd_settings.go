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
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/runtimedocs/pkg/runtimedocs"
	"github.com/AleutianAI/runtimedocs/pkg/ux"
)

// newSettingsCmd prints the process settings as yaml.
//
// # Examples
//
//	runtimedocs settings
//	DISABLE_RUNTIMEDOCS=1 runtimedocs settings --save ~/.runtimedocs.yaml
func newSettingsCmd(opts *cliOptions) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the effective settings read from the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(cmd, opts, save)
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "Also write the settings to this yaml file")
	return cmd
}

func runSettings(cmd *cobra.Command, opts *cliOptions, save string) error {
	out := cmd.OutOrStdout()

	s, err := runtimedocs.SettingsFromEnv()
	if err != nil {
		ux.Warning(cmd.ErrOrStderr(), err.Error())
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	fmt.Fprint(out, string(data))

	if save == "" {
		return nil
	}
	if err := runtimedocs.SaveSettings(save, *s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ux.Success(cmd.ErrOrStderr(), "settings written to "+save)
	opts.logger.Debug("settings saved", "path", save)
	return nil
}
