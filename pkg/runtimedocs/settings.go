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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Environment variables read by SettingsFromEnv.
const (
	// EnvDisable is read with ParseToggle. "false", "0" and the other false
	// spellings of strconv.ParseBool leave instrumentation enabled. Any other
	// non-empty value disables it.
	EnvDisable = "DISABLE_RUNTIMEDOCS"
	EnvConfig  = "RUNTIMEDOCS_CONFIG"
	EnvLogDir  = "RUNTIMEDOCS_LOG_DIR"
)

// Settings are the process-wide switches shared by every decorator.
type Settings struct {
	// Disabled turns decoration into a no-op unless Config.ForceEnable is set.
	Disabled bool `yaml:"disabled"`

	// LogDir is the default directory of sink files. Supports ~ expansion.
	// Default: "" (current directory)
	LogDir string `yaml:"log_dir"`
}

// DefaultSettings returns enabled settings writing to the current directory.
func DefaultSettings() Settings {
	return Settings{}
}

// LoadSettings reads settings from a yaml file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the settings file: %w", err)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse the settings file %s: %w", path, err)
	}
	return &s, nil
}

// SaveSettings writes settings as yaml, creating the directory if needed.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the settings directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SettingsFromEnv builds settings from the environment.
//
// # Description
//
// Sources are applied in order, later ones winning:
//
//  1. the yaml file named by RUNTIMEDOCS_CONFIG, when set
//  2. DISABLE_RUNTIMEDOCS, parsed with ParseToggle
//  3. RUNTIMEDOCS_LOG_DIR
//
// # Outputs
//
//   - *Settings: The merged settings. Never nil, even on error.
//   - error: The settings file could not be read or parsed. The returned
//     settings still carry the environment overrides.
func SettingsFromEnv() (*Settings, error) {
	s := DefaultSettings()

	var err error
	if path := os.Getenv(EnvConfig); path != "" {
		var loaded *Settings
		if loaded, err = LoadSettings(path); err == nil {
			s = *loaded
		}
	}

	if v, ok := os.LookupEnv(EnvDisable); ok {
		s.Disabled = ParseToggle(v)
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		s.LogDir = v
	}
	return &s, err
}

// ParseToggle interprets an environment toggle. Empty means false, values
// understood by strconv.ParseBool mean what they say, and any other
// non-empty value means true.
func ParseToggle(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

var (
	processSettings *Settings
	settingsOnce    sync.Once
)

// ProcessSettings returns the settings read from the environment the first
// time it is called. Later changes to the environment are not seen.
func ProcessSettings() *Settings {
	settingsOnce.Do(func() {
		s, err := SettingsFromEnv()
		if err != nil {
			slog.Warn("runtimedocs: ignoring settings file", "env", EnvConfig, "error", err)
		}
		processSettings = s
	})
	return processSettings
}
