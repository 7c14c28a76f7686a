// Copyright 2025 The WizMini Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the engine's typed configuration: the few knobs
// the controller, index job, and search worker expose, plus resolution
// of the per-user state directory the Snapshot Store and persisted
// toggles (scope.txt, quick-help-dismissed.txt) live under.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const AppName = "WizMini"

// Config is the root configuration object, bound from flags/env/viper.
type Config struct {
	Logging    LoggingConfig
	Controller ControllerConfig
	Search     SearchConfig
	Index      IndexConfig
}

type LoggingConfig struct {
	// Format is "text" or "json".
	Format   string
	FilePath string
	Severity LogSeverity
	Rotate   LogRotateConfig
}

type LogRotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{MaxFileSizeMB: 10, BackupFileCount: 3, Compress: true}
}

// ControllerConfig holds the controller's tick and debounce tunables.
// The drain caps are empirical and exposed here rather than baked in
// as constants, so they can be revisited under profiling.
type ControllerConfig struct {
	AnimatingTick      time.Duration
	IdleVisibleTick    time.Duration
	HiddenTick         time.Duration
	QueryDebounce      time.Duration
	RefreshCooldown    time.Duration
	VisibilityDebounce time.Duration
	SearchDrainPerTick int
	IndexDrainPerTick  int
	FilenameIndexBatch int
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		AnimatingTick:      16 * time.Millisecond,
		IdleVisibleTick:    55 * time.Millisecond,
		HiddenTick:         80 * time.Millisecond,
		QueryDebounce:      70 * time.Millisecond,
		RefreshCooldown:    300 * time.Millisecond,
		VisibilityDebounce: 220 * time.Millisecond,
		SearchDrainPerTick: 24,
		IndexDrainPerTick:  2,
		FilenameIndexBatch: 1000,
	}
}

type SearchConfig struct {
	ResultCap     int
	ScanBatchSize int
	DefaultWindow time.Duration
	MaxWindow     time.Duration
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		ResultCap:     500,
		ScanBatchSize: 2000,
		DefaultWindow: 2 * time.Minute,
		MaxWindow:     24 * time.Hour,
	}
}

type IndexConfig struct {
	SnapshotChangeThreshold int
	SnapshotTimeThreshold   time.Duration
	// PollInterval paces the live USN tail between empty reads; the
	// read itself is zero-wait, so without this the loop would spin.
	PollInterval        time.Duration
	RecoveryBackoff     time.Duration
	HotkeyRetryInterval time.Duration
}

func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		SnapshotChangeThreshold: 4000,
		SnapshotTimeThreshold:   12 * time.Second,
		PollInterval:            500 * time.Millisecond,
		RecoveryBackoff:         300 * time.Millisecond,
		HotkeyRetryInterval:     1200 * time.Millisecond,
	}
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Format:   "text",
			Severity: INFO,
			Rotate:   DefaultLogRotateConfig(),
		},
		Controller: DefaultControllerConfig(),
		Search:     DefaultSearchConfig(),
		Index:      DefaultIndexConfig(),
	}
}

// BindFlags registers the CLI flags this engine reads and binds each
// to its viper key.
func BindFlags(flagSet *pflag.FlagSet) error {
	flagSet.String("scope", "", "Initial search scope: current-folder, entire-current-drive, all-local-drives, or a drive letter like c:")
	if err := viper.BindPFlag("scope", flagSet.Lookup("scope")); err != nil {
		return err
	}

	flagSet.Bool("hide", false, "Start with the panel hidden.")
	if err := viper.BindPFlag("hide", flagSet.Lookup("hide")); err != nil {
		return err
	}
	flagSet.Bool("hidden", false, "Alias of --hide.")
	if err := viper.BindPFlag("hidden", flagSet.Lookup("hidden")); err != nil {
		return err
	}

	flagSet.Bool("show", false, "Force the panel visible on startup, overriding --hide.")
	return viper.BindPFlag("show", flagSet.Lookup("show"))
}

// StateDir resolves the per-user local app directory persisted state
// lives under: LOCALAPPDATA/<AppName>, falling back to
// the current directory when LOCALAPPDATA is unset.
func StateDir() string {
	root := os.Getenv("LOCALAPPDATA")
	if root == "" {
		root = "."
	}
	return filepath.Join(root, AppName)
}

// DebugEnabled reports whether WIZMINI_DEBUG=1 was set at process
// start. It is read once; see internal/logger for the set-once guard.
func DebugEnabled() bool {
	return os.Getenv("WIZMINI_DEBUG") == "1"
}
