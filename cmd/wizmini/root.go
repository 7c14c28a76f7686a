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

// Command wizmini is the core engine's CLI entry point: it parses the
// engine's CLI flags, wires logging/metrics/snapshot storage,
// resolves the initial SearchScope and panel visibility, and drives
// the Controller's tick loop until interrupted. It intentionally does
// not render anything — window chrome, the tray, and slash-command
// parsing are external collaborators that would consume
// this same ControllerIntent/ViewModel contract from a separate
// process or package; this binary only proves the core runs
// end-to-end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wizmini/wizcore/internal/clock"
	"github.com/wizmini/wizcore/internal/config"
	"github.com/wizmini/wizcore/internal/controller"
	"github.com/wizmini/wizcore/internal/logger"
	"github.com/wizmini/wizcore/internal/metrics"
	"github.com/wizmini/wizcore/internal/scope"
	"github.com/wizmini/wizcore/internal/snapshot"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wizmini",
	Short: "Near-real-time NTFS filename index and search engine",
	Long: `wizmini maintains an in-memory index of every file on selected NTFS
volumes and serves sub-50ms substring/wildcard queries against it. This
binary hosts the indexing and query core; window chrome, the tray, and
the slash-command parser live outside it.`,
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file overriding engine tunables")
	if err := config.BindFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("wizmini: binding flags: %v", err))
	}
	cobra.OnInitialize(initViperConfig)
}

func initViperConfig() {
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	_ = viper.ReadInConfig() // absent/invalid config file just leaves defaults + flags in place
}

// Execute runs the root command; main's sole responsibility is to call
// this and translate a returned error into a nonzero exit code:
// 0 normal, nonzero only on a fatal initialization error.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	stateDir := config.StateDir()

	logPath, logErr := openDebugLogPath(stateDir)
	logCfg := config.Default().Logging
	logCfg.FilePath = logPath
	if logErr != nil {
		// Neither candidate location is writable: fall back to stderr
		// rather than treat this as the one fatal-init condition by
		// itself; that is reserved for losing every sink AND the state
		// dir AND the event pump.
		logCfg.FilePath = ""
	}
	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("wizmini: initializing logger: %w", err)
	}
	defer logger.Close()

	providers, err := metrics.Setup(logWriterOrDiscard())
	if err != nil {
		return fmt.Errorf("wizmini: initializing metrics/tracing: %w", err)
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelShutdown()
	defer func() { _ = providers.Shutdown(shutdownCtx) }()

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("wizmini: constructing instruments: %w", err)
	}

	sc, err := resolveScope(stateDir)
	if err != nil {
		return err
	}
	visible := resolveVisibility()

	store := snapshot.NewStore(stateDir)
	clk := clock.RealClock{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := controller.New(ctx, viperControllerConfig(), config.DefaultSearchConfig(), config.DefaultIndexConfig(), clk, store, stateDir, m, providers.Tracer, sc)
	ctrl.NotifyVisibility(clk.Now(), visible)
	defer ctrl.Close()

	logger.Infof("wizmini: starting, scope=%s visible=%v stateDir=%s", sc.Label(), visible, stateDir)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tick := time.NewTicker(config.DefaultControllerConfig().IdleVisibleTick)
	defer tick.Stop()

	for {
		select {
		case <-sigCtx.Done():
			logger.Infof("wizmini: shutting down")
			return nil
		case now := <-tick.C:
			ctrl.Tick(now)
			if ctrl.Exiting() {
				return nil
			}
		}
	}
}

// viperControllerConfig starts from the compiled-in defaults; a
// --config-file can override individual durations via viper without
// recompiling.
func viperControllerConfig() config.ControllerConfig {
	c := config.DefaultControllerConfig()
	if viper.IsSet("controller.animatingTickMs") {
		c.AnimatingTick = time.Duration(viper.GetInt64("controller.animatingTickMs")) * time.Millisecond
	}
	if viper.IsSet("controller.idleVisibleTickMs") {
		c.IdleVisibleTick = time.Duration(viper.GetInt64("controller.idleVisibleTickMs")) * time.Millisecond
	}
	if viper.IsSet("controller.hiddenTickMs") {
		c.HiddenTick = time.Duration(viper.GetInt64("controller.hiddenTickMs")) * time.Millisecond
	}
	return c
}

// resolveScope honors --scope when given, else the persisted
// scope.txt, else AllLocalDrives.
func resolveScope(stateDir string) (scope.Scope, error) {
	if s := viper.GetString("scope"); s != "" {
		parsed, err := scope.Parse(s)
		if err != nil {
			return scope.Scope{}, fmt.Errorf("wizmini: --scope: %w", err)
		}
		return parsed, nil
	}
	if label := config.LoadScopeLabel(stateDir); label != "" {
		if parsed, err := scope.Parse(label); err == nil {
			return parsed, nil
		}
	}
	return scope.NewAllLocalDrives(), nil
}

// resolveVisibility decides the starting panel state: --show wins
// outright, else --hide/--hidden hides, else the panel starts visible.
func resolveVisibility() bool {
	if viper.GetBool("show") {
		return true
	}
	if viper.GetBool("hide") || viper.GetBool("hidden") {
		return false
	}
	return true
}

// openDebugLogPath tries LOCALAPPDATA first, then alongside the
// running executable; the first writable location wins.
func openDebugLogPath(stateDir string) (string, error) {
	candidate := filepath.Join(stateDir, config.AppName+"-debug.log")
	if probeWritable(candidate) {
		return candidate, nil
	}
	if exe, err := os.Executable(); err == nil {
		alt := filepath.Join(filepath.Dir(exe), config.AppName+"-debug.log")
		if probeWritable(alt) {
			return alt, nil
		}
	}
	return "", fmt.Errorf("no writable location for debug log")
}

func probeWritable(path string) bool {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func logWriterOrDiscard() *os.File {
	// metrics.Setup wants a writer for its stdout span exporter; reuse
	// stderr so span output interleaves with the text logger rather
	// than opening a third sink.
	return os.Stderr
}
