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

// Package logger provides the engine's process-wide leveled logger.
// It wraps log/slog behind the TRACE/DEBUG/INFO/WARNING/ERROR severity
// scale the rest of the codebase logs at, with a choice of text or
// JSON encoding and an optional rotating file sink.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wizmini/wizcore/internal/config"
)

// slogLevel maps our five-severity scale onto slog's four built-in
// levels, splitting TRACE below slog.LevelDebug.
const (
	levelTrace = slog.Level(-8)
)

func slogLevel(s config.LogSeverity) slog.Level {
	switch s {
	case config.TRACE:
		return levelTrace
	case config.DEBUG:
		return slog.LevelDebug
	case config.INFO:
		return slog.LevelInfo
	case config.WARNING:
		return slog.LevelWarn
	case config.ERROR:
		return slog.LevelError
	case config.OFF:
		return slog.Level(127)
	default:
		return slog.LevelInfo
	}
}

func severityName(l slog.Level) string {
	switch {
	case l <= levelTrace:
		return "TRACE"
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l <= slog.LevelInfo:
		return "INFO"
	case l <= slog.LevelWarn:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// loggerFactory owns the mutable pieces of the process-wide logger so
// that tests can swap the sink without racing the real one.
type loggerFactory struct {
	mu        sync.Mutex
	format    string // "text" or "json"
	level     *slog.LevelVar
	file      *lumberjack.Logger
	asyncFile *AsyncLogger
	sysWriter io.Writer
}

var (
	defaultLoggerFactory = &loggerFactory{
		format:    "text",
		level:     func() *slog.LevelVar { v := new(slog.LevelVar); v.Set(slog.LevelInfo); return v }(),
		sysWriter: os.Stderr,
	}
	defaultLogger = slog.New(defaultLoggerFactory.createHandler(os.Stderr, defaultLoggerFactory.level, "text"))

	initOnce     sync.Once
	debugEnabled bool
)

// createHandler builds the handler used for the given writer/level/format.
func (f *loggerFactory) createHandler(w io.Writer, level *slog.LevelVar, format string) slog.Handler {
	return &severityHandler{w: w, level: level, format: format}
}

// Init sets up the process-wide logger exactly once. Readers observe
// the pre-init default (text, INFO, stderr) until this runs; global
// debug state is set once and never reassigned afterward.
func Init(cfg config.LoggingConfig) error {
	var initErr error
	initOnce.Do(func() {
		debugEnabled = config.DebugEnabled()
		if cfg.Severity == "" {
			cfg.Severity = config.INFO
		}
		// WIZMINI_DEBUG=1 raises verbosity to at least DEBUG; an
		// explicitly configured TRACE is left alone.
		if debugEnabled && !config.Enabled(cfg.Severity, config.DEBUG) {
			cfg.Severity = config.DEBUG
		}

		level := new(slog.LevelVar)
		level.Set(slogLevel(cfg.Severity))

		var w io.Writer = os.Stderr
		if cfg.FilePath != "" {
			lj := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    maxInt(1, cfg.Rotate.MaxFileSizeMB),
				MaxBackups: cfg.Rotate.BackupFileCount,
				Compress:   cfg.Rotate.Compress,
			}
			async := NewAsyncLogger(lj, 4096)
			defaultLoggerFactory.asyncFile = async
			w = async
		}

		defaultLoggerFactory.mu.Lock()
		defaultLoggerFactory.format = cfg.Format
		defaultLoggerFactory.level = level
		defaultLoggerFactory.sysWriter = w
		defaultLoggerFactory.mu.Unlock()

		defaultLogger = slog.New(defaultLoggerFactory.createHandler(w, level, cfg.Format))
	})
	return initErr
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// IsDebugEnabled reports the set-once WIZMINI_DEBUG flag.
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetLoggingLevel changes the active threshold without rebuilding
// the handler.
func SetLoggingLevel(s config.LogSeverity) {
	defaultLoggerFactory.mu.Lock()
	defer defaultLoggerFactory.mu.Unlock()
	defaultLoggerFactory.level.Set(slogLevel(s))
}

// SetLogFormat switches between "text" and "json" encoding.
func SetLogFormat(format string) {
	defaultLoggerFactory.mu.Lock()
	defer defaultLoggerFactory.mu.Unlock()
	defaultLoggerFactory.format = format
	defaultLogger = slog.New(defaultLoggerFactory.createHandler(defaultLoggerFactory.sysWriter, defaultLoggerFactory.level, format))
}

func Tracef(format string, args...any) { logf(levelTrace, format, args...) }
func Debugf(format string, args...any) { logf(slog.LevelDebug, format, args...) }
func Infof(format string, args...any)  { logf(slog.LevelInfo, format, args...) }
func Warnf(format string, args...any)  { logf(slog.LevelWarn, format, args...) }
func Errorf(format string, args...any) { logf(slog.LevelError, format, args...) }

func logf(level slog.Level, format string, args...any) {
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Close flushes and closes any rotating file sink. Safe to call even
// if Init was never called with a FilePath.
func Close() error {
	defaultLoggerFactory.mu.Lock()
	async := defaultLoggerFactory.asyncFile
	defaultLoggerFactory.mu.Unlock()
	if async == nil {
		return nil
	}
	return async.Close()
}

// severityHandler is a minimal slog.Handler emitting either
// `time="..." severity=LEVEL message="..."` (text) or a compact JSON
// object with a {seconds,nanos} timestamp (json).
type severityHandler struct {
	w      io.Writer
	level  *slog.LevelVar
	format string
}

func (h *severityHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *severityHandler) Handle(_ context.Context, r slog.Record) error {
	sev := severityName(r.Level)
	switch h.format {
	case "json":
		_, err := fmt.Fprintf(h.w, "{\"timestamp\":{\"seconds\":%d,\"nanos\":%d},\"severity\":%q,\"message\":%q}\n",
			r.Time.Unix(), r.Time.Nanosecond(), sev, r.Message)
		return err
	default:
		_, err := fmt.Fprintf(h.w, "time=%q severity=%s message=%q\n", r.Time.Format(time.RFC3339Nano), sev, r.Message)
		return err
	}
}

func (h *severityHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *severityHandler) WithGroup(_ string) slog.Handler      { return h }
