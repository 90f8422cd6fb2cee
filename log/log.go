// log/log.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time
}

// ParseLevel maps the command-line level names to slog levels; unknown
// names are reported and treated as info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level\n", level)
		return slog.LevelInfo
	}
}

// New returns a Logger that writes JSON records to a rotating
// sailpilot.slog file in dir. If dir is empty, the user's config directory
// is used. When echo is set, records are also written to stderr.
func New(level string, dir string, echo bool) *Logger {
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to find user config dir: %v", err)
			dir = "."
		}
		dir = filepath.Join(dir, "sailpilot")
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "sailpilot.slog"),
		MaxSize:    64, // MB
		MaxBackups: 14,
		Compress:   true,
	}
	if level == "debug" {
		w.MaxSize = 512
	}

	var out io.Writer = w
	if echo {
		out = io.MultiWriter(w, os.Stderr)
	}

	l := NewWithWriter(out, ParseLevel(level))
	l.LogFile = w.Filename
	l.LogDir = dir

	l.Info("Hello logging", slog.Time("start", l.Start))
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	if bi, ok := debug.ReadBuildInfo(); ok {
		var deps []any
		for _, dep := range bi.Deps {
			deps = append(deps, slog.String(dep.Path, dep.Version))
		}
		l.Info("Build",
			slog.String("Go version", bi.GoVersion),
			slog.String("Path", bi.Path),
			slog.Group("Dependencies", deps...))
	}

	return l
}

// NewWithWriter returns a Logger writing JSON records to w; it is mostly
// useful for tests and for the simulator, which log to a buffer.
func NewWithWriter(w io.Writer, lvl slog.Level) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		Logger: slog.New(h),
		Start:  time.Now(),
	}
}

// The Logger methods below accept a nil receiver. Debug and info records
// are then dropped; warnings and errors go to the default slog logger.
// Debug, warning and error records carry the caller's stack.

func (l *Logger) enabled(lvl slog.Level) bool {
	return l != nil && l.Logger.Enabled(context.Background(), lvl)
}

func (l *Logger) emit(lvl slog.Level, stack []StackFrame, msg string, args []any) {
	if stack != nil {
		args = append([]any{slog.Any("callstack", stack)}, args...)
	}
	if l == nil {
		slog.Log(context.Background(), lvl, msg, args...)
	} else {
		l.Logger.Log(context.Background(), lvl, msg, args...)
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) {
		l.emit(slog.LevelDebug, Callstack(nil), msg, args)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) {
		l.emit(slog.LevelInfo, nil, msg, args)
	}
}

// Infof logs a printf-formatted message with no attributes.
func (l *Logger) Infof(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) {
		l.emit(slog.LevelInfo, nil, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	l.emit(slog.LevelWarn, Callstack(nil), msg, args)
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.emit(slog.LevelWarn, Callstack(nil), fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Error(msg string, args ...any) {
	l.emit(slog.LevelError, Callstack(nil), msg, args)
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		LogDir:  l.LogDir,
		Start:   l.Start,
	}
}

// CatchAndReportCrash should be deferred at the top of long-running
// goroutines; it logs the panic and writes a crash report next to the log
// file before returning the recovered value.
func (l *Logger) CatchAndReportCrash() any {
	err := recover()
	if err != nil {
		l.Error("crashed", slog.Any("panic", err))

		report := fmt.Sprintf("Crashed: %v\n", err)
		report += "Sys: " + runtime.GOARCH + "/" + runtime.GOOS + "\n"
		report += string(debug.Stack())
		fmt.Fprintln(os.Stderr, report)

		if l != nil && l.LogDir != "" {
			fn := filepath.Join(l.LogDir, "crash-"+time.Now().Format("20060102T150405")+".txt")
			_ = os.WriteFile(fn, []byte(report), 0o600)
		}
	}
	return err
}
