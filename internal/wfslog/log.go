// Package wfslog wraps charmbracelet/log with a small set of level helpers.
// Callers log at a few boundaries: the engine when Prepare succeeds, the CLI
// when a command fails, and the audio backend when a callback's Process
// fails. Start, Stop and the underrun/overrun counters are not logged, and
// per-sample DSP code never logs.
package wfslog

import (
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
	Prefix:          "wfsrender",
})

// Default returns the package-level logger, for callers that want to attach
// their own fields via With.
func Default() *log.Logger { return std }

// Debug logs at debug level.
func Debug(msg string, kv ...any) { std.Debug(msg, kv...) }

// Info logs at info level.
func Info(msg string, kv ...any) { std.Info(msg, kv...) }

// Warn logs at warn level.
func Warn(msg string, kv ...any) { std.Warn(msg, kv...) }

// Error logs at error level.
func Error(msg string, kv ...any) { std.Error(msg, kv...) }

// SetLevel adjusts the minimum level reported by the default logger.
func SetLevel(level log.Level) { std.SetLevel(level) }
