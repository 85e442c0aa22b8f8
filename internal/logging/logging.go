// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zap logger from cores ("plugins"): one for
// stderr and, optionally, one for a size-rotated file.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Plugin is one output of the logger.
type Plugin = zapcore.Core

// Options select the outputs.
type Options struct {
	// File enables the rotated JSON log when non-empty.
	File string

	// Verbose lowers every output to debug.
	Verbose bool
}

// EncoderConfig uses ISO8601 times and upper-case levels.
func EncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// NewPlugin writes JSON to w for levels accepted by enabler.
func NewPlugin(w zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), w, enabler)
}

// NewConsolePlugin writes human-readable lines to w.
func NewConsolePlugin(w zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(EncoderConfig()), w, enabler)
}

// NewFilePlugin logs to a rotated file. lumberjack has no Sync, so the
// returned Closer must be closed before exit to flush it.
func NewFilePlugin(path string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		LocalTime:  true,
		Compress:   true,
	}
	return NewPlugin(zapcore.AddSync(w), enabler), w
}

// New combines plugins into a logger with caller info and stack traces
// from DPanic up.
func New(plugins ...Plugin) *zap.Logger {
	stackLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.DPanicLevel
	})
	return zap.New(zapcore.NewTee(plugins...), zap.AddCaller(), zap.AddStacktrace(stackLevel))
}

// Setup builds the process logger. Stderr carries warnings and errors so it
// does not drown the progress output; the file carries everything from info
// up. The returned func flushes and closes the outputs.
func Setup(opts Options) (*zap.Logger, func()) {
	stderrLevel, fileLevel := zapcore.WarnLevel, zapcore.InfoLevel
	if opts.Verbose {
		stderrLevel, fileLevel = zapcore.DebugLevel, zapcore.DebugLevel
	}

	plugins := []Plugin{NewConsolePlugin(zapcore.Lock(os.Stderr), stderrLevel)}
	var closer io.Closer
	if opts.File != "" {
		var p Plugin
		p, closer = NewFilePlugin(opts.File, fileLevel)
		plugins = append(plugins, p)
	}

	log := New(plugins...)
	return log, func() {
		_ = log.Sync()
		if closer != nil {
			_ = closer.Close()
		}
	}
}
