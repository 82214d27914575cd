// Package logging configures slog for the piso server and CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Options control the default logger.
type Options struct {
	// DevMode switches to human-readable text at debug level.
	DevMode bool
	// Level overrides the mode's default level when non-nil.
	Level slog.Leveler
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds a logger. Dev mode uses text at debug; otherwise JSON at info.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
		if opts.DevMode {
			level = slog.LevelDebug
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.DevMode {
		return slog.New(slog.NewTextHandler(out, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(out, handlerOpts))
}

// Setup installs New(opts) as the default slog logger.
func Setup(opts Options) {
	slog.SetDefault(New(opts))
}
