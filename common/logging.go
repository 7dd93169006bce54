// Package common provides shared service identity and logger setup used by
// every binary in this repository.
package common

import (
	"log/slog"
	"os"
)

// PackageName identifies this service in logs and metrics namespaces.
const PackageName = "deletion-protocol"

// Version is the service version, overridable at build time via ldflags.
var Version = "dev"

// LoggingOpts configures the root logger for a binary.
type LoggingOpts struct {
	// Debug enables debug-level logging.
	Debug bool

	// JSON switches the handler to JSON output (text otherwise).
	JSON bool

	// Service is attached as a "service" attribute to every record.
	Service string

	// Version is attached as a "version" attribute to every record.
	Version string
}

// SetupLogger builds a slog.Logger according to opts and installs it as the
// process default.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}

	slog.SetDefault(logger)
	return logger
}
