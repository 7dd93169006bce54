package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig contains all configuration parameters for the API
// server.
type HTTPServerConfig struct {
	// ListenAddr is the address and port the API server listens on.
	ListenAddr string

	// MetricsAddr is the address and port for the Prometheus scrape
	// endpoint. Empty disables the metrics server.
	MetricsAddr string

	// EnablePprof mounts the pprof debugging API when true.
	EnablePprof bool

	// Log is the structured logger for server operations.
	Log *slog.Logger

	// DrainDuration is how long the server keeps serving after being
	// marked not ready, so load balancers can observe the change before
	// shutdown.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds the wait for in-flight requests
	// during shutdown.
	GracefulShutdownDuration time.Duration

	// ReadTimeout bounds reading an entire request, body included.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration
}
