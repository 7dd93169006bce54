package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the Prometheus scrape endpoint on its own
// listener, separate from the API server.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the named service. An empty address
// disables the server; RunInBackground and Shutdown become no-ops.
func New(name, addr string, version string) (*MetricsServer, error) {
	serviceInfo.WithLabelValues(name, version).Set(1)
	if addr == "" {
		return &MetricsServer{}, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}, nil
}

// RunInBackground starts serving the scrape endpoint in a goroutine.
func (s *MetricsServer) RunInBackground() {
	if s.srv == nil {
		return
	}

	go func() {
		slog.Info("metrics server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
}

// Shutdown gracefully stops the scrape server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
