package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/api"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/common"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/metrics"
)

// Server hosts the deletion protocol API on one listener and the
// Prometheus scrape endpoint on another. Readiness is a soft switch:
// /drain flips the server to not-ready without interrupting in-flight
// requests.
type Server struct {
	cfg     *api.HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handler    *Handler
}

// New creates the API server around a configured request handler.
func New(cfg *api.HTTPServerConfig, handler *Handler) (srv *Server, err error) {
	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr, common.Version)
	if err != nil {
		return nil, err
	}

	srv = &Server{
		cfg:        cfg,
		log:        cfg.Log,
		srv:        nil,
		metricsSrv: metricsSrv,
		handler:    handler,
	}
	srv.isReady.Store(true)

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()
	mux.Use(srv.httpMetrics)

	// Key lifecycle
	mux.With(srv.httpLogger).Post("/api/v1/keys", srv.handler.HandleGenerateKey)
	mux.With(srv.httpLogger).Get("/api/v1/keys", srv.handler.HandleListKeys)
	mux.With(srv.httpLogger).Get("/api/v1/keys/{key_id}", srv.handler.HandleKeyMetadata)
	mux.With(srv.httpLogger).Post("/api/v1/keys/{key_id}/retrieve", srv.handler.HandleRetrieveKey)
	mux.With(srv.httpLogger).Post("/api/v1/keys/{key_id}/destroy", srv.handler.HandleDestroyKey)

	// On-chain deletion records
	mux.With(srv.httpLogger).Post("/api/v1/deletions/record", srv.handler.HandleRecordDeletions)
	mux.With(srv.httpLogger).Get("/api/v1/keys/{key_id}/deletion", srv.handler.HandleDeletionRecord)
	mux.With(srv.httpLogger).Get("/api/v1/keys/{key_id}/deletion/verify", srv.handler.HandleVerifyDeletion)

	// Destruction certificates
	mux.With(srv.httpLogger).Post("/api/v1/certificates", srv.handler.HandleCreateCertificate)
	mux.With(srv.httpLogger).Get("/api/v1/certificates", srv.handler.HandleListCertificates)
	mux.With(srv.httpLogger).Get("/api/v1/certificates/{certificate_id}", srv.handler.HandleGetCertificate)

	// Audit trail and operational counters
	mux.With(srv.httpLogger).Get("/api/v1/audit", srv.handler.HandleAuditQuery)
	mux.With(srv.httpLogger).Get("/api/v1/stats", srv.handler.HandleStats)

	// Health and diagnostic endpoints
	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/drain", srv.handleDrain)
	mux.With(srv.httpLogger).Get("/undrain", srv.handleUndrain)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

// httpMetrics counts every served request under its route pattern, so
// metric cardinality stays bounded by the route table.
func (srv *Server) httpMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		metrics.RecordHTTPRequest(r.Method, chi.RouteContext(r.Context()).RoutePattern(), ww.Status())
	})
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already draining"}`))
		return
	}

	srv.log.Info("Server marked as not ready")

	// The request must not block while load balancers catch up.
	go func() {
		time.Sleep(srv.cfg.DrainDuration)
		srv.log.Info("Drain period completed")
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"draining"}`))
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already ready"}`))
		return
	}

	srv.log.Info("Server marked as ready")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// RunInBackground starts the API and metrics listeners in goroutines.
func (srv *Server) RunInBackground() {
	srv.metricsSrv.RunInBackground()

	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

// Shutdown gracefully stops both listeners, bounded by the configured
// graceful shutdown duration.
func (srv *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	if len(srv.cfg.MetricsAddr) != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()

		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
}
