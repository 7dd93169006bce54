// Package metrics exposes Prometheus instrumentation for the deletion
// protocol service: key lifecycle counters, ledger recording outcomes,
// HTTP traffic, and a scrape server that runs next to the API server.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deletion_protocol"

var (
	// KeysGenerated counts keys created over the process lifetime.
	KeysGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kms",
		Name:      "keys_generated_total",
		Help:      "Number of keys generated.",
	})

	// KeysDestroyed counts completed destructions.
	KeysDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kms",
		Name:      "keys_destroyed_total",
		Help:      "Number of keys destroyed.",
	})

	// KeyAccesses counts successful key material retrievals.
	KeyAccesses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kms",
		Name:      "key_accesses_total",
		Help:      "Number of successful key material retrievals.",
	})

	// LedgerRecordings counts destruction proofs recorded on the ledger.
	LedgerRecordings = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "recordings_total",
		Help:      "Number of destruction proofs recorded on the ledger.",
	})

	// LedgerFailures counts recording attempts the ledger rejected or that
	// could not be confirmed.
	LedgerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "failures_total",
		Help:      "Number of failed ledger recording attempts.",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	serviceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_info",
			Help:      "Service name and version.",
		},
		[]string{"service", "version"},
	)
)

// RecordHTTPRequest counts one served HTTP request. The path label should
// be the route pattern, not the raw URL, to keep cardinality bounded.
func RecordHTTPRequest(method, path string, status int) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
