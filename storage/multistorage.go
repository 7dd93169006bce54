package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// MultiStorageBackend implements interfaces.StorageBackend using multiple backends with fallback
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback
func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the document from the first available backend that has it.
// When every backend reports the document missing the sentinel
// ErrContentNotFound is preserved so callers can distinguish absence from
// outage.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.DocumentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	var errs []error
	allMissing := true

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("document_id", id.String()))
			allMissing = false
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil {
			m.log.Debug("Successfully fetched document",
				slog.String("backend_name", backend.Name()),
				slog.String("document_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if !errors.Is(err, interfaces.ErrContentNotFound) {
			allMissing = false
		}
		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("document_id", id.String()),
			"err", err)
	}

	if allMissing && len(errs) > 0 {
		return nil, interfaces.ErrContentNotFound
	}

	m.log.Error("All backends failed to fetch document",
		slog.String("document_id", id.String()),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %v", id, errs)
}

// Store saves the document to all available backends. The store succeeds if
// at least one backend accepted it.
func (m *MultiStorageBackend) Store(ctx context.Context, id interfaces.DocumentID, data []byte, contentType interfaces.ContentType) error {
	start := time.Now()
	var stored int
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		if err := backend.Store(ctx, id, data, contentType); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		m.log.Error("All backends failed to store document",
			slog.String("document_id", id.String()),
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("all backends failed to store %s: %v", id, errs)
	}

	m.log.Debug("Stored document",
		slog.String("document_id", id.String()),
		slog.Int("backends", stored),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// List returns the deduplicated union of all available backends' listings,
// sorted. Backends that fail to list only lose their entries; the union of
// the rest is still returned.
func (m *MultiStorageBackend) List(ctx context.Context, contentType interfaces.ContentType) ([]interfaces.DocumentID, error) {
	seen := make(map[interfaces.DocumentID]struct{})
	var listed bool

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			continue
		}

		ids, err := backend.List(ctx, contentType)
		if err != nil {
			m.log.Debug("Failed to list backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}
		listed = true
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	if !listed {
		return nil, fmt.Errorf("no backend could list documents")
	}

	ids := make([]interfaces.DocumentID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// Available checks if any backend is available
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the combined URI of all aggregated backends
func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
