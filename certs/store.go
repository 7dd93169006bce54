package certs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// Store persists certificate documents through a storage backend, which may
// be a single backend or a redundant multi-backend.
type Store struct {
	backend interfaces.StorageBackend
	log     *slog.Logger
}

// NewStore creates a certificate store over the given backend.
func NewStore(backend interfaces.StorageBackend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: backend, log: log}
}

// Put stores a certificate document, replacing any prior document with the
// same id.
func (s *Store) Put(ctx context.Context, id interfaces.CertificateID, doc []byte) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidParameter, err)
	}

	if err := s.backend.Store(ctx, interfaces.DocumentID(id), doc, interfaces.CertificateContent); err != nil {
		return fmt.Errorf("failed to store certificate %s: %w", id, err)
	}

	s.log.Debug("Stored certificate",
		slog.String("certificate_id", id.String()),
		slog.String("backend", s.backend.Name()))
	return nil
}

// Get retrieves a certificate document by id.
func (s *Store) Get(ctx context.Context, id interfaces.CertificateID) ([]byte, error) {
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidParameter, err)
	}

	doc, err := s.backend.Fetch(ctx, interfaces.DocumentID(id), interfaces.CertificateContent)
	if err != nil {
		if errors.Is(err, interfaces.ErrContentNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrCertificateNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch certificate %s: %w", id, err)
	}
	return doc, nil
}

// List returns all stored certificate ids, newest first. Ids embed their UTC
// issue date, so reverse-lexicographic order is reverse-chronological.
func (s *Store) List(ctx context.Context) ([]interfaces.CertificateID, error) {
	docs, err := s.backend.List(ctx, interfaces.CertificateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}

	ids := make([]interfaces.CertificateID, 0, len(docs))
	for _, doc := range docs {
		id := interfaces.CertificateID(doc)
		if id.Validate() != nil {
			// Foreign files in the backend are not certificates.
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

var _ interfaces.CertificateStore = (*Store)(nil)
