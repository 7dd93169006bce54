package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrCertificateNotFound is returned when no certificate exists under
	// the requested id.
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrMissingField is returned when a certificate request lacks a field
	// required for issuance.
	ErrMissingField = errors.New("missing required field")
)

// CertificateStore persists destruction certificates as serialized JSON
// documents keyed by certificate id.
type CertificateStore interface {
	// Put stores a certificate document, replacing any prior document with
	// the same id.
	Put(ctx context.Context, id CertificateID, doc []byte) error

	// Get retrieves a certificate document by id.
	Get(ctx context.Context, id CertificateID) ([]byte, error)

	// List returns all stored certificate ids, newest first.
	List(ctx context.Context) ([]CertificateID, error)
}
