package api

import (
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// KeyServiceProvider defines the client-side interface for the key
// management API. It abstracts key generation, retrieval and destruction
// against a running deletion protocol server.
type KeyServiceProvider interface {
	// GenerateKey creates a new key and returns its metadata.
	GenerateKey(req GenerateKeyRequest) (*interfaces.KeyMetadata, error)

	// ListKeys returns metadata for keys matching the owner and state
	// filters. Empty filters match everything.
	ListKeys(ownerID string, state interfaces.KeyState) (*ListKeysResponse, error)

	// KeyMetadata returns one key's metadata, tombstones included.
	KeyMetadata(keyID interfaces.KeyID) (*interfaces.KeyMetadata, error)

	// RetrieveKey fetches the decoded key material for an authorized
	// requester.
	RetrieveKey(keyID interfaces.KeyID, requesterID string) (*RetrieveKeyResponse, error)

	// DestroyKey erases a key and returns the destruction result.
	DestroyKey(keyID interfaces.KeyID, req DestroyKeyRequest) (*interfaces.DestructionResult, error)

	// RecordDeletions anchors destroyed but unanchored keys on the
	// ledger in one batch transaction.
	RecordDeletions(keyIDs []interfaces.KeyID) (*interfaces.TxReceiptSummary, error)
}

// VerificationProvider defines the client-side interface for third-party
// verification of recorded destructions.
type VerificationProvider interface {
	// DeletionRecord fetches the on-chain deletion record for a key.
	DeletionRecord(keyID interfaces.KeyID) (*interfaces.DeletionRecord, error)

	// VerifyDeletion checks a proof hash against the on-chain record.
	VerifyDeletion(keyID interfaces.KeyID, method string, proofHash string) (*VerifyDeletionResponse, error)
}

// CertificateProvider defines the client-side interface for destruction
// certificate issuance and retrieval.
type CertificateProvider interface {
	// CreateCertificate issues a certificate for a destroyed key and
	// returns the signed document.
	CreateCertificate(req CreateCertificateRequest) ([]byte, error)

	// Certificate fetches a stored certificate document by id.
	Certificate(id interfaces.CertificateID) ([]byte, error)

	// ListCertificates returns all stored certificate ids, newest first.
	ListCertificates() (*ListCertificatesResponse, error)
}

// DeletionServiceProvider bundles every client-side capability of the
// deletion protocol API.
type DeletionServiceProvider interface {
	KeyServiceProvider
	VerificationProvider
	CertificateProvider

	// Audit returns audit entries matching the key and operation filters.
	Audit(keyID interfaces.KeyID, operation string) (*AuditQueryResponse, error)

	// Stats returns keystore counters and the ledger status.
	Stats() (*StatsResponse, error)
}

// GenerateKeyRequest carries the parameters for creating a key. Zero
// values select the server defaults.
type GenerateKeyRequest struct {
	// Algorithm names the intended cipher, for example AES-256-GCM.
	Algorithm string `json:"algorithm,omitempty"`

	// KeySize is the key length in bytes.
	KeySize int `json:"key_size,omitempty"`

	// Purpose is a free-form description of what the key protects.
	Purpose string `json:"purpose,omitempty"`

	// OwnerID is the principal allowed to use and destroy the key.
	OwnerID string `json:"owner_id,omitempty"`

	// ExpiresInSeconds sets an expiry relative to creation. Zero means the
	// key never expires.
	ExpiresInSeconds int64 `json:"expires_in_seconds,omitempty"`
}

// RetrieveKeyRequest identifies the principal asking for key material.
type RetrieveKeyRequest struct {
	// RequesterID is checked against the key's owner.
	RequesterID string `json:"requester_id"`
}

// RetrieveKeyResponse carries key material to an authorized requester.
type RetrieveKeyResponse struct {
	KeyID interfaces.KeyID `json:"key_id"`

	// KeyMaterial is the raw key, base64 encoded.
	KeyMaterial string `json:"key_material"`

	// Fingerprint is the generation-time material fingerprint.
	Fingerprint interfaces.Fingerprint `json:"fingerprint"`

	// AccessCount is the total number of reads, this one included.
	AccessCount int64 `json:"access_count"`
}

// DestroyKeyRequest selects the erasure method for a key destruction.
type DestroyKeyRequest struct {
	// Method is the erasure method wire name, for example
	// multi_pass_overwrite.
	Method string `json:"method"`

	// RequesterID is checked against the key's owner.
	RequesterID string `json:"requester_id"`

	// WaitForConfirmation controls whether the response waits for the
	// ledger anchoring. When false the response returns as soon as the
	// erasure commits and anchoring continues in the background. Absent
	// means wait.
	WaitForConfirmation *bool `json:"wait_for_confirmation,omitempty"`
}

// RecordDeletionsRequest names destroyed keys whose proofs should be
// anchored on the ledger in one batch transaction. The usual reason is a
// ledger outage during destruction.
type RecordDeletionsRequest struct {
	KeyIDs []interfaces.KeyID `json:"key_ids"`
}

// CreateCertificateRequest asks for a destruction certificate. The key
// must already be destroyed; the certificate is built from its tombstone.
type CreateCertificateRequest struct {
	KeyID interfaces.KeyID `json:"key_id"`

	// UserID is the certificate subject. Only its hash appears in the
	// issued document.
	UserID string `json:"user_id"`

	// AdditionalData is copied into the certificate metadata verbatim.
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

// VerifyDeletionResponse reports a proof hash check against the ledger.
// Verified is false for wrong hashes, unknown keys and unreachable
// ledgers alike; the check never errors on a mismatch.
type VerifyDeletionResponse struct {
	KeyID     interfaces.KeyID `json:"key_id"`
	Method    string           `json:"method"`
	ProofHash string           `json:"proof_hash"`
	Verified  bool             `json:"verified"`
}

// ListKeysResponse is a filtered key metadata listing, oldest first.
type ListKeysResponse struct {
	Keys  []interfaces.KeyMetadata `json:"keys"`
	Count int                      `json:"count"`
}

// ListCertificatesResponse lists stored certificate ids, newest first.
type ListCertificatesResponse struct {
	Certificates []interfaces.CertificateID `json:"certificates"`
	Count        int                        `json:"count"`
}

// AuditQueryResponse is a filtered audit trail listing, oldest first.
type AuditQueryResponse struct {
	Entries []interfaces.AuditEntry `json:"entries"`
	Count   int                     `json:"count"`
}

// StatsResponse combines keystore counters with the ledger status.
type StatsResponse struct {
	Keystore interfaces.KeyStoreStats `json:"keystore"`
	Ledger   interfaces.LedgerStatus  `json:"ledger"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
