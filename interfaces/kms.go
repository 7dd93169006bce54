package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned when no record exists for the requested key id.
	ErrKeyNotFound = errors.New("key not found")

	// ErrPermissionDenied is returned when the requester is neither the key's
	// owner nor the system principal.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrKeyDestroyed is returned when key material is requested for a
	// destroyed key. The tombstone metadata remains readable.
	ErrKeyDestroyed = errors.New("key destroyed")

	// ErrInvalidState is returned when the key's lifecycle state does not
	// permit the operation, for example retrieving an expired key.
	ErrInvalidState = errors.New("invalid key state")

	// ErrInvalidParameter is returned for malformed request parameters such
	// as an unsupported key size or an unknown erasure method.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDestructionFailed is returned when an erasure primitive reports an
	// error. The key stays in pending_destruction and is never served again.
	ErrDestructionFailed = errors.New("destruction failed")

	// ErrDecryptionFailed is returned by the data sealer when a ciphertext
	// or its associated data fails authentication.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// SystemPrincipal may act on any key regardless of ownership.
const SystemPrincipal = "system"

// GenerateRequest carries the parameters for creating a key. Zero values
// select the defaults: 32-byte AES-256-GCM owned by the system principal,
// no expiry.
type GenerateRequest struct {
	Algorithm string        `json:"algorithm,omitempty"`
	KeySize   int           `json:"key_size,omitempty"`
	Purpose   string        `json:"purpose,omitempty"`
	OwnerID   string        `json:"owner_id,omitempty"`
	ExpiresIn time.Duration `json:"-"`
}

// KeyStoreStats aggregates lifetime counters for a key store.
type KeyStoreStats struct {
	TotalKeys        int64 `json:"total_keys"`
	ActiveKeys       int64 `json:"active_keys"`
	DestroyedKeys    int64 `json:"destroyed_keys"`
	TotalGenerated   int64 `json:"total_generated"`
	TotalDestroyed   int64 `json:"total_destroyed"`
	TotalAccesses    int64 `json:"total_accesses"`
	LedgerRecordings int64 `json:"ledger_recordings"`
	LedgerFailures   int64 `json:"ledger_failures"`
}

// LedgerStatus describes the key store's view of its deletion ledger.
type LedgerStatus struct {
	Enabled         bool    `json:"enabled"`
	Connected       bool    `json:"connected"`
	ContractAddress string  `json:"contract_address,omitempty"`
	TotalRecordings int64   `json:"total_recordings"`
	TotalFailures   int64   `json:"total_failures"`
	SuccessRate     float64 `json:"success_rate"`
}

// KeyManager is the key lifecycle surface: generation, controlled
// retrieval, destruction with proof, and ledger verification.
//
// Destruction runs in two explicit phases. DestroyLocal performs the
// erasure and commits the terminal state; Anchor then records the proof on
// the ledger, best effort. Destroy chains the two. Anchoring failures
// never undo or fail a completed destruction.
type KeyManager interface {
	// Generate creates a key and returns its metadata.
	Generate(req GenerateRequest) (*KeyMetadata, error)

	// Retrieve returns a copy of the key material after access checks.
	Retrieve(keyID KeyID, requesterID string) ([]byte, error)

	// Destroy erases the key and anchors the proof on the ledger.
	Destroy(ctx context.Context, keyID KeyID, method ErasureMethod, requesterID string) (*DestructionResult, error)

	// DestroyLocal erases the key without touching the ledger.
	DestroyLocal(keyID KeyID, method ErasureMethod, requesterID string) (*DestructionResult, error)

	// Anchor records a completed destruction on the ledger, updating the
	// result in place. Failures degrade to the local audit trail.
	Anchor(ctx context.Context, result *DestructionResult)

	// AnchorBatch records the proofs of several destroyed keys in a single
	// transaction, rebuilding each proof from the key's tombstone.
	AnchorBatch(ctx context.Context, keyIDs []KeyID) (*TxReceiptSummary, error)

	// List returns metadata for keys matching the owner and state filters.
	// Empty filters match everything.
	List(ownerID string, state KeyState) []KeyMetadata

	// Metadata returns a single key's metadata, tombstones included.
	Metadata(keyID KeyID) (*KeyMetadata, error)

	// CompletedDestruction rebuilds the destruction result recorded in a
	// destroyed key's tombstone.
	CompletedDestruction(keyID KeyID) (*DestructionResult, error)

	// Stats returns lifetime operation counters.
	Stats() KeyStoreStats

	// LedgerStatus reports ledger configuration and recording counters.
	LedgerStatus(ctx context.Context) LedgerStatus

	// VerifyOnLedger fetches the ledger's deletion record for a key.
	VerifyOnLedger(ctx context.Context, keyID KeyID) (*DeletionRecord, error)
}
