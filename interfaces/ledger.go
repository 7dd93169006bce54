package interfaces

import (
	"context"
	"errors"
	"math/big"
)

var (
	// ErrNoTransactOpts is returned when a write operation is attempted
	// without first setting transaction options.
	ErrNoTransactOpts = errors.New("no authorized transactor available")

	// ErrTransactionFailed is returned when an on-chain transaction reverts
	// or cannot be confirmed within the configured timeout.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrLedgerUnavailable is returned when the ledger endpoint cannot be
	// reached.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrLedgerDisabled is returned when a ledger operation is requested but
	// no ledger is configured.
	ErrLedgerDisabled = errors.New("ledger disabled")
)

// BatchDeletion is one entry of a batched ledger recording.
type BatchDeletion struct {
	KeyID     KeyID
	Method    ErasureMethod
	ProofHash ProofHash
}

// DeletionLedger records destruction proofs on an external append-only
// ledger and serves third-party verification reads.
//
// Write operations require a configured transactor. Read operations that
// feed verification decisions (IsKeyDeleted, VerifyDeletionProof) degrade
// to a negative answer on transport errors rather than failing, so a
// flaky endpoint can never turn into a false positive.
type DeletionLedger interface {
	// RecordDeletion submits one destruction proof. With wait set it blocks
	// until the transaction is confirmed or the confirmation timeout lapses.
	RecordDeletion(ctx context.Context, keyID KeyID, method ErasureMethod, proofHash ProofHash, wait bool) (*TxReceiptSummary, error)

	// BatchRecordDeletion submits several proofs in a single transaction.
	// The batch confirms or fails as a unit.
	BatchRecordDeletion(ctx context.Context, deletions []BatchDeletion, wait bool) (*TxReceiptSummary, error)

	// GetDeletionRecord reads the recorded deletion for a key. A key the
	// ledger has never seen yields (nil, nil).
	GetDeletionRecord(ctx context.Context, keyID KeyID) (*DeletionRecord, error)

	// IsKeyDeleted reports whether the ledger holds a record for the key.
	IsKeyDeleted(ctx context.Context, keyID KeyID) bool

	// VerifyDeletionProof checks a proof hash against the recorded one. The
	// method argument mirrors the proof input for callers; the contract
	// keys proofs by id alone.
	VerifyDeletionProof(ctx context.Context, keyID KeyID, method ErasureMethod, proofHash ProofHash) bool

	// TransactionReceipt summarizes a transaction, or returns nil when the
	// transaction is unknown or still pending.
	TransactionReceipt(ctx context.Context, txHash string) (*TxReceiptSummary, error)

	// OperatorBalance returns the operator account balance in wei.
	OperatorBalance(ctx context.Context) (*big.Int, error)

	// Connected probes whether the ledger endpoint is reachable.
	Connected(ctx context.Context) bool

	// ContractAddress returns the deletion contract's address.
	ContractAddress() ContractAddress
}
