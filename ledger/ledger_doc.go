// Package ledger records key destruction proofs on an Ethereum network
// through the DeletionProof contract and serves the reads third parties
// use to verify a destruction after the fact.
//
// # Writes
//
// RecordDeletion and BatchRecordDeletion submit EIP-1559 transactions
// with pinned fee caps and a fixed gas limit, retrying transient
// submission failures. Submissions are serialized so concurrent callers
// cannot race the operator account's nonce. With confirmation enabled the
// client polls for the receipt until the transaction lands or the
// confirmation timeout lapses.
//
// # Reads
//
// GetDeletionRecord distinguishes "never recorded" from transport
// failure: the contract's "does not exist" revert becomes (nil, nil)
// while anything else is an error. The boolean reads, IsKeyDeleted and
// VerifyDeletionProof, degrade to false on any failure so a flaky
// endpoint can never produce a false positive.
//
// # Testing
//
// MockLedgerClient is an in-memory stand-in with failure injection for
// exercising callers without a node.
package ledger
