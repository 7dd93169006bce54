// Package kms manages the full lifecycle of cryptographic keys: creation,
// access-controlled retrieval, verifiable destruction, and the anchoring
// of destruction proofs on an external ledger.
//
// # Lifecycle
//
// Every key moves through a fixed state machine:
//
//	active -> pending_destruction -> destroyed
//	active -> expired
//
// destroyed and expired are terminal. pending_destruction exists only
// while an erasure pass runs; a key stranded there by a failed pass can
// be destroyed again.
//
// # Destruction
//
// Destruction is two-phase. The local phase overwrites the material with
// the requested erasure method, computes the proof hash over the key id,
// method, canonical timestamp and fingerprint, commits the terminal state
// and releases the buffer. The anchoring phase records the proof on the
// ledger. The phases are deliberately independent: a ledger outage can
// cost the on-chain record, never the destruction itself, and a
// destruction that anchored nothing can be anchored later, individually
// or in a batch.
//
// # Access control
//
// Retrieval and destruction require the requester to be the key's owner
// or the system principal. Metadata and listing are unrestricted; they
// carry no key material.
//
// # Escrow
//
// SplitOperatorKey and RecoverOperatorKey wrap Shamir secret sharing for
// operator key custody, with a checksum prefix on each share so corrupted
// shares are rejected before combination.
package kms
