// Package interfaces defines the core interfaces and types for the
// verifiable key-destruction protocol, separating interface definitions
// from implementations.
//
// The package provides interfaces for the key components of the system:
//
// # Key Lifecycle
//
// KeyManager: Issues symmetric keys, serves key material under access
// control, and destroys keys through one of four memory-erasure methods.
// Destruction is two-phase: the local erasure commits before the result
// is anchored on the ledger.
//
// # Ledger
//
// DeletionLedger: Records destruction proofs on an external append-only
// ledger (an Ethereum contract by default) and answers third-party
// verification queries. Anchoring is best effort; key destruction never
// depends on ledger availability.
//
// # Storage
//
// StorageBackend: Persists certificate documents keyed by identifier
// across multiple backend types (file, S3, IPFS, GitHub, Vault).
//
// StorageBackendFactory: Creates storage backends from URI strings and
// manages multi-backend configurations for redundant storage.
//
// CertificateStore: Serializes destruction certificates on top of a
// storage backend.
//
// # Core Types
//
//   - KeyID: "key_" plus 32 hex characters naming a managed key
//   - KeyState: lifecycle state (active, pending_destruction, destroyed, expired)
//   - ErasureMethod: closed set of memory-erasure strategies
//   - ProofHash: 32-byte SHA-256 destruction proof digest
//   - Fingerprint: short digest of key material, survives destruction
//   - DestructionResult: record of one destruction and its anchoring
//   - DeletionRecord: the ledger's view of a recorded destruction
//   - ContractAddress: 20-byte Ethereum address
//   - CertificateID: deterministic destruction certificate identifier
package interfaces
