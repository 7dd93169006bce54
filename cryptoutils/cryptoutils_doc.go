// Package cryptoutils provides the cryptographic primitives of the
// key-destruction protocol: key material generation, fingerprints,
// destruction proof hashes, document signatures, and a thin authenticated
// encryption layer over managed keys.
//
// # Proof Hashes
//
// A destruction proof binds together everything a verifier needs to check
// that a specific key was destroyed in a specific way at a specific time.
// The version 1 input layout is:
//
//	sha256(key_id | method | timestamp | fingerprint)
//
// Where:
//   - key_id: the managed key identifier ("key_" + 32 hex characters)
//   - method: the erasure method's wire name, e.g. "deterministic_zero"
//   - timestamp: the canonical destruction timestamp (see below)
//   - fingerprint: the first 16 hex characters of SHA-256 over the key
//     material, captured at generation time
//
// The fields are joined with "|" and hashed with SHA-256. The layout is
// versioned: certificates record which format produced their hash, so
// older documents stay verifiable if the layout ever changes.
//
// # Canonical Timestamps
//
// Proof hashing is only repeatable if the timestamp encoding never
// varies. CanonicalTimestamp renders UTC times with fixed six-digit
// microsecond precision and a numeric zone offset:
//
//	2025-03-14T10:30:00.000000+00:00
//
// The string captured at destruction time is stored alongside the result
// and reused verbatim whenever the proof is recomputed.
//
// # Document Signatures
//
// Destruction certificates are signed with the ledger operator's
// secp256k1 key over the keccak256 digest of the serialized document,
// producing a 65-byte recoverable signature. Verifiers recover the signer
// address from the signature alone and compare it against the expected
// operator, the same scheme Ethereum uses for transaction signatures.
//
// # Data Sealing
//
// DataSealer offers authenticated payload encryption with managed keys,
// selecting AES-GCM or ChaCha20-Poly1305 from the key's algorithm. It is
// a minimal default for the encryption boundary that collaborating
// services normally bring themselves. Sealed payloads carry the nonce as
// a prefix:
//
//	[nonce][ciphertext with authentication tag]
//
// Opening a payload distinguishes a destroyed key (the key is gone and
// the data is unrecoverable) from an authentication failure (wrong key,
// tampered ciphertext, or mismatched additional data).
package cryptoutils
