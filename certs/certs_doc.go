// Package certs issues, stores and verifies destruction certificates.
//
// A certificate is a self-contained JSON document attesting that a key was
// destroyed: who requested it (as a subject id hash), what was destroyed,
// when, by which erasure method, and where the destruction is anchored on
// chain. The document carries every field needed to recompute
// the destruction proof hash, so a holder can verify it offline and
// cross-check the chain independently.
//
// # Document shape
//
//	{
//	  "certificate": {
//	    "id": "CERT-20260815-4F2A91C3",
//	    "version": "1.0",
//	    "issue_date": "...",
//	    "user": { "user_id_hash": "sha256:...", ... },
//	    "deletion_details": { "key_id": "...", "proof_hash": "...", ... },
//	    "technical_details": { "key_fingerprint": "...", ... },
//	    "blockchain_proof": { "network": "ethereum_sepolia", ... },
//	    "verification": { "blockchain_explorer_url": "...", ... },
//	    "metadata": { "certificate_type": "DELETION_PROOF", ... }
//	  },
//	  "signature": { "algorithm": "secp256k1-keccak256", ... }
//	}
//
// The signature covers the compact serialization of the certificate member,
// so re-indenting a stored file does not invalidate it, while any field
// change does.
//
// # Issuance
//
// Issuer.Generate builds the document from a completed destruction result.
// When the result is anchored and a ledger client is available, the receipt
// and the on-chain record are folded into a full blockchain proof block;
// when the chain cannot be queried the block degrades to the transaction
// hash and proof hash. Issuance never fails because the chain is down.
//
// # Verification
//
// Verify recomputes the proof hash from the document fields, checks the
// signature against the declared signer, and, given a ledger client, asks
// the contract whether the proof hash matches the recorded destruction.
package certs
