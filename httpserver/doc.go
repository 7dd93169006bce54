/*
Package httpserver implements the HTTP server for the deletion protocol
service.

It exposes the full lifecycle of managed keys over a JSON API: creation,
material retrieval, verifiable destruction, on-chain proof verification,
destruction certificates and the audit trail. The server fronts a
KeyManager for key operations, a DeletionLedger for third-party
verification reads, and a certificate issuer and store.

# API Endpoints

Key lifecycle:

  - POST /api/v1/keys - Generate a key
  - GET /api/v1/keys?owner=&state= - List key metadata
  - GET /api/v1/keys/{key_id} - One key's metadata, tombstones included
  - POST /api/v1/keys/{key_id}/retrieve - Fetch key material (authorized requester only)
  - POST /api/v1/keys/{key_id}/destroy - Erase a key and anchor the proof

Verification:

  - GET /api/v1/keys/{key_id}/deletion - On-chain deletion record
  - GET /api/v1/keys/{key_id}/deletion/verify?method=&proof_hash= - Proof check

Certificates, audit and state:

  - POST /api/v1/certificates - Issue a destruction certificate
  - GET /api/v1/certificates - List certificate ids
  - GET /api/v1/certificates/{certificate_id} - One certificate document
  - GET /api/v1/audit?key_id=&operation= - Audit entries
  - GET /api/v1/stats - Keystore counters and ledger status

Health and diagnostics:

  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

# Error Model

Failures map the service's sentinel errors onto HTTP statuses: unknown
keys and certificates answer 404, requester mismatches 403, destroyed
key material 410, operations invalid in the key's current state 409,
malformed parameters 400, ledger operations without a configured ledger
503, and failed erasures 500. Every error body is {"error": "..."}.

# Destruction Semantics

A destroy request erases the key, commits the terminal state, and then
anchors the proof on the configured ledger. Anchoring is best effort: a
dead ledger cannot fail or undo a destruction, it only leaves the result
without a ledger transaction. Clients that do not want to block on the
ledger set wait_for_confirmation to false and pick the transaction up
later from the key's tombstone.

# Example Usage

	cfg := &api.HTTPServerConfig{
		ListenAddr:               ":8080",
		MetricsAddr:              ":9090",
		Log:                      logger,
		DrainDuration:            30 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}

	handler := httpserver.NewHandler(keyStore, ledgerClient, issuer, certStore, auditLog, logger)

	server, err := httpserver.New(cfg, handler)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
