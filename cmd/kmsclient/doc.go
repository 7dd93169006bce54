// Package main (cmd/kmsclient) implements the command-line client for the deletion protocol API.
//
// The client covers the full key lifecycle against a running service:
// generation, retrieval, verifiable destruction, on-chain recording,
// proof verification, destruction certificates and the audit trail. All
// structured output is JSON on stdout, one document per invocation, so
// the tool composes with jq and scripts.
//
// Commands:
//
//	generate            - Create a managed key
//	list                - List keys, filterable by owner and lifecycle state
//	retrieve            - Fetch key material as an authorized requester
//	destroy             - Erase a key and anchor the destruction proof
//	record              - Batch-anchor destroyed keys whose recording failed
//	verify              - Check a destruction proof hash against the ledger
//	record-get          - Fetch the on-chain deletion record for a key
//	certificate create  - Issue a signed destruction certificate
//	certificate get     - Fetch a stored certificate document
//	certificate list    - List stored certificate ids
//	certificate verify  - Re-check a certificate's proof hash and signature
//	audit               - Query the audit trail by key and operation
//	stats               - Keystore counters and ledger status
//
// The server address comes from --server-addr or SERVER_ADDR and defaults
// to http://127.0.0.1:8080.
//
// Example lifecycle:
//
//	kmsclient generate --owner=alice@example.com --purpose="database encryption"
//	kmsclient destroy --key=key_1f6a3bca90d2f5b8c44e9a01d7e2b3c4 \
//	    --requester=alice@example.com --method=multi_pass_overwrite
//	kmsclient certificate create --key=key_1f6a3bca90d2f5b8c44e9a01d7e2b3c4 \
//	    --user=alice@example.com --data="regulation=GDPR Article 17" \
//	    --output=deletion-certificate.json
//
// Destruction is permanent. A destroyed key's material is gone from the
// server; the tombstone metadata, the audit trail and the on-chain record
// are what remains.
package main
