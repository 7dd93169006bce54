// Package main (cmd/httpserver) implements the deletion protocol service daemon.
//
// The daemon serves HTTP endpoints for key generation, retrieval and
// verifiable destruction, issues signed destruction certificates, and
// anchors destruction proofs on an Ethereum deletion ledger. Every
// lifecycle operation lands in an audit trail that can be mirrored to an
// append-only file.
//
// Ledger anchoring is optional. With --rpc-addr set the daemon connects to
// the Ethereum endpoint, binds the DeletionProof contract at
// --contract-addr, and signs recording transactions with --operator-key
// (also read from WALLET_PRIVATE_KEY). Without --rpc-addr keys are still
// destroyed and audited locally, but no on-chain record is produced and
// the verification endpoints answer 503. The operator account balance is
// checked at startup and a low balance is reported loudly, since anchoring
// transactions start failing once it runs dry.
//
// Certificate documents are persisted through one or more storage backends
// named by --cert-storage URIs (file://, s3://, ipfs://, github://,
// vault://). Several URIs form a redundant multi-backend that writes to all
// and reads from the first that answers. The default is a local
// file://./certificates backend.
//
// The server implements graceful shutdown on receiving termination signals
// (SIGINT/SIGTERM) and supports health checks, metrics collection, and
// optional profiling endpoints.
//
// Example usage without ledger anchoring:
//
//	deletion-protocol-server --listen-addr=0.0.0.0:8080
//
// Example usage with anchoring on Sepolia:
//
//	deletion-protocol-server --listen-addr=0.0.0.0:8080 \
//	    --rpc-addr=https://rpc.sepolia.org \
//	    --contract-addr=0x5FbDB2315678afecb367f032d93F642f64180aa3 \
//	    --operator-key=$WALLET_PRIVATE_KEY \
//	    --cert-storage=file:///var/lib/deletion-protocol/certs \
//	    --cert-storage=s3://cert-bucket/deletion/?region=eu-west-1 \
//	    --audit-log-path=/var/log/deletion-protocol/audit.jsonl
package main
