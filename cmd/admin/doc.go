// Package main (cmd/admin) implements the operator tooling for the deletion ledger.
//
// The admin client talks to the DeletionProof contract directly over an
// Ethereum RPC endpoint, bypassing the HTTP service. It is meant for
// operators checking on-chain state, for auditors verifying destruction
// proofs independently of the service, and for escrowing the operator key
// with Shamir's Secret Sharing.
//
// Commands:
//
//	balance         - Report the operator account balance on the configured chain
//	verify          - Check a destruction proof hash directly against the contract
//	is-deleted      - Check whether the contract holds a deletion record for a key
//	record-get      - Fetch the full on-chain deletion record for a key
//	escrow split    - Split the operator key file into Shamir shares
//	escrow recover  - Reconstruct the operator key file from a quorum of shares
//
// The on-chain commands need --rpc-addr and --contract-addr (or the
// RPC_ADDR and CONTRACT_ADDRESS environment variables). Verification and
// record reads are unauthenticated contract calls; only balance needs the
// operator key.
//
// Example third-party verification, no service involved:
//
//	admin verify --rpc-addr=https://rpc.sepolia.org \
//	    --contract-addr=0x5FbDB2315678afecb367f032d93F642f64180aa3 \
//	    --key=key_1f6a3bca90d2f5b8c44e9a01d7e2b3c4 \
//	    --method=multi_pass_overwrite \
//	    --proof-hash=9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658
//
// Example escrow of the operator key, 2-of-3:
//
//	admin escrow split --key-file=operator-key.hex --parts=3 --threshold=2
//	admin escrow recover --share=operator-share-1.hex --share=operator-share-3.hex
//
// Each share file carries a checksum bound to the shared secret, so a
// corrupted or mismatched share is rejected by name during recovery
// instead of silently reconstructing a wrong key.
package main
