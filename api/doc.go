/*
Package api defines the wire surface of the deletion protocol service.

It holds the request and response DTO types exchanged over the HTTP API,
the server configuration shared by every command, and the provider
interfaces a client of the service implements. The clients subpackage
carries the reference HTTP implementation of those interfaces.

# System Components

The deletion protocol API fronts the following components:

- KeyStore: in-memory key lifecycle manager with audited destruction
- DeletionLedger: Ethereum-backed append-only proof registry
- Certificate issuer and store: signed destruction certificates
- Audit log: append-only trail of every key operation

# Conventions

All request and response bodies are JSON with snake_case field names.
Key material only ever crosses the wire base64-encoded, and only toward
an authorized requester. Errors carry a JSON body of the form

	{"error": "description"}

with the HTTP status encoding the error class: 404 for unknown keys and
certificates, 403 for requester mismatches, 410 for destroyed key
material, 409 for operations invalid in the key's current state, 400 for
malformed parameters, 503 for ledger operations without a configured
ledger.

See the httpserver package for the route table and the clients
subpackage for a typed Go client.
*/
package api
