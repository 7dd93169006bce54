// Package storage provides id-keyed document storage with pluggable backends.
//
// The storage package offers a unified interface for storing, retrieving and
// listing destruction certificates across multiple storage backends:
//
//   - File system storage for local deployments and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS storage (mutable file system) for decentralized distribution
//   - GitHub storage (read-only) for certificates published to a repository
//   - Vault storage for deployments that already run HashiCorp Vault
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/deletion-protocol/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/deletion-certificates
//   - github://owner/repo?branch=main
//   - vault://vault.example.com:8200/secret/deletion-protocol?token=...
//
// # Document Addressing
//
// Documents are keyed by caller-chosen identifiers rather than content
// hashes; storing under an existing id overwrites the previous document.
// Certificates are stored under their certificate id with a .json extension
// so the artifacts stay readable by external verification tools:
//
//	certificates/CERT-20260815-4F2A91C3.json
//
// # Multi-Backend
//
// MultiStorageBackend aggregates several backends for redundancy. Stores go
// to every available backend, fetches return the first hit, and listings are
// the deduplicated union:
//
//	factory := storage.NewStorageBackendFactory(logger)
//	locations := []interfaces.StorageBackendLocation{fileLoc, s3Loc}
//	multi, err := factory.CreateMultiBackend(locations)
package storage
