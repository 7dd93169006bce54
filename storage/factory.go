package storage

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// StorageBackendFactory creates storage backends from location URIs and
// manages multi-backend configurations for redundant certificate storage.
type StorageBackendFactory struct {
	log *slog.Logger
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageBackendFactory{log: logger}
}

// StorageBackendFor creates a storage backend from a parsed location.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS mutable file system storage
//   - github:// - Read-only storage over GitHub's contents API
//   - vault:// - HashiCorp Vault KV v2 storage
//
// Returns an error if the location is invalid or the scheme is unsupported.
func (sf *StorageBackendFactory) StorageBackendFor(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	switch strings.ToLower(location.Scheme) {
	case "file":
		return sf.createFileBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "ipfs":
		return sf.createIPFSBackend(location)
	case "github":
		return sf.createGitHubBackend(location)
	case "vault":
		return sf.createVaultBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiBackend creates a multi-storage backend from a list of locations.
// The multi-backend aggregates all valid backends, providing redundancy for
// storage operations. It will store documents to all available backends and
// fetch from the first one that has the document.
// Returns an error if no valid backends could be created from the provided locations.
func (sf *StorageBackendFactory) CreateMultiBackend(locations []interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	backends := make([]interfaces.StorageBackend, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.StorageBackendFor(location)
		if err != nil {
			sf.log.Warn("Failed to create storage backend",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid storage backends created")
	}

	return NewMultiStorageBackend(backends, sf.log), nil
}

// createFileBackend creates a file system storage backend.
// URI format: file:///var/lib/deletion-protocol/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", location.String()))

	// A host component means a relative path like file://./certs
	path := location.Path
	if location.Host != "" {
		path = location.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, location.String())
	}

	return NewFileBackend(path, sf.log)
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=custom.s3.com
// The backend supports both public buckets (read-only) and authenticated access.
func (sf *StorageBackendFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", location.String()))

	bucketName := location.Host
	if bucketName == "" {
		return nil, fmt.Errorf("%w: missing bucket name in S3 URI", interfaces.ErrInvalidLocationURI)
	}
	prefix := strings.TrimPrefix(location.Path, "/")

	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := location.GetParam("endpoint")

	// Re-parse the raw URI for credentials so percent-encoded secrets
	// survive the round trip.
	var accessKey, secretKey string
	if u, err := url.Parse(location.Raw); err == nil && u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	return NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createIPFSBackend creates an IPFS storage backend.
// URI format: ipfs://host:port/files-root?timeout=30s
func (sf *StorageBackendFactory) createIPFSBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", location.String()))

	host, port, err := net.SplitHostPort(location.Host)
	if err != nil {
		host = location.Host
		port = "5001" // Default IPFS API port
	}
	if host == "" {
		return nil, fmt.Errorf("%w: missing host in IPFS URI", interfaces.ErrInvalidLocationURI)
	}

	timeout := location.GetParam("timeout")
	if timeout == "" {
		timeout = "30s"
	}

	return NewIPFSBackend(host, port, location.Path, timeout, sf.log)
}

// createGitHubBackend creates a read-only GitHub storage backend.
// URI format: github://owner/repo?branch=main
func (sf *StorageBackendFactory) createGitHubBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating GitHub backend", slog.String("uri", location.String()))

	owner := location.Host
	repo := strings.Trim(location.Path, "/")
	if owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("%w: invalid GitHub URI format, expected github://owner/repo", interfaces.ErrInvalidLocationURI)
	}

	return NewGitHubBackend(owner, repo, location.GetParam("branch"), sf.log), nil
}

// createVaultBackend creates a HashiCorp Vault storage backend.
// URI format: vault://vault.example.com:8200/mount/data-path?token=...&scheme=https
// The first path segment is the KV v2 mount, the rest is the data path.
func (sf *StorageBackendFactory) createVaultBackend(location interfaces.StorageBackendLocation) (interfaces.StorageBackend, error) {
	sf.log.Debug("Creating Vault backend", slog.String("uri", location.String()))

	if location.Host == "" {
		return nil, fmt.Errorf("%w: missing host in Vault URI", interfaces.ErrInvalidLocationURI)
	}

	scheme := location.GetParam("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, location.Host)

	segments := strings.SplitN(strings.Trim(location.Path, "/"), "/", 2)
	if segments[0] == "" {
		return nil, fmt.Errorf("%w: missing mount path in Vault URI", interfaces.ErrInvalidLocationURI)
	}
	mountPath := segments[0]
	dataPath := "deletion-protocol"
	if len(segments) == 2 && segments[1] != "" {
		dataPath = segments[1]
	}

	return NewVaultBackend(address, mountPath, dataPath, location.GetParam("token"), sf.log)
}

var _ interfaces.StorageBackendFactory = (*StorageBackendFactory)(nil)
