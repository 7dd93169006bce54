package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// VaultBackend implements a storage backend using HashiCorp Vault's KV v2
// secret engine. Certificates are not secret, but sites that already run
// Vault get replicated, access-controlled storage for free.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault storage backend using token
// authentication. An empty token falls back to the VAULT_TOKEN environment
// variable.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: Vault KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "deletion-protocol")
//   - token: Vault token, or empty to use the environment
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	// Ensure paths are properly formatted
	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves a document from Vault by its id and type.
// It uses the KV v2 API which requires a specific path structure.
func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.DocumentID, contentType interfaces.ContentType) ([]byte, error) {
	if err := validateDocumentID(id); err != nil {
		return nil, err
	}

	start := time.Now()
	path := b.getDataPath(id, contentType)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("document_id", id.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Document not found in Vault",
			slog.String("path", path),
			slog.String("document_id", id.String()))
		return nil, interfaces.ErrContentNotFound
	}

	// Extract data from the response (KV v2 format)
	data, ok := secret.Data["data"]
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	content, ok := data.(map[string]interface{})["content"]
	if !ok {
		return nil, fmt.Errorf("content key not found in Vault data")
	}

	contentStr, ok := content.(string)
	if !ok {
		return nil, fmt.Errorf("invalid content format in Vault data")
	}

	b.log.Debug("Fetched document from Vault",
		slog.String("document_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return []byte(contentStr), nil
}

// Store saves a document to Vault under its id, overwriting any previous
// version.
func (b *VaultBackend) Store(ctx context.Context, id interfaces.DocumentID, data []byte, contentType interfaces.ContentType) error {
	if err := validateDocumentID(id); err != nil {
		return err
	}

	start := time.Now()
	path := b.getDataPath(id, contentType)

	// KV v2 write format
	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": string(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("document_id", id.String()),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored document in Vault",
		slog.String("document_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// List returns the ids of all stored documents of the given type. KV v2
// listings go through the metadata path rather than the data path.
func (b *VaultBackend) List(ctx context.Context, contentType interfaces.ContentType) ([]interfaces.DocumentID, error) {
	path := fmt.Sprintf("%s/metadata/%s/%s", b.mountPath, b.dataPath, b.getTypeDir(contentType))

	secret, err := b.client.Logical().ListWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid keys format in Vault listing")
	}

	var ids []interfaces.DocumentID
	for _, key := range keys {
		name, ok := key.(string)
		if !ok || !strings.HasSuffix(name, documentExt) {
			continue
		}
		ids = append(ids, interfaces.DocumentID(strings.TrimSuffix(name, documentExt)))
	}

	return ids, nil
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

// getDataPath generates a KV v2 data path for a document id and type.
func (b *VaultBackend) getDataPath(id interfaces.DocumentID, contentType interfaces.ContentType) string {
	return fmt.Sprintf("%s/data/%s/%s/%s", b.mountPath, b.dataPath, b.getTypeDir(contentType), id.String()+documentExt)
}

func (b *VaultBackend) getTypeDir(contentType interfaces.ContentType) string {
	if contentType == interfaces.CertificateContent {
		return "certificates"
	}
	return contentType.String()
}
