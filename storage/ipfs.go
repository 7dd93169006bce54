package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// IPFSBackend implements a storage backend using the InterPlanetary File
// System. Documents live in the node's mutable file system (MFS) so they stay
// addressable by id while IPFS handles content addressing underneath.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	filesRoot   string
	prefixes    map[interfaces.ContentType]string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a new IPFS storage backend connected to the API of
// the specified host and port. Documents are stored under filesRoot in the
// node's MFS.
func NewIPFSBackend(host, port, filesRoot, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	if filesRoot == "" || filesRoot == "/" {
		filesRoot = "/deletion-certificates"
	}
	filesRoot = "/" + strings.Trim(filesRoot, "/")

	sh := shell.NewShell(apiURL)
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid IPFS timeout %q: %w", timeout, err)
		}
		sh.SetTimeout(d)
	}

	return &IPFSBackend{
		shell:     sh,
		host:      host,
		port:      port,
		filesRoot: filesRoot,
		prefixes: map[interfaces.ContentType]string{
			interfaces.CertificateContent: "certificates",
		},
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, filesRoot, timeout),
	}, nil
}

// Fetch retrieves a document from the node's MFS by its id and type.
// Returns ErrContentNotFound if the document doesn't exist or
// ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.DocumentID, contentType interfaces.ContentType) ([]byte, error) {
	if err := validateDocumentID(id); err != nil {
		return nil, err
	}

	start := time.Now()
	mfsPath := b.getMFSPath(id, contentType)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, mfsPath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			b.log.Debug("Document not found in IPFS",
				slog.String("path", mfsPath),
				slog.String("document_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to fetch document from IPFS",
			slog.String("path", mfsPath),
			slog.String("document_id", id.String()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch document from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read document from IPFS: %w", err)
	}

	b.log.Debug("Fetched document from IPFS",
		slog.String("path", mfsPath),
		slog.String("document_id", id.String()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes a document into the node's MFS under its id, overwriting any
// previous version. Returns ErrBackendUnavailable if the IPFS node is not
// accessible.
func (b *IPFSBackend) Store(ctx context.Context, id interfaces.DocumentID, data []byte, contentType interfaces.ContentType) error {
	if err := validateDocumentID(id); err != nil {
		return err
	}

	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	mfsPath := b.getMFSPath(id, contentType)

	err := b.shell.FilesWrite(ctx, mfsPath, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("failed to write document to IPFS: %w", err)
	}

	b.log.Debug("Stored document in IPFS",
		slog.String("path", mfsPath),
		slog.String("document_id", id.String()))

	return nil
}

// List returns the ids of all stored documents of the given type. A missing
// MFS directory means nothing has been stored yet and yields an empty list.
func (b *IPFSBackend) List(ctx context.Context, contentType interfaces.ContentType) ([]interfaces.DocumentID, error) {
	if !b.shell.IsUp() {
		return nil, interfaces.ErrBackendUnavailable
	}

	dir := path.Join(b.filesRoot, b.prefixes[contentType])
	entries, err := b.shell.FilesLs(ctx, dir)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list documents in IPFS: %w", err)
	}

	var ids []interfaces.DocumentID
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name, documentExt) {
			continue
		}
		ids = append(ids, interfaces.DocumentID(strings.TrimSuffix(entry.Name, documentExt)))
	}

	return ids, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

// getMFSPath generates an MFS path based on document id and type.
func (b *IPFSBackend) getMFSPath(id interfaces.DocumentID, contentType interfaces.ContentType) string {
	prefix := b.prefixes[contentType]
	return path.Join(b.filesRoot, prefix, id.String()+documentExt)
}
