package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// documentExt is appended to stored document names. Certificates are JSON
// documents and the extension keeps them readable by external tools.
const documentExt = ".json"

// validateDocumentID rejects ids that could escape a backend's namespace
// once embedded in a path.
func validateDocumentID(id interfaces.DocumentID) error {
	s := id.String()
	if s == "" || strings.ContainsAny(s, "/\\") || strings.Contains(s, "..") {
		return fmt.Errorf("%w: unsafe document id %q", interfaces.ErrInvalidParameter, s)
	}
	return nil
}

// FileBackend implements a storage backend using the local file system.
// Documents are stored in a directory structure organized by content type.
type FileBackend struct {
	baseDir     string
	prefixes    map[interfaces.ContentType]string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file storage backend using the specified base
// directory. It creates subdirectories for the content types if they don't exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	certDir := filepath.Join(baseDir, "certificates")
	if err := os.MkdirAll(certDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create certificates directory: %w", err)
	}

	return &FileBackend{
		baseDir: baseDir,
		prefixes: map[interfaces.ContentType]string{
			interfaces.CertificateContent: "certificates",
		},
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves a document from the file system by its id and type.
// Returns ErrContentNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, id interfaces.DocumentID, contentType interfaces.ContentType) ([]byte, error) {
	if err := validateDocumentID(id); err != nil {
		return nil, err
	}

	filePath := b.getFilePath(id, contentType)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Fetched document from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves a document to the file system under its id. An existing
// document with the same id is overwritten.
func (b *FileBackend) Store(ctx context.Context, id interfaces.DocumentID, data []byte, contentType interfaces.ContentType) error {
	if err := validateDocumentID(id); err != nil {
		return err
	}

	filePath := b.getFilePath(id, contentType)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	b.log.Debug("Stored document in file",
		slog.String("path", filePath),
		slog.String("document_id", id.String()))

	return nil
}

// List returns the ids of all documents of the given type, sorted.
func (b *FileBackend) List(ctx context.Context, contentType interfaces.ContentType) ([]interfaces.DocumentID, error) {
	dir := filepath.Join(b.baseDir, b.prefixes[contentType])

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var ids []interfaces.DocumentID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentExt) {
			continue
		}
		ids = append(ids, interfaces.DocumentID(strings.TrimSuffix(entry.Name(), documentExt)))
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

// getFilePath generates a file path for a document id and type.
func (b *FileBackend) getFilePath(id interfaces.DocumentID, contentType interfaces.ContentType) string {
	subdir := b.prefixes[contentType]
	return filepath.Join(b.baseDir, subdir, id.String()+documentExt)
}
