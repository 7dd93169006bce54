package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// GitHubBackend implements a read-only storage backend using GitHub's
// contents API. It serves certificates that have been published to a
// repository, keyed by their path within the tree.
type GitHubBackend struct {
	owner       string
	repo        string
	branch      string
	client      *http.Client
	log         *slog.Logger
	locationURI string
}

// githubContent represents a file or directory entry from GitHub's contents API.
type githubContent struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// NewGitHubBackend creates a new GitHub storage backend for reading published
// certificates from a repository. An empty branch defaults to main.
func NewGitHubBackend(owner, repo, branch string, log *slog.Logger) *GitHubBackend {
	if branch == "" {
		branch = "main"
	}

	return &GitHubBackend{
		owner:       owner,
		repo:        repo,
		branch:      branch,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
		locationURI: fmt.Sprintf("github://%s/%s?branch=%s", owner, repo, branch),
	}
}

// Fetch retrieves a document by its path in the repository tree.
func (b *GitHubBackend) Fetch(ctx context.Context, id interfaces.DocumentID, contentType interfaces.ContentType) ([]byte, error) {
	if err := validateDocumentID(id); err != nil {
		return nil, err
	}

	entry, err := b.fetchContent(ctx, b.getRepoPath(id, contentType))
	if err != nil {
		return nil, err
	}

	if entry.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding: %s", entry.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(entry.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	b.log.Debug("Fetched document from GitHub",
		slog.String("path", entry.Path),
		slog.Int("size", len(data)))

	return data, nil
}

// Store is not implemented for this read-only backend.
func (b *GitHubBackend) Store(ctx context.Context, id interfaces.DocumentID, data []byte, contentType interfaces.ContentType) error {
	return fmt.Errorf("GitHub backend is read-only")
}

// List returns the ids of all documents of the given type in the repository.
// A missing directory yields an empty list.
func (b *GitHubBackend) List(ctx context.Context, contentType interfaces.ContentType) ([]interfaces.DocumentID, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s?ref=%s",
		b.owner, b.repo, b.getTypeDir(contentType), url.QueryEscape(b.branch))

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, nil
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %s, %s", resp.Status, string(body))
	}

	var entries []githubContent
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode directory listing: %w", err)
	}

	var ids []interfaces.DocumentID
	for _, entry := range entries {
		if entry.Type != "file" || !strings.HasSuffix(entry.Name, documentExt) {
			continue
		}
		ids = append(ids, interfaces.DocumentID(strings.TrimSuffix(entry.Name, documentExt)))
	}

	return ids, nil
}

// Available checks if the GitHub backend is accessible.
func (b *GitHubBackend) Available(ctx context.Context) bool {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s", b.owner, b.repo)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		b.log.Debug("Failed to create request", "err", err)
		return false
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug("GitHub backend unavailable", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b.log.Debug("GitHub backend unavailable",
			slog.String("status", resp.Status))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *GitHubBackend) Name() string {
	return fmt.Sprintf("github-%s-%s", b.owner, b.repo)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *GitHubBackend) LocationURI() string {
	return b.locationURI
}

// getRepoPath generates a repository path for a document id and type.
func (b *GitHubBackend) getRepoPath(id interfaces.DocumentID, contentType interfaces.ContentType) string {
	return path.Join(b.getTypeDir(contentType), id.String()+documentExt)
}

func (b *GitHubBackend) getTypeDir(contentType interfaces.ContentType) string {
	if contentType == interfaces.CertificateContent {
		return "certificates"
	}
	return contentType.String()
}

// fetchContent fetches a single file through the contents API. Inline content
// is limited to 1MB by GitHub, which is far above any certificate size.
func (b *GitHubBackend) fetchContent(ctx context.Context, repoPath string) (*githubContent, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s?ref=%s",
		b.owner, b.repo, repoPath, url.QueryEscape(b.branch))

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %s, %s", resp.Status, string(body))
	}

	var entry githubContent
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	return &entry, nil
}
