package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/api"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// Client implements api.DeletionServiceProvider for HTTP-based
// communication with the deletion protocol server.
type Client struct {
	// ServerAddr is the base URL of the deletion protocol server.
	ServerAddr string

	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

// GenerateKey creates a new key and returns its metadata.
func (c *Client) GenerateKey(req api.GenerateKeyRequest) (*interfaces.KeyMetadata, error) {
	var meta interfaces.KeyMetadata
	if err := c.postJSON("/api/v1/keys", req, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListKeys returns metadata for keys matching the owner and state
// filters. Empty filters match everything.
func (c *Client) ListKeys(ownerID string, state interfaces.KeyState) (*api.ListKeysResponse, error) {
	query := url.Values{}
	if ownerID != "" {
		query.Set("owner", ownerID)
	}
	if state != "" {
		query.Set("state", state.String())
	}

	path := "/api/v1/keys"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var listed api.ListKeysResponse
	if err := c.getJSON(path, &listed); err != nil {
		return nil, err
	}
	return &listed, nil
}

// KeyMetadata returns one key's metadata, tombstones included.
func (c *Client) KeyMetadata(keyID interfaces.KeyID) (*interfaces.KeyMetadata, error) {
	var meta interfaces.KeyMetadata
	if err := c.getJSON(fmt.Sprintf("/api/v1/keys/%s", keyID), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// RetrieveKey fetches the key material for an authorized requester. The
// material in the response stays base64 encoded.
func (c *Client) RetrieveKey(keyID interfaces.KeyID, requesterID string) (*api.RetrieveKeyResponse, error) {
	req := api.RetrieveKeyRequest{RequesterID: requesterID}
	var material api.RetrieveKeyResponse
	if err := c.postJSON(fmt.Sprintf("/api/v1/keys/%s/retrieve", keyID), req, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// DestroyKey erases a key and returns the destruction result.
func (c *Client) DestroyKey(keyID interfaces.KeyID, req api.DestroyKeyRequest) (*interfaces.DestructionResult, error) {
	var result interfaces.DestructionResult
	if err := c.postJSON(fmt.Sprintf("/api/v1/keys/%s/destroy", keyID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordDeletions anchors destroyed but unanchored keys on the ledger in
// one batch transaction.
func (c *Client) RecordDeletions(keyIDs []interfaces.KeyID) (*interfaces.TxReceiptSummary, error) {
	var receipt interfaces.TxReceiptSummary
	if err := c.postJSON("/api/v1/deletions/record", api.RecordDeletionsRequest{KeyIDs: keyIDs}, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// DeletionRecord fetches the on-chain deletion record for a key.
func (c *Client) DeletionRecord(keyID interfaces.KeyID) (*interfaces.DeletionRecord, error) {
	var record interfaces.DeletionRecord
	if err := c.getJSON(fmt.Sprintf("/api/v1/keys/%s/deletion", keyID), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// VerifyDeletion checks a proof hash against the on-chain record.
func (c *Client) VerifyDeletion(keyID interfaces.KeyID, method string, proofHash string) (*api.VerifyDeletionResponse, error) {
	query := url.Values{}
	query.Set("method", method)
	query.Set("proof_hash", proofHash)

	var verdict api.VerifyDeletionResponse
	path := fmt.Sprintf("/api/v1/keys/%s/deletion/verify?%s", keyID, query.Encode())
	if err := c.getJSON(path, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// CreateCertificate issues a destruction certificate for a destroyed key
// and returns the signed document as served.
func (c *Client) CreateCertificate(req api.CreateCertificateRequest) ([]byte, error) {
	return c.postRaw("/api/v1/certificates", req)
}

// Certificate fetches a stored certificate document by id.
func (c *Client) Certificate(id interfaces.CertificateID) ([]byte, error) {
	return c.getRaw(fmt.Sprintf("/api/v1/certificates/%s", id))
}

// ListCertificates returns all stored certificate ids, newest first.
func (c *Client) ListCertificates() (*api.ListCertificatesResponse, error) {
	var listed api.ListCertificatesResponse
	if err := c.getJSON("/api/v1/certificates", &listed); err != nil {
		return nil, err
	}
	return &listed, nil
}

// Audit returns audit entries matching the key and operation filters.
func (c *Client) Audit(keyID interfaces.KeyID, operation string) (*api.AuditQueryResponse, error) {
	query := url.Values{}
	if keyID != "" {
		query.Set("key_id", keyID.String())
	}
	if operation != "" {
		query.Set("operation", operation)
	}

	path := "/api/v1/audit"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var trail api.AuditQueryResponse
	if err := c.getJSON(path, &trail); err != nil {
		return nil, err
	}
	return &trail, nil
}

// Stats returns keystore counters and the ledger status.
func (c *Client) Stats() (*api.StatsResponse, error) {
	var stats api.StatsResponse
	if err := c.getJSON("/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) getJSON(path string, out any) error {
	body, err := c.getRaw(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not parse response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(path string, in, out any) error {
	body, err := c.postRaw(path, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not parse response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) getRaw(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.ServerAddr+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) postRaw(path string, in any) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.ServerAddr+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d: %s", req.URL.Path, resp.StatusCode, errorBody(body))
	}
	return body, nil
}

// errorBody extracts the error message from a JSON error response,
// falling back to the raw body.
func errorBody(body []byte) string {
	var parsed api.ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return string(body)
}

var _ api.DeletionServiceProvider = (*Client)(nil)
