package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/api"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/audit"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/certs"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes HTTP requests for the deletion protocol service. It
// fronts the key manager for lifecycle operations, the deletion ledger
// for third-party verification reads, and the certificate issuer and
// store for destruction certificates.
type Handler struct {
	keys    interfaces.KeyManager
	ledger  interfaces.DeletionLedger
	issuer  *certs.Issuer
	certs   interfaces.CertificateStore
	auditor *audit.Log
	log     *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified
// dependencies.
//
// Parameters:
//   - keys: key manager for generation, retrieval and destruction
//   - deletionLedger: ledger for verification reads, nil when anchoring
//     is disabled
//   - issuer: destruction certificate issuer
//   - certStore: persistent store for issued certificate documents
//   - auditLog: the audit trail shared with the key manager
//   - log: structured logger for operational insights
//
// Returns a configured Handler instance.
func NewHandler(keys interfaces.KeyManager, deletionLedger interfaces.DeletionLedger, issuer *certs.Issuer, certStore interfaces.CertificateStore, auditLog *audit.Log, log *slog.Logger) *Handler {
	return &Handler{
		keys:    keys,
		ledger:  deletionLedger,
		issuer:  issuer,
		certs:   certStore,
		auditor: auditLog,
		log:     log,
	}
}

// HandleGenerateKey creates a new managed key.
//
// URL format: POST /api/v1/keys
//
// Request body: JSON GenerateKeyRequest. Zero values select the server
// defaults (AES-256-GCM, 32 bytes, system owner, no expiry).
//
// Response: 201 with the new key's metadata. Key material never appears
// in the response; it must be fetched through the retrieve endpoint.
func (h *Handler) HandleGenerateKey(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateKeyRequest
	if !h.decode(w, r, &req) {
		return
	}

	meta, err := h.keys.Generate(interfaces.GenerateRequest{
		Algorithm: req.Algorithm,
		KeySize:   req.KeySize,
		Purpose:   req.Purpose,
		OwnerID:   req.OwnerID,
		ExpiresIn: time.Duration(req.ExpiresInSeconds) * time.Second,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, meta)
}

// HandleListKeys lists key metadata, tombstones included.
//
// URL format: GET /api/v1/keys?owner=&state=
//
// Both query parameters are optional filters; an unknown state name is
// rejected rather than silently matching nothing.
func (h *Handler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	var state interfaces.KeyState
	if s := r.URL.Query().Get("state"); s != "" {
		parsed, err := interfaces.ParseKeyState(s)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: %v", interfaces.ErrInvalidParameter, err))
			return
		}
		state = parsed
	}

	keys := h.keys.List(r.URL.Query().Get("owner"), state)
	h.writeJSON(w, http.StatusOK, api.ListKeysResponse{Keys: keys, Count: len(keys)})
}

// HandleKeyMetadata returns one key's metadata.
//
// URL format: GET /api/v1/keys/{key_id}
//
// Destroyed and expired keys still resolve; their tombstone metadata is
// the anchor for certificates and audits.
func (h *Handler) HandleKeyMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.keys.Metadata(interfaces.KeyID(r.PathValue("key_id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, meta)
}

// HandleRetrieveKey serves key material to an authorized requester.
//
// URL format: POST /api/v1/keys/{key_id}/retrieve
//
// Request body: JSON RetrieveKeyRequest naming the requester.
//
// Response: key material base64 encoded, with the fingerprint and the
// access count after this read. Destroyed keys answer 410, expired and
// partially erased keys 409, foreign requesters 403.
func (h *Handler) HandleRetrieveKey(w http.ResponseWriter, r *http.Request) {
	keyID := interfaces.KeyID(r.PathValue("key_id"))

	var req api.RetrieveKeyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.RequesterID == "" {
		h.writeError(w, fmt.Errorf("%w: requester_id", interfaces.ErrMissingField))
		return
	}

	material, err := h.keys.Retrieve(keyID, req.RequesterID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	meta, err := h.keys.Metadata(keyID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.RetrieveKeyResponse{
		KeyID:       keyID,
		KeyMaterial: base64.StdEncoding.EncodeToString(material),
		Fingerprint: meta.Fingerprint,
		AccessCount: meta.AccessCount,
	})
}

// HandleDestroyKey erases a key and anchors the destruction proof.
//
// URL format: POST /api/v1/keys/{key_id}/destroy
//
// Request body: JSON DestroyKeyRequest naming the erasure method and
// requester. With wait_for_confirmation set to false the response
// returns as soon as the erasure commits; anchoring continues in the
// background and lands in the key's tombstone.
//
// Response: the destruction result. Destroying a destroyed key is an
// idempotent success. A failed erasure answers 500 and leaves the key in
// pending_destruction, where a retry is allowed.
func (h *Handler) HandleDestroyKey(w http.ResponseWriter, r *http.Request) {
	keyID := interfaces.KeyID(r.PathValue("key_id"))

	var req api.DestroyKeyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.RequesterID == "" {
		h.writeError(w, fmt.Errorf("%w: requester_id", interfaces.ErrMissingField))
		return
	}
	method, err := interfaces.ParseErasureMethod(req.Method)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if req.WaitForConfirmation != nil && !*req.WaitForConfirmation {
		result, err := h.keys.DestroyLocal(keyID, method, req.RequesterID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if result.Outcome == interfaces.OutcomeDestroyed {
			// The response must not observe the background anchoring, so
			// the goroutine works on its own copy of the result.
			background := *result
			go h.keys.Anchor(context.WithoutCancel(r.Context()), &background)
		}
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.keys.Destroy(r.Context(), keyID, method, req.RequesterID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleRecordDeletions anchors destroyed keys on the ledger in one
// batch transaction. It exists for keys whose anchoring failed at
// destruction time, typically because the ledger was unreachable.
//
// URL format: POST /api/v1/deletions/record
//
// Request body: JSON RecordDeletionsRequest naming the keys. Every key
// must be destroyed; keys already carrying a ledger transaction are
// skipped. A batch with nothing left to anchor is a client error.
//
// Response: the transaction receipt summary for the batch.
func (h *Handler) HandleRecordDeletions(w http.ResponseWriter, r *http.Request) {
	var req api.RecordDeletionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.KeyIDs) == 0 {
		h.writeError(w, fmt.Errorf("%w: key_ids", interfaces.ErrMissingField))
		return
	}

	receipt, err := h.keys.AnchorBatch(r.Context(), req.KeyIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receipt)
}

// HandleDeletionRecord returns the ledger's deletion record for a key.
//
// URL format: GET /api/v1/keys/{key_id}/deletion
//
// A key the ledger has never seen answers 404. Without a configured
// ledger the endpoint answers 503.
func (h *Handler) HandleDeletionRecord(w http.ResponseWriter, r *http.Request) {
	keyID := interfaces.KeyID(r.PathValue("key_id"))

	record, err := h.keys.VerifyOnLedger(r.Context(), keyID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if record == nil {
		h.writeErrorStatus(w, http.StatusNotFound, fmt.Errorf("no deletion record for %s", keyID))
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// HandleVerifyDeletion checks a destruction proof against the ledger.
//
// URL format: GET /api/v1/keys/{key_id}/deletion/verify?method=&proof_hash=
//
// Response: {verified: true|false}. A wrong hash, an unknown key and an
// unreachable ledger all answer verified=false; only missing or unknown
// query parameters are a client error. A proof hash that does not decode
// matches nothing and is reported as unverified.
func (h *Handler) HandleVerifyDeletion(w http.ResponseWriter, r *http.Request) {
	keyID := interfaces.KeyID(r.PathValue("key_id"))

	methodName := r.URL.Query().Get("method")
	proofHex := r.URL.Query().Get("proof_hash")
	if methodName == "" || proofHex == "" {
		h.writeError(w, fmt.Errorf("%w: method and proof_hash query parameters are required", interfaces.ErrInvalidParameter))
		return
	}

	method, err := interfaces.ParseErasureMethod(methodName)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.ledger == nil {
		h.writeError(w, interfaces.ErrLedgerDisabled)
		return
	}

	verified := false
	if proof, err := interfaces.ParseProofHash(proofHex); err == nil {
		verified = h.ledger.VerifyDeletionProof(r.Context(), keyID, method, proof)
	}

	h.writeJSON(w, http.StatusOK, api.VerifyDeletionResponse{
		KeyID:     keyID,
		Method:    methodName,
		ProofHash: proofHex,
		Verified:  verified,
	})
}

// HandleCreateCertificate issues a destruction certificate.
//
// URL format: POST /api/v1/certificates
//
// Request body: JSON CreateCertificateRequest naming the destroyed key
// and the certificate subject. The certificate is built from the key's
// tombstone, so issuance works long after the destruction call, and for
// destructions whose anchoring happened in the background.
//
// Response: 201 with the signed certificate document as persisted. A key
// that is not destroyed answers 409.
func (h *Handler) HandleCreateCertificate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCertificateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.KeyID == "" {
		h.writeError(w, fmt.Errorf("%w: key_id", interfaces.ErrMissingField))
		return
	}
	if req.UserID == "" {
		h.writeError(w, fmt.Errorf("%w: user_id", interfaces.ErrMissingField))
		return
	}

	result, err := h.keys.CompletedDestruction(req.KeyID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The issuer persists the document through its configured store, so
	// a storage failure fails the issuance.
	issued, err := h.issuer.Generate(r.Context(), *result, req.UserID, req.AdditionalData)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if _, err := w.Write(issued.Document); err != nil {
		h.log.Error("Failed to write certificate response", "err", err)
	}
}

// HandleListCertificates lists stored certificate ids, newest first.
//
// URL format: GET /api/v1/certificates
func (h *Handler) HandleListCertificates(w http.ResponseWriter, r *http.Request) {
	ids, err := h.certs.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ListCertificatesResponse{Certificates: ids, Count: len(ids)})
}

// HandleGetCertificate serves a stored certificate document.
//
// URL format: GET /api/v1/certificates/{certificate_id}
func (h *Handler) HandleGetCertificate(w http.ResponseWriter, r *http.Request) {
	doc, err := h.certs.Get(r.Context(), interfaces.CertificateID(r.PathValue("certificate_id")))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(doc); err != nil {
		h.log.Error("Failed to write certificate response", "err", err)
	}
}

// HandleAuditQuery returns audit entries, oldest first.
//
// URL format: GET /api/v1/audit?key_id=&operation=
//
// Both query parameters are optional filters.
func (h *Handler) HandleAuditQuery(w http.ResponseWriter, r *http.Request) {
	entries := h.auditor.Query(
		interfaces.KeyID(r.URL.Query().Get("key_id")),
		r.URL.Query().Get("operation"),
	)
	h.writeJSON(w, http.StatusOK, api.AuditQueryResponse{Entries: entries, Count: len(entries)})
}

// HandleStats returns keystore counters and the ledger status.
//
// URL format: GET /api/v1/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.StatsResponse{
		Keystore: h.keys.Stats(),
		Ledger:   h.keys.LedgerStatus(r.Context()),
	})
}

// decode reads a JSON request body into dst, answering 400 on malformed
// input. The body size is capped at maxBodySize.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %v", interfaces.ErrInvalidParameter, err))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeErrorStatus(w, statusForError(err), err)
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err, "status", status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(api.ErrorResponse{Error: err.Error()}); encErr != nil {
		h.log.Error("Failed to encode error response", "err", encErr)
	}
}

// statusForError maps the service's sentinel errors to HTTP status
// codes. Anything unmapped, ErrDestructionFailed included, is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrKeyNotFound),
		errors.Is(err, interfaces.ErrCertificateNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrKeyDestroyed):
		return http.StatusGone
	case errors.Is(err, interfaces.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrInvalidParameter),
		errors.Is(err, interfaces.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrLedgerDisabled),
		errors.Is(err, interfaces.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
