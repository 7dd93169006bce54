package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/api"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/audit"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/certs"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/cryptoutils"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/kms"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/ledger"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/storage"
)

const (
	testOwner  = "alice@example.com"
	unknownKey = "key_00000000000000000000000000000000"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exhaustedReader serves a limited number of random reads and then fails,
// so overwrite passes can be driven into an erasure failure.
type exhaustedReader struct {
	reads int
}

func (r *exhaustedReader) Read(p []byte) (int, error) {
	if r.reads <= 0 {
		return 0, errors.New("entropy source exhausted")
	}
	r.reads--
	for i := range p {
		p[i] = 0x5a
	}
	return len(p), nil
}

// mockCertStore drives certificate storage failures the file backend will
// not produce on its own.
type mockCertStore struct {
	mock.Mock
}

func (m *mockCertStore) Put(ctx context.Context, id interfaces.CertificateID, doc []byte) error {
	args := m.Called(ctx, id, doc)
	return args.Error(0)
}

func (m *mockCertStore) Get(ctx context.Context, id interfaces.CertificateID) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCertStore) List(ctx context.Context) ([]interfaces.CertificateID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.CertificateID), args.Error(1)
}

// testService wires a real key store, certificate issuer and certificate
// store behind the server's router, with only the ledger mocked out.
type testService struct {
	keys   *kms.KeyStore
	ledger *ledger.MockLedgerClient
	router http.Handler
}

func newTestService(t *testing.T, mockLedger *ledger.MockLedgerClient) *testService {
	t.Helper()
	return newTestServiceWithRandom(t, mockLedger, nil)
}

func newTestServiceWithRandom(t *testing.T, mockLedger *ledger.MockLedgerClient, random io.Reader) *testService {
	t.Helper()
	logger := testLogger()

	// A nil *MockLedgerClient must become a nil interface, not a typed nil.
	var deletionLedger interfaces.DeletionLedger
	if mockLedger != nil {
		deletionLedger = mockLedger
	}

	keys := kms.NewKeyStore(kms.Config{
		Ledger:              deletionLedger,
		Random:              random,
		WaitForConfirmation: true,
		Log:                 logger,
	})

	backend, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)
	certStore := certs.NewStore(backend, logger)

	signingKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	issuer := certs.NewIssuer(certs.Config{
		Store:      certStore,
		Ledger:     deletionLedger,
		SigningKey: signingKey,
		Log:        logger,
	})

	handler := NewHandler(keys, deletionLedger, issuer, certStore, keys.Audit(), logger)
	srv, err := New(&api.HTTPServerConfig{Log: logger}, handler)
	require.NoError(t, err)

	return &testService{keys: keys, ledger: mockLedger, router: srv.getRouter()}
}

// anchoredService is a test service whose mock ledger accepts writes.
func anchoredService(t *testing.T) *testService {
	t.Helper()
	mockLedger := ledger.NewMockLedgerClient()
	mockLedger.SetTransactOpts()
	return newTestService(t, mockLedger)
}

func (s *testService) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (s *testService) post(t *testing.T, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return s.postRaw(t, target, payload)
}

func (s *testService) postRaw(t *testing.T, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body)))
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "response must decode: %s", rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	decodeJSON(t, rec, &resp)
	return resp.Error
}

func (s *testService) generateKey(t *testing.T, owner string) interfaces.KeyMetadata {
	t.Helper()
	rec := s.post(t, "/api/v1/keys", api.GenerateKeyRequest{OwnerID: owner, Purpose: "database encryption"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var meta interfaces.KeyMetadata
	decodeJSON(t, rec, &meta)
	return meta
}

func (s *testService) destroyKey(t *testing.T, keyID interfaces.KeyID, requesterID string) interfaces.DestructionResult {
	t.Helper()
	rec := s.post(t, "/api/v1/keys/"+keyID.String()+"/destroy", api.DestroyKeyRequest{
		Method:      "multi_pass_overwrite",
		RequesterID: requesterID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result interfaces.DestructionResult
	decodeJSON(t, rec, &result)
	return result
}

func TestHandleGenerateKey_Defaults(t *testing.T) {
	svc := newTestService(t, nil)

	rec := svc.post(t, "/api/v1/keys", api.GenerateKeyRequest{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var meta interfaces.KeyMetadata
	decodeJSON(t, rec, &meta)
	require.NoError(t, meta.KeyID.Validate())
	assert.Equal(t, interfaces.KeyStateActive, meta.State)
	assert.Equal(t, kms.DefaultAlgorithm, meta.Algorithm)
	assert.Equal(t, kms.DefaultKeySize, meta.KeySize)
	assert.Equal(t, interfaces.SystemPrincipal, meta.OwnerID)
	assert.Len(t, meta.Fingerprint, 16)
	assert.Nil(t, meta.ExpiresAt)
	assert.Zero(t, meta.AccessCount)
}

func TestHandleGenerateKey_CustomParameters(t *testing.T) {
	svc := newTestService(t, nil)

	rec := svc.post(t, "/api/v1/keys", api.GenerateKeyRequest{
		Algorithm:        "ChaCha20-Poly1305",
		KeySize:          32,
		Purpose:          "session tokens",
		OwnerID:          testOwner,
		ExpiresInSeconds: 3600,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var meta interfaces.KeyMetadata
	decodeJSON(t, rec, &meta)
	assert.Equal(t, "ChaCha20-Poly1305", meta.Algorithm)
	assert.Equal(t, testOwner, meta.OwnerID)
	assert.Equal(t, "session tokens", meta.Purpose)
	require.NotNil(t, meta.ExpiresAt)
	assert.WithinDuration(t, meta.CreatedAt.Add(time.Hour), *meta.ExpiresAt, time.Second)
}

func TestHandleGenerateKey_InvalidInput(t *testing.T) {
	svc := newTestService(t, nil)

	rec := svc.post(t, "/api/v1/keys", api.GenerateKeyRequest{KeySize: 15})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "key size")

	rec = svc.post(t, "/api/v1/keys", api.GenerateKeyRequest{ExpiresInSeconds: -60})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = svc.postRaw(t, "/api/v1/keys", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListKeys_Filters(t *testing.T) {
	svc := anchoredService(t)
	first := svc.generateKey(t, testOwner)
	svc.generateKey(t, testOwner)
	svc.generateKey(t, "bob@example.com")
	svc.destroyKey(t, first.KeyID, testOwner)

	var resp api.ListKeysResponse
	decodeJSON(t, svc.get(t, "/api/v1/keys"), &resp)
	assert.Equal(t, 3, resp.Count, "tombstones stay listed")

	decodeJSON(t, svc.get(t, "/api/v1/keys?owner="+url.QueryEscape(testOwner)), &resp)
	assert.Equal(t, 2, resp.Count)

	decodeJSON(t, svc.get(t, "/api/v1/keys?state=destroyed"), &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, first.KeyID, resp.Keys[0].KeyID)

	rec := svc.get(t, "/api/v1/keys?state=shredded")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleKeyMetadata(t *testing.T) {
	svc := newTestService(t, nil)
	meta := svc.generateKey(t, testOwner)

	rec := svc.get(t, "/api/v1/keys/"+meta.KeyID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched interfaces.KeyMetadata
	decodeJSON(t, rec, &fetched)
	assert.Equal(t, meta.KeyID, fetched.KeyID)
	assert.Equal(t, interfaces.KeyStateActive, fetched.State)

	// Tombstones keep serving metadata after destruction.
	svc.destroyKey(t, meta.KeyID, testOwner)
	decodeJSON(t, svc.get(t, "/api/v1/keys/"+meta.KeyID.String()), &fetched)
	assert.Equal(t, interfaces.KeyStateDestroyed, fetched.State)
	require.NotNil(t, fetched.DestroyedAt)
	require.NotNil(t, fetched.DestructionMethod)
	assert.Equal(t, interfaces.MultiPassOverwrite, *fetched.DestructionMethod)

	rec = svc.get(t, "/api/v1/keys/"+unknownKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRetrieveKey_Success(t *testing.T) {
	svc := newTestService(t, nil)
	meta := svc.generateKey(t, testOwner)
	target := "/api/v1/keys/" + meta.KeyID.String() + "/retrieve"

	rec := svc.post(t, target, api.RetrieveKeyRequest{RequesterID: testOwner})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.RetrieveKeyResponse
	decodeJSON(t, rec, &resp)
	material, err := base64.StdEncoding.DecodeString(resp.KeyMaterial)
	require.NoError(t, err)
	assert.Len(t, material, kms.DefaultKeySize)
	assert.Equal(t, cryptoutils.KeyFingerprint(material), resp.Fingerprint,
		"served material must match the generation fingerprint")
	assert.EqualValues(t, 1, resp.AccessCount)

	decodeJSON(t, svc.post(t, target, api.RetrieveKeyRequest{RequesterID: testOwner}), &resp)
	assert.EqualValues(t, 2, resp.AccessCount)
}

func TestHandleRetrieveKey_Denied(t *testing.T) {
	svc := newTestService(t, nil)
	meta := svc.generateKey(t, testOwner)
	target := "/api/v1/keys/" + meta.KeyID.String() + "/retrieve"

	rec := svc.post(t, target, api.RetrieveKeyRequest{RequesterID: "mallory@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = svc.post(t, target, api.RetrieveKeyRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "requester_id")

	// The system principal may read any key.
	rec = svc.post(t, target, api.RetrieveKeyRequest{RequesterID: interfaces.SystemPrincipal})
	require.Equal(t, http.StatusOK, rec.Code)

	svc.destroyKey(t, meta.KeyID, testOwner)
	rec = svc.post(t, target, api.RetrieveKeyRequest{RequesterID: testOwner})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestHandleDestroyKey_Anchored(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)

	result := svc.destroyKey(t, meta.KeyID, testOwner)
	assert.Equal(t, meta.KeyID, result.KeyID)
	assert.Equal(t, interfaces.OutcomeDestroyed, result.Outcome)
	assert.True(t, result.Success)
	assert.Equal(t, interfaces.MultiPassOverwrite, result.Method)
	assert.Equal(t, meta.Fingerprint, result.Fingerprint)
	assert.NotEmpty(t, result.Timestamp)
	require.NotNil(t, result.ProofHash)
	assert.NotEmpty(t, result.LedgerTx, "synchronous destroy must return with the anchoring transaction")
	assert.NotZero(t, result.LedgerBlock)

	submissions := svc.ledger.Submissions()
	require.Len(t, submissions, 1)
	assert.Equal(t, meta.KeyID, submissions[0].KeyID)
	assert.True(t, submissions[0].ProofHash.Equal(*result.ProofHash))
}

func TestHandleDestroyKey_Idempotent(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)
	svc.destroyKey(t, meta.KeyID, testOwner)

	repeat := svc.destroyKey(t, meta.KeyID, testOwner)
	assert.Equal(t, interfaces.OutcomeAlreadyDestroyed, repeat.Outcome)
	assert.True(t, repeat.Success)
	assert.Nil(t, repeat.ProofHash, "a repeat destroy returns no new proof")

	// And no second ledger submission.
	assert.Len(t, svc.ledger.Submissions(), 1)
}

func TestHandleDestroyKey_Validation(t *testing.T) {
	svc := newTestService(t, nil)
	meta := svc.generateKey(t, testOwner)
	target := "/api/v1/keys/" + meta.KeyID.String() + "/destroy"

	rec := svc.post(t, target, api.DestroyKeyRequest{Method: "incinerate", RequesterID: testOwner})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = svc.post(t, target, api.DestroyKeyRequest{Method: "null_erase"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = svc.post(t, target, api.DestroyKeyRequest{Method: "null_erase", RequesterID: "mallory@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = svc.post(t, "/api/v1/keys/"+unknownKey+"/destroy", api.DestroyKeyRequest{Method: "null_erase", RequesterID: testOwner})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestHandleDestroyKey_BackgroundAnchoring covers wait_for_confirmation
// set to false: the response returns without ledger fields and the
// anchoring lands in the tombstone afterwards.
func TestHandleDestroyKey_BackgroundAnchoring(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)

	noWait := false
	rec := svc.post(t, "/api/v1/keys/"+meta.KeyID.String()+"/destroy", api.DestroyKeyRequest{
		Method:              "single_overwrite",
		RequesterID:         testOwner,
		WaitForConfirmation: &noWait,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result interfaces.DestructionResult
	decodeJSON(t, rec, &result)
	assert.Equal(t, interfaces.OutcomeDestroyed, result.Outcome)
	assert.True(t, result.Success)
	assert.Empty(t, result.LedgerTx, "the response must not wait for the anchoring")

	require.Eventually(t, func() bool {
		completed, err := svc.keys.CompletedDestruction(meta.KeyID)
		return err == nil && completed.Anchored()
	}, time.Second, 5*time.Millisecond, "background anchoring must reach the tombstone")

	assert.Len(t, svc.ledger.Submissions(), 1)
}

// TestHandleDestroyKey_LedgerOutage covers the core guarantee that an
// unreachable ledger costs the on-chain record, never the destruction.
func TestHandleDestroyKey_LedgerOutage(t *testing.T) {
	mockLedger := ledger.NewMockLedgerClient()
	mockLedger.SetTransactOpts()
	mockLedger.SetWriteError(errors.New("connection refused"))
	svc := newTestService(t, mockLedger)
	meta := svc.generateKey(t, testOwner)

	result := svc.destroyKey(t, meta.KeyID, testOwner)
	assert.True(t, result.Success, "a ledger outage must not fail the destruction")
	assert.Equal(t, interfaces.OutcomeDestroyed, result.Outcome)
	assert.Empty(t, result.LedgerTx)

	rec := svc.get(t, "/api/v1/audit?key_id="+meta.KeyID.String()+"&operation="+audit.OpLedgerRecordFailed)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries api.AuditQueryResponse
	decodeJSON(t, rec, &entries)
	assert.Equal(t, 1, entries.Count, "the failed recording must be audited")

	var stats api.StatsResponse
	decodeJSON(t, svc.get(t, "/api/v1/stats"), &stats)
	assert.EqualValues(t, 1, stats.Keystore.LedgerFailures)
	assert.EqualValues(t, 0, stats.Keystore.LedgerRecordings)
}

// TestHandleRecordDeletions covers the recovery path after a ledger
// outage: the unanchored tombstones are anchored later in one batch.
func TestHandleRecordDeletions(t *testing.T) {
	mockLedger := ledger.NewMockLedgerClient()
	mockLedger.SetTransactOpts()
	mockLedger.SetWriteError(errors.New("connection refused"))
	svc := newTestService(t, mockLedger)

	first := svc.generateKey(t, testOwner)
	second := svc.generateKey(t, testOwner)
	svc.destroyKey(t, first.KeyID, testOwner)
	svc.destroyKey(t, second.KeyID, testOwner)
	require.Empty(t, mockLedger.Submissions(), "the outage must have blocked both anchorings")

	mockLedger.SetWriteError(nil)
	rec := svc.post(t, "/api/v1/deletions/record", api.RecordDeletionsRequest{
		KeyIDs: []interfaces.KeyID{first.KeyID, second.KeyID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var receipt interfaces.TxReceiptSummary
	decodeJSON(t, rec, &receipt)
	assert.NotEmpty(t, receipt.TxHash)
	assert.Equal(t, interfaces.TxStatusSuccess, receipt.Status)
	assert.Len(t, mockLedger.Submissions(), 2)

	completed, err := svc.keys.CompletedDestruction(first.KeyID)
	require.NoError(t, err)
	assert.True(t, completed.Anchored(), "the batch must land in the tombstones")
	assert.Equal(t, receipt.TxHash, completed.LedgerTx)

	// A batch with nothing left to anchor is a client error.
	rec = svc.post(t, "/api/v1/deletions/record", api.RecordDeletionsRequest{
		KeyIDs: []interfaces.KeyID{first.KeyID, second.KeyID},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "already anchored")
}

func TestHandleRecordDeletions_Validation(t *testing.T) {
	svc := anchoredService(t)
	active := svc.generateKey(t, testOwner)

	rec := svc.post(t, "/api/v1/deletions/record", api.RecordDeletionsRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "key_ids")

	rec = svc.post(t, "/api/v1/deletions/record", api.RecordDeletionsRequest{KeyIDs: []interfaces.KeyID{active.KeyID}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = svc.post(t, "/api/v1/deletions/record", api.RecordDeletionsRequest{KeyIDs: []interfaces.KeyID{unknownKey}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	disabled := newTestService(t, nil)
	meta := disabled.generateKey(t, testOwner)
	disabled.destroyKey(t, meta.KeyID, testOwner)
	rec = disabled.post(t, "/api/v1/deletions/record", api.RecordDeletionsRequest{KeyIDs: []interfaces.KeyID{meta.KeyID}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleDestroyKey_ErasureFailure(t *testing.T) {
	// One read generates the key; the overwrite pass then finds the
	// entropy source gone.
	svc := newTestServiceWithRandom(t, nil, &exhaustedReader{reads: 1})
	meta := svc.generateKey(t, testOwner)
	target := "/api/v1/keys/" + meta.KeyID.String() + "/destroy"

	rec := svc.post(t, target, api.DestroyKeyRequest{Method: "single_overwrite", RequesterID: testOwner})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "destruction failed")

	var stuck interfaces.KeyMetadata
	decodeJSON(t, svc.get(t, "/api/v1/keys/"+meta.KeyID.String()), &stuck)
	assert.Equal(t, interfaces.KeyStatePendingDestruction, stuck.State)

	// A retry with a method that needs no randomness completes the
	// destruction.
	retry := svc.post(t, target, api.DestroyKeyRequest{Method: "null_erase", RequesterID: testOwner})
	require.Equal(t, http.StatusOK, retry.Code, retry.Body.String())
	var result interfaces.DestructionResult
	decodeJSON(t, retry, &result)
	assert.Equal(t, interfaces.OutcomeDestroyed, result.Outcome)
}

func TestHandleDeletionRecord(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)
	result := svc.destroyKey(t, meta.KeyID, testOwner)

	rec := svc.get(t, "/api/v1/keys/"+meta.KeyID.String()+"/deletion")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var record interfaces.DeletionRecord
	decodeJSON(t, rec, &record)
	assert.Equal(t, meta.KeyID, record.KeyID)
	assert.Equal(t, "multi_pass_overwrite", record.Method)
	assert.True(t, record.Exists)
	require.NotNil(t, result.ProofHash)
	assert.True(t, record.ProofHash.Equal(*result.ProofHash))

	// Keys the ledger never saw have no record.
	active := svc.generateKey(t, testOwner)
	rec = svc.get(t, "/api/v1/keys/"+active.KeyID.String()+"/deletion")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Without a configured ledger the endpoint cannot answer at all.
	disabled := newTestService(t, nil)
	disabledMeta := disabled.generateKey(t, testOwner)
	disabled.destroyKey(t, disabledMeta.KeyID, testOwner)
	rec = disabled.get(t, "/api/v1/keys/"+disabledMeta.KeyID.String()+"/deletion")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleVerifyDeletion(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)
	result := svc.destroyKey(t, meta.KeyID, testOwner)
	require.NotNil(t, result.ProofHash)
	proofHex := result.ProofHash.String()

	target := "/api/v1/keys/" + meta.KeyID.String() + "/deletion/verify"

	var resp api.VerifyDeletionResponse
	rec := svc.get(t, target+"?method=multi_pass_overwrite&proof_hash="+proofHex)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeJSON(t, rec, &resp)
	assert.True(t, resp.Verified)

	// A tampered hash is a negative verdict, not an error.
	tampered := "00" + proofHex[2:]
	if strings.HasPrefix(proofHex, "00") {
		tampered = "11" + proofHex[2:]
	}
	rec = svc.get(t, target+"?method=multi_pass_overwrite&proof_hash="+tampered)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &resp)
	assert.False(t, resp.Verified)

	// Same for a hash that does not even decode.
	rec = svc.get(t, target+"?method=multi_pass_overwrite&proof_hash=not.hex.at.all")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &resp)
	assert.False(t, resp.Verified)

	rec = svc.get(t, target+"?method=multi_pass_overwrite")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = svc.get(t, target+"?method=incinerate&proof_hash="+proofHex)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	disabled := newTestService(t, nil)
	disabledMeta := disabled.generateKey(t, testOwner)
	disabled.destroyKey(t, disabledMeta.KeyID, testOwner)
	rec = disabled.get(t, "/api/v1/keys/"+disabledMeta.KeyID.String()+"/deletion/verify?method=multi_pass_overwrite&proof_hash="+proofHex)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestHandleCreateCertificate_Lifecycle issues a certificate over HTTP and
// checks the served document end to end, signature and on-chain proof
// included.
func TestHandleCreateCertificate_Lifecycle(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)
	result := svc.destroyKey(t, meta.KeyID, testOwner)

	rec := svc.post(t, "/api/v1/certificates", api.CreateCertificateRequest{
		KeyID:          meta.KeyID,
		UserID:         testOwner,
		AdditionalData: map[string]any{"regulation": "GDPR Article 17"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	document := rec.Body.Bytes()
	doc, cert, err := certs.ParseDocument(document)
	require.NoError(t, err)
	require.NotNil(t, doc.Signature)

	assert.Equal(t, meta.KeyID, cert.DeletionDetails.KeyID)
	assert.Equal(t, "multi_pass_overwrite", cert.DeletionDetails.DeletionMethod)
	require.NotNil(t, result.ProofHash)
	assert.Equal(t, result.ProofHash.String(), cert.DeletionDetails.ProofHash)
	assert.True(t, strings.HasPrefix(cert.User.UserIDHash, "sha256:"),
		"the subject must be hashed, never embedded raw")
	assert.NotContains(t, string(document), testOwner,
		"the raw subject id must not appear anywhere in the document")
	assert.Equal(t, "GDPR Article 17", cert.AdditionalData["regulation"])

	require.NotNil(t, cert.BlockchainProof)
	assert.Equal(t, result.LedgerTx, cert.BlockchainProof.TransactionHash)

	report, err := certs.Verify(context.Background(), document, svc.ledger)
	require.NoError(t, err)
	assert.True(t, report.Valid, "issued document must verify end to end: %v", report.Problems)
	require.NotNil(t, report.OnChainVerified)
	assert.True(t, *report.OnChainVerified)

	// The stored document is served back byte for byte.
	fetched := svc.get(t, "/api/v1/certificates/"+cert.ID.String())
	require.Equal(t, http.StatusOK, fetched.Code)
	assert.Equal(t, document, fetched.Body.Bytes())

	list := svc.get(t, "/api/v1/certificates")
	require.Equal(t, http.StatusOK, list.Code)
	var listing api.ListCertificatesResponse
	decodeJSON(t, list, &listing)
	assert.Equal(t, 1, listing.Count)
	assert.Contains(t, listing.Certificates, cert.ID)
}

func TestHandleCreateCertificate_Validation(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)

	// Issuance requires a completed destruction.
	rec := svc.post(t, "/api/v1/certificates", api.CreateCertificateRequest{KeyID: meta.KeyID, UserID: testOwner})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = svc.post(t, "/api/v1/certificates", api.CreateCertificateRequest{KeyID: unknownKey, UserID: testOwner})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = svc.post(t, "/api/v1/certificates", api.CreateCertificateRequest{UserID: testOwner})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = svc.post(t, "/api/v1/certificates", api.CreateCertificateRequest{KeyID: meta.KeyID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "user_id")
}

func TestHandleGetCertificate_Errors(t *testing.T) {
	svc := newTestService(t, nil)

	rec := svc.get(t, "/api/v1/certificates/CERT-20260815-0A1B2C3D")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = svc.get(t, "/api/v1/certificates/not-a-certificate")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListCertificates_BackendFailure(t *testing.T) {
	logger := testLogger()
	keys := kms.NewKeyStore(kms.Config{Log: logger})
	certStore := new(mockCertStore)
	certStore.On("List", mock.Anything).Return(nil, errors.New("backend offline"))
	certStore.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("backend offline"))

	handler := NewHandler(keys, nil, certs.NewIssuer(certs.Config{Store: certStore, Log: logger}), certStore, keys.Audit(), logger)
	srv, err := New(&api.HTTPServerConfig{Log: logger}, handler)
	require.NoError(t, err)
	svc := &testService{keys: keys, router: srv.getRouter()}

	rec := svc.get(t, "/api/v1/certificates")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "backend offline")

	rec = svc.get(t, "/api/v1/certificates/CERT-20260815-0A1B2C3D")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	certStore.AssertExpectations(t)
}

func TestHandleAuditQuery(t *testing.T) {
	svc := anchoredService(t)
	meta := svc.generateKey(t, testOwner)
	rec := svc.post(t, "/api/v1/keys/"+meta.KeyID.String()+"/retrieve", api.RetrieveKeyRequest{RequesterID: testOwner})
	require.Equal(t, http.StatusOK, rec.Code)
	svc.destroyKey(t, meta.KeyID, testOwner)
	svc.generateKey(t, "bob@example.com")

	var resp api.AuditQueryResponse
	decodeJSON(t, svc.get(t, "/api/v1/audit?key_id="+meta.KeyID.String()), &resp)
	require.Equal(t, 4, resp.Count, "generate, retrieve, destroy and the ledger recording")
	assert.Equal(t, audit.OpGenerateKey, resp.Entries[0].Operation)
	assert.Equal(t, audit.OpRetrieveKey, resp.Entries[1].Operation)
	assert.Equal(t, audit.OpDestroyKeySuccess, resp.Entries[2].Operation)
	assert.Equal(t, audit.OpLedgerRecordSuccess, resp.Entries[3].Operation)

	decodeJSON(t, svc.get(t, "/api/v1/audit?operation="+audit.OpGenerateKey), &resp)
	assert.Equal(t, 2, resp.Count)

	decodeJSON(t, svc.get(t, "/api/v1/audit"), &resp)
	assert.Equal(t, 5, resp.Count)
}

func TestHandleStats(t *testing.T) {
	svc := anchoredService(t)
	first := svc.generateKey(t, testOwner)
	svc.generateKey(t, "bob@example.com")

	rec := svc.post(t, "/api/v1/keys/"+first.KeyID.String()+"/retrieve", api.RetrieveKeyRequest{RequesterID: testOwner})
	require.Equal(t, http.StatusOK, rec.Code)
	svc.destroyKey(t, first.KeyID, testOwner)

	statsRec := svc.get(t, "/api/v1/stats")
	require.Equal(t, http.StatusOK, statsRec.Code)
	var stats api.StatsResponse
	decodeJSON(t, statsRec, &stats)

	assert.EqualValues(t, 2, stats.Keystore.TotalKeys)
	assert.EqualValues(t, 2, stats.Keystore.TotalGenerated)
	assert.EqualValues(t, 1, stats.Keystore.ActiveKeys)
	assert.EqualValues(t, 1, stats.Keystore.DestroyedKeys)
	assert.EqualValues(t, 1, stats.Keystore.TotalDestroyed)
	assert.EqualValues(t, 1, stats.Keystore.TotalAccesses)
	assert.EqualValues(t, 1, stats.Keystore.LedgerRecordings)
	assert.EqualValues(t, 0, stats.Keystore.LedgerFailures)

	assert.True(t, stats.Ledger.Enabled)
	assert.True(t, stats.Ledger.Connected)
	assert.NotEmpty(t, stats.Ledger.ContractAddress)
	assert.EqualValues(t, 1, stats.Ledger.SuccessRate)
}

func TestHealthAndDrainEndpoints(t *testing.T) {
	svc := newTestService(t, nil)

	assert.Equal(t, http.StatusOK, svc.get(t, "/livez").Code)
	assert.Equal(t, http.StatusOK, svc.get(t, "/readyz").Code)

	rec := svc.get(t, "/drain")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "draining")
	assert.Equal(t, http.StatusServiceUnavailable, svc.get(t, "/readyz").Code)

	rec = svc.get(t, "/drain")
	assert.Contains(t, rec.Body.String(), "already draining")

	require.Equal(t, http.StatusOK, svc.get(t, "/undrain").Code)
	assert.Equal(t, http.StatusOK, svc.get(t, "/readyz").Code)
}
