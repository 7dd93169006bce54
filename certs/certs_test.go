package certs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/cryptoutils"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/ledger"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/storage"
)

const testSubjectID = "alice@example.com"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDestructionResult builds a result whose proof hash is consistent with
// its fields, the way the key store produces them.
func testDestructionResult(t *testing.T) interfaces.DestructionResult {
	t.Helper()

	material := []byte("0123456789abcdef0123456789abcdef")
	fingerprint := cryptoutils.KeyFingerprint(material)
	destroyedAt := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	timestamp := cryptoutils.CanonicalTimestamp(destroyedAt)
	keyID := interfaces.KeyID("key_0123456789abcdef0123456789abcdef")

	proof, err := cryptoutils.ComputeProofHash(cryptoutils.ProofInput{
		KeyID:       keyID,
		Method:      interfaces.MultiPassOverwrite,
		DestroyedAt: timestamp,
		Fingerprint: fingerprint,
	})
	require.NoError(t, err)

	return interfaces.DestructionResult{
		KeyID:       keyID,
		Method:      interfaces.MultiPassOverwrite,
		Outcome:     interfaces.OutcomeDestroyed,
		Success:     true,
		DestroyedAt: destroyedAt,
		Timestamp:   timestamp,
		Fingerprint: fingerprint,
		ProofHash:   &proof,
		OwnerID:     testSubjectID,
		Algorithm:   "AES-256-GCM",
		KeySize:     32,
	}
}

func testFileStore(t *testing.T) *Store {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)
	return NewStore(backend, testLogger())
}

// TestIssuerGenerateUnanchored tests issuing for a destruction that never
// reached the chain: no proof block, an explanatory note, and no raw
// subject id anywhere in the document.
func TestIssuerGenerateUnanchored(t *testing.T) {
	ctx := context.Background()
	store := testFileStore(t)
	issuer := NewIssuer(Config{Store: store, Log: testLogger()})
	result := testDestructionResult(t)

	issued, err := issuer.Generate(ctx, result, testSubjectID, map[string]any{"regulation": "GDPR Article 17"})
	require.NoError(t, err)

	require.NoError(t, issued.ID.Validate())
	digest := sha256.Sum256([]byte(testSubjectID))
	assert.True(t, strings.HasSuffix(issued.ID.String(), strings.ToUpper(hex.EncodeToString(digest[:4]))),
		"Certificate id must end with the subject hash prefix")

	cert := issued.Certificate
	assert.Equal(t, CertificateVersion, cert.Version)
	assert.Nil(t, cert.BlockchainProof)
	assert.Equal(t, "This deletion was not recorded on blockchain", cert.Verification.Note)
	assert.Equal(t, "sha256:"+hex.EncodeToString(digest[:]), cert.User.UserIDHash)
	assert.Equal(t, result.Timestamp, cert.User.DeletionRequestTime)
	assert.Equal(t, result.KeyID, cert.DeletionDetails.KeyID)
	assert.Equal(t, "multi_pass_overwrite", cert.DeletionDetails.DeletionMethod)
	assert.Equal(t, cryptoutils.ProofFormatV1, cert.DeletionDetails.ProofFormat)
	assert.Equal(t, result.ProofHash.String(), cert.DeletionDetails.ProofHash)
	assert.Equal(t, "CONFIRMED", cert.DeletionDetails.VerificationStatus)
	assert.Equal(t, 256, cert.TechnicalDetails.KeySizeBits)
	assert.Equal(t, result.Fingerprint.String(), cert.TechnicalDetails.KeyFingerprint)
	assert.Equal(t, "DELETION_PROOF", cert.Metadata.CertificateType)
	assert.Equal(t, "PERMANENT", cert.Metadata.Validity)
	assert.Equal(t, "GDPR Article 17", cert.AdditionalData["regulation"])

	// The raw subject id must not leak into the published document.
	assert.NotContains(t, string(issued.Document), testSubjectID)

	// Unsigned issuer, unsigned document.
	doc, _, err := ParseDocument(issued.Document)
	require.NoError(t, err)
	assert.Nil(t, doc.Signature)

	// Stored under the certificate id.
	stored, err := store.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.Document, stored)
}

// TestIssuerGenerateAnchored tests that a reachable ledger yields a full
// blockchain proof block built from the receipt and the on-chain record.
func TestIssuerGenerateAnchored(t *testing.T) {
	ctx := context.Background()
	mock := ledger.NewMockLedgerClient()
	mock.SetTransactOpts()
	result := testDestructionResult(t)

	receipt, err := mock.RecordDeletion(ctx, result.KeyID, result.Method, *result.ProofHash, true)
	require.NoError(t, err)
	result.LedgerTx = receipt.TxHash
	result.LedgerBlock = receipt.BlockNumber

	issuer := NewIssuer(Config{Ledger: mock, Log: testLogger()})
	issued, err := issuer.Generate(ctx, result, testSubjectID, nil)
	require.NoError(t, err)

	proof := issued.Certificate.BlockchainProof
	require.NotNil(t, proof)
	assert.Equal(t, DefaultNetwork, proof.Network)
	assert.Equal(t, DefaultChainID, proof.ChainID)
	assert.Equal(t, receipt.TxHash, proof.TransactionHash)
	assert.Equal(t, receipt.BlockNumber, proof.BlockNumber)
	assert.Equal(t, receipt.GasUsed, proof.GasUsed)
	assert.NotZero(t, proof.Timestamp)
	assert.NotEmpty(t, proof.TimestampReadable)
	assert.Equal(t, mock.ContractAddress().Hex(), issued.Certificate.Verification.ContractAddress)
	assert.Equal(t, result.ProofHash.String(), proof.ProofHash)

	verification := issued.Certificate.Verification
	assert.Contains(t, verification.BlockchainExplorerURL, receipt.TxHash)
	assert.Contains(t, verification.VerificationToolCommand, issued.ID.String())
	assert.Empty(t, verification.Note)
}

// TestIssuerGenerateDegraded tests that an unreachable ledger degrades the
// proof block to transaction hash and proof hash instead of failing.
func TestIssuerGenerateDegraded(t *testing.T) {
	ctx := context.Background()
	mock := ledger.NewMockLedgerClient()
	mock.SetTransactOpts()
	result := testDestructionResult(t)

	receipt, err := mock.RecordDeletion(ctx, result.KeyID, result.Method, *result.ProofHash, true)
	require.NoError(t, err)
	result.LedgerTx = receipt.TxHash
	mock.SetOffline(true)

	issuer := NewIssuer(Config{Ledger: mock, Log: testLogger()})
	issued, err := issuer.Generate(ctx, result, testSubjectID, nil)
	require.NoError(t, err, "Issuance must survive a ledger outage")

	proof := issued.Certificate.BlockchainProof
	require.NotNil(t, proof)
	assert.Equal(t, receipt.TxHash, proof.TransactionHash)
	assert.Equal(t, result.ProofHash.String(), proof.ProofHash)
	assert.Zero(t, proof.BlockNumber)
	assert.Empty(t, proof.Operator)
	assert.Contains(t, issued.Certificate.Verification.Note, "after confirmation")
}

// TestIssuerValidation tests the issuance preconditions.
func TestIssuerValidation(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(Config{Log: testLogger()})

	failed := testDestructionResult(t)
	failed.Success = false
	_, err := issuer.Generate(ctx, failed, testSubjectID, nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidParameter)

	_, err = issuer.Generate(ctx, testDestructionResult(t), "", nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingField)

	noMethod := testDestructionResult(t)
	noMethod.Method = 0
	_, err = issuer.Generate(ctx, noMethod, testSubjectID, nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingField)

	noTimestamp := testDestructionResult(t)
	noTimestamp.Timestamp = ""
	_, err = issuer.Generate(ctx, noTimestamp, testSubjectID, nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingField)

	noFingerprint := testDestructionResult(t)
	noFingerprint.Fingerprint = ""
	_, err = issuer.Generate(ctx, noFingerprint, testSubjectID, nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingField)

	noProof := testDestructionResult(t)
	noProof.ProofHash = nil
	_, err = issuer.Generate(ctx, noProof, testSubjectID, nil)
	assert.ErrorIs(t, err, interfaces.ErrMissingField)

	badKey := testDestructionResult(t)
	badKey.KeyID = "key_short"
	_, err = issuer.Generate(ctx, badKey, testSubjectID, nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidParameter)
}

// TestVerifySignedDocument tests the full offline verification path on a
// freshly issued, signed certificate.
func TestVerifySignedDocument(t *testing.T) {
	ctx := context.Background()
	signingKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	issuer := NewIssuer(Config{SigningKey: signingKey, Log: testLogger()})
	issued, err := issuer.Generate(ctx, testDestructionResult(t), testSubjectID, nil)
	require.NoError(t, err)

	report, err := Verify(ctx, issued.Document, nil)
	require.NoError(t, err)

	assert.True(t, report.Valid, "Problems: %v", report.Problems)
	assert.True(t, report.ProofHashValid)
	require.NotNil(t, report.SignatureValid)
	assert.True(t, *report.SignatureValid)
	expectedSigner := interfaces.ContractAddress(ethcrypto.PubkeyToAddress(signingKey.PublicKey))
	assert.Equal(t, expectedSigner.Hex(), report.SignedBy)
	assert.Nil(t, report.OnChainVerified, "No ledger was supplied")
	assert.Equal(t, issued.ID, report.CertificateID)
}

// TestVerifyTamperedDocument tests that changing a certificate field breaks
// both the recomputed proof hash and the signature.
func TestVerifyTamperedDocument(t *testing.T) {
	ctx := context.Background()
	signingKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	issuer := NewIssuer(Config{SigningKey: signingKey, Log: testLogger()})
	issued, err := issuer.Generate(ctx, testDestructionResult(t), testSubjectID, nil)
	require.NoError(t, err)

	tampered := bytes.Replace(issued.Document,
		[]byte(`"deletion_method": "multi_pass_overwrite"`),
		[]byte(`"deletion_method": "null_erase"`), 1)
	require.NotEqual(t, issued.Document, tampered, "The tamper target must exist in the document")

	report, err := Verify(ctx, tampered, nil)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.False(t, report.ProofHashValid)
	require.NotNil(t, report.SignatureValid)
	assert.False(t, *report.SignatureValid)
	assert.NotEmpty(t, report.Problems)
}

// TestVerifyOnChain tests cross-checking a certificate against the ledger.
func TestVerifyOnChain(t *testing.T) {
	ctx := context.Background()
	mock := ledger.NewMockLedgerClient()
	mock.SetTransactOpts()
	result := testDestructionResult(t)

	receipt, err := mock.RecordDeletion(ctx, result.KeyID, result.Method, *result.ProofHash, true)
	require.NoError(t, err)
	result.LedgerTx = receipt.TxHash

	issuer := NewIssuer(Config{Ledger: mock, Log: testLogger()})
	issued, err := issuer.Generate(ctx, result, testSubjectID, nil)
	require.NoError(t, err)

	report, err := Verify(ctx, issued.Document, mock)
	require.NoError(t, err)
	require.NotNil(t, report.OnChainVerified)
	assert.True(t, *report.OnChainVerified)
	assert.True(t, report.Valid, "Problems: %v", report.Problems)

	// The same document against a chain that has no matching record.
	empty := ledger.NewMockLedgerClient()
	report, err = Verify(ctx, issued.Document, empty)
	require.NoError(t, err)
	require.NotNil(t, report.OnChainVerified)
	assert.False(t, *report.OnChainVerified)
	assert.False(t, report.Valid)
}

// TestStoreListNewestFirst tests id ordering and the not-found sentinel.
func TestStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := testFileStore(t)

	ids := []interfaces.CertificateID{
		"CERT-20260101-AAAAAAAA",
		"CERT-20260301-CCCCCCCC",
		"CERT-20260201-BBBBBBBB",
	}
	for _, id := range ids {
		require.NoError(t, store.Put(ctx, id, []byte(`{"certificate":{}}`)))
	}

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.CertificateID{
		"CERT-20260301-CCCCCCCC",
		"CERT-20260201-BBBBBBBB",
		"CERT-20260101-AAAAAAAA",
	}, listed)

	_, err = store.Get(ctx, "CERT-20260101-00000000")
	assert.ErrorIs(t, err, interfaces.ErrCertificateNotFound)

	err = store.Put(ctx, "not-a-certificate-id", []byte("{}"))
	assert.ErrorIs(t, err, interfaces.ErrInvalidParameter)
}

// TestIssuerReissueSameDayOverwrites tests that reissuing for the same
// subject on the same day produces the same id rather than a second
// certificate.
func TestIssuerReissueSameDayOverwrites(t *testing.T) {
	ctx := context.Background()
	store := testFileStore(t)
	issuer := NewIssuer(Config{Store: store, Log: testLogger()})
	result := testDestructionResult(t)

	first, err := issuer.Generate(ctx, result, testSubjectID, nil)
	require.NoError(t, err)
	second, err := issuer.Generate(ctx, result, testSubjectID, map[string]any{"reissued": true})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	stored, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Document, stored, "The newer document must replace the older one")
}
