package cryptoutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

func TestValidateKeySize(t *testing.T) {
	assert.NoError(t, ValidateKeySize("AES-256-GCM", 32))
	assert.NoError(t, ValidateKeySize("AES-128-GCM", 16))
	assert.NoError(t, ValidateKeySize("AES-128-CBC", 16))
	assert.NoError(t, ValidateKeySize("AES-256-CBC", 32))

	err := ValidateKeySize("AES-256-GCM", 16)
	assert.ErrorIs(t, err, interfaces.ErrInvalidParameter, "AES-256-GCM must reject 16-byte keys")

	// Algorithm names match case-insensitively
	assert.NoError(t, ValidateKeySize("ChaCha20-Poly1305", 32))
	assert.NoError(t, ValidateKeySize("chacha20-poly1305", 32))
	assert.Error(t, ValidateKeySize("ChaCha20-Poly1305", 24), "ChaCha20-Poly1305 must reject 24-byte keys")
	assert.NoError(t, ValidateKeySize("aes-256-gcm", 32))

	// Unknown algorithms fall back to the general symmetric sizes
	assert.NoError(t, ValidateKeySize("Twofish", 16))
	assert.NoError(t, ValidateKeySize("Twofish", 24))
	assert.NoError(t, ValidateKeySize("Twofish", 32))
	assert.Error(t, ValidateKeySize("Twofish", 20))
	assert.Error(t, ValidateKeySize("Twofish", 0))
}

func TestGenerateKeyMaterial(t *testing.T) {
	material, err := GenerateKeyMaterial("AES-256-GCM", 32, nil)
	require.NoError(t, err, "Should generate with valid parameters")
	assert.Equal(t, 32, len(material), "Material length should match the requested size")
	assert.NotEqual(t, make([]byte, 32), material, "Material should not be all zero")

	// Two draws must differ
	other, err := GenerateKeyMaterial("AES-256-GCM", 32, nil)
	require.NoError(t, err)
	assert.NotEqual(t, material, other, "Separate generations should produce distinct material")

	// Size validation happens before any entropy is drawn
	_, err = GenerateKeyMaterial("AES-256-GCM", 31, nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidParameter)
}

func TestKeyFingerprint(t *testing.T) {
	// sha256("abc") = ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad
	fp := KeyFingerprint([]byte("abc"))
	assert.Equal(t, interfaces.Fingerprint("ba7816bf8f01cfea"), fp, "Fingerprint should be the first 16 hex characters of SHA-256")
	assert.Equal(t, 16, len(fp))

	// Deterministic and material-sensitive
	assert.Equal(t, fp, KeyFingerprint([]byte("abc")))
	assert.NotEqual(t, fp, KeyFingerprint([]byte("abd")))
}

func TestCanonicalTimestamp(t *testing.T) {
	// Whole seconds still render all six microsecond digits
	ts := CanonicalTimestamp(time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-14T10:30:00.000000+00:00", ts)

	// Sub-microsecond precision is truncated, not rounded
	ts = CanonicalTimestamp(time.Date(2025, 3, 14, 10, 30, 0, 123456789, time.UTC))
	assert.Equal(t, "2025-03-14T10:30:00.123456+00:00", ts)

	// Non-UTC inputs are converted before rendering
	zoned := time.Date(2025, 3, 14, 15, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, "2025-03-14T10:30:00.000000+00:00", CanonicalTimestamp(zoned))

	// Encoding width never varies
	assert.Equal(t, len(CanonicalTimestamp(time.Now())), len(ts), "Canonical encoding must be fixed width")
}
