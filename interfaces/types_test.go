package interfaces

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyID_NewKeyID(t *testing.T) {
	id, err := NewKeyID()
	require.NoError(t, err, "NewKeyID should succeed")
	assert.True(t, strings.HasPrefix(id.String(), "key_"), "Key id should carry the key_ prefix")
	assert.Equal(t, 36, len(id), "Key id should be key_ plus 32 hex characters")
	assert.NoError(t, id.Validate(), "Generated key id should validate")

	_, err = hex.DecodeString(id.String()[4:])
	assert.NoError(t, err, "Key id suffix should be valid hex")

	// Two generations must not collide
	other, err := NewKeyID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "Key ids should be unique")
}

func TestKeyID_Validate(t *testing.T) {
	assert.NoError(t, KeyID("key_0123456789abcdef0123456789abcdef").Validate())
	assert.Error(t, KeyID("0123456789abcdef0123456789abcdef").Validate(), "Should reject missing prefix")
	assert.Error(t, KeyID("key_0123").Validate(), "Should reject short id")
	assert.Error(t, KeyID("key_0123456789abcdef0123456789abcdeg").Validate(), "Should reject non-hex suffix")
}

func TestKeyState_Terminal(t *testing.T) {
	assert.False(t, KeyStateActive.Terminal())
	assert.False(t, KeyStatePendingDestruction.Terminal())
	assert.True(t, KeyStateDestroyed.Terminal(), "Destroyed should be terminal")
	assert.True(t, KeyStateExpired.Terminal(), "Expired should be terminal")
}

func TestErasureMethod_ParseAndString(t *testing.T) {
	for _, name := range []string{"null_erase", "single_overwrite", "multi_pass_overwrite", "deterministic_zero"} {
		method, err := ParseErasureMethod(name)
		require.NoError(t, err, "Should parse %s", name)
		assert.Equal(t, name, method.String(), "String should round-trip the wire name")
		assert.True(t, method.Valid())
	}

	// Unknown names are rejected with the parameter sentinel
	_, err := ParseErasureMethod("dod_5220")
	assert.ErrorIs(t, err, ErrInvalidParameter, "Unknown method should map to ErrInvalidParameter")

	_, err = ParseErasureMethod("")
	assert.Error(t, err, "Empty method should be rejected")

	assert.False(t, ErasureMethod(0).Valid(), "Zero value is not a valid method")
}

func TestErasureMethod_JSON(t *testing.T) {
	data, err := json.Marshal(DeterministicZero)
	require.NoError(t, err)
	assert.Equal(t, `"deterministic_zero"`, string(data))

	var method ErasureMethod
	require.NoError(t, json.Unmarshal([]byte(`"single_overwrite"`), &method))
	assert.Equal(t, SingleOverwrite, method)

	err = json.Unmarshal([]byte(`"shred"`), &method)
	assert.Error(t, err, "Unknown wire name should fail to unmarshal")

	_, err = json.Marshal(ErasureMethod(42))
	assert.Error(t, err, "Invalid method should fail to marshal")
}

func TestProofHash_Parse(t *testing.T) {
	raw := strings.Repeat("ab", 32)

	parsed, err := ParseProofHash(raw)
	require.NoError(t, err, "Should parse bare hex")
	assert.Equal(t, raw, parsed.String())

	prefixed, err := ParseProofHash("0x" + raw)
	require.NoError(t, err, "Should parse 0x-prefixed hex")
	assert.True(t, parsed.Equal(prefixed), "Prefix should not change the digest")

	// Short input is zero-padded on the right
	short, err := ParseProofHash("abcd")
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), short[0])
	assert.Equal(t, byte(0xcd), short[1])
	assert.Equal(t, byte(0x00), short[2], "Remainder should be zero")

	// Over-long input is truncated to 32 bytes
	long, err := ParseProofHash(raw + "ffff")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(long), "Extra bytes should be dropped")

	_, err = ParseProofHash("zz")
	assert.Error(t, err, "Non-hex input should be rejected")
}

func TestProofHash_ZeroValue(t *testing.T) {
	var h ProofHash
	assert.True(t, h.IsZero())

	parsed, err := ParseProofHash(strings.Repeat("00", 32))
	require.NoError(t, err)
	assert.True(t, parsed.IsZero(), "All-zero digest counts as unset")
}

func TestContractAddress_HexRoundTrip(t *testing.T) {
	addr, err := NewContractAddressFromHex("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	require.NoError(t, err, "Should parse checksummed address")
	assert.Equal(t, "742d35cc6634c0532925a3b844bc454e4438f44e", addr.String())
	assert.Equal(t, "0x742d35cc6634c0532925a3b844bc454e4438f44e", addr.Hex())

	bare, err := NewContractAddressFromHex("742d35cc6634c0532925a3b844bc454e4438f44e")
	require.NoError(t, err, "Should parse without prefix")
	assert.True(t, addr.Equal(bare))

	_, err = NewContractAddressFromHex("0x1234")
	assert.Error(t, err, "Should reject short address")

	_, err = NewContractAddressFromBytes(make([]byte, 19))
	assert.Error(t, err, "Should reject 19-byte input")
}

func TestCertificateID_Deterministic(t *testing.T) {
	issued := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	id := NewCertificateID("user-42", issued)
	assert.Equal(t, id, NewCertificateID("user-42", issued), "Same subject and day should yield the same id")
	assert.NoError(t, id.Validate(), "Generated id should validate")
	assert.True(t, strings.HasPrefix(id.String(), "CERT-20250314-"), "Id should carry the UTC issue date")

	// Later the same UTC day yields the same id
	laterSameDay := issued.Add(8 * time.Hour)
	assert.Equal(t, id, NewCertificateID("user-42", laterSameDay))

	// Different subject or different day changes the id
	assert.NotEqual(t, id, NewCertificateID("user-43", issued))
	assert.NotEqual(t, id, NewCertificateID("user-42", issued.AddDate(0, 0, 1)))

	assert.Error(t, CertificateID("CERT-invalid").Validate())
}

func TestDestructionResult_Anchored(t *testing.T) {
	result := &DestructionResult{KeyID: "key_0123456789abcdef0123456789abcdef"}
	assert.False(t, result.Anchored(), "Result without a tx is not anchored")

	result.LedgerTx = "0xabc"
	assert.True(t, result.Anchored())
}
