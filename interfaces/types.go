package interfaces

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// KeyID uniquely identifies a managed key. The format is "key_" followed
// by 32 lowercase hex characters (16 random bytes).
type KeyID string

// NewKeyID generates a fresh random key identifier.
func NewKeyID() (KeyID, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("key id entropy: %w", err)
	}
	return KeyID("key_" + hex.EncodeToString(buf[:])), nil
}

// Validate checks the key identifier format.
func (id KeyID) Validate() error {
	s := string(id)
	if !strings.HasPrefix(s, "key_") || len(s) != 36 {
		return errors.New("invalid key id: must be key_ followed by 32 hex characters")
	}
	if _, err := hex.DecodeString(s[4:]); err != nil {
		return fmt.Errorf("invalid key id: %w", err)
	}
	return nil
}

// String returns the key identifier as a string.
func (id KeyID) String() string {
	return string(id)
}

// KeyState tracks a key through its lifecycle. Transitions only move
// forward: active keys become pending_destruction and then destroyed, or
// expired once their expiry passes. Destroyed and expired are terminal.
type KeyState string

const (
	// KeyStateActive marks a key whose material is available.
	KeyStateActive KeyState = "active"
	// KeyStatePendingDestruction marks a key whose erasure has started but
	// not yet completed. Material is no longer served.
	KeyStatePendingDestruction KeyState = "pending_destruction"
	// KeyStateDestroyed marks a tombstone: metadata remains, material is gone.
	KeyStateDestroyed KeyState = "destroyed"
	// KeyStateExpired marks a key whose expiry passed before destruction.
	KeyStateExpired KeyState = "expired"
)

// String returns the state's wire name.
func (s KeyState) String() string {
	return string(s)
}

// Terminal reports whether no transition can leave the state.
func (s KeyState) Terminal() bool {
	return s == KeyStateDestroyed || s == KeyStateExpired
}

// ParseKeyState maps a wire name to a key state.
func ParseKeyState(s string) (KeyState, error) {
	switch KeyState(s) {
	case KeyStateActive, KeyStatePendingDestruction, KeyStateDestroyed, KeyStateExpired:
		return KeyState(s), nil
	}
	return "", fmt.Errorf("unknown key state %q", s)
}

// ErasureMethod selects the memory-erasure strategy applied when a key is
// destroyed. The zero value is not a valid method; callers must choose
// explicitly.
type ErasureMethod int

const (
	// NullErase leaves key material untouched. Insecure; it exists as an
	// explicit control for comparison and is never a default.
	NullErase ErasureMethod = iota + 1
	// SingleOverwrite overwrites the key with one pass of random bytes.
	SingleOverwrite
	// MultiPassOverwrite overwrites the key with zeros, then ones, then
	// random bytes.
	MultiPassOverwrite
	// DeterministicZero runs MultiPassOverwrite and finishes with an
	// all-zero pass, leaving the buffer in a verifiable end state.
	DeterministicZero
)

// String returns the wire name used in proof hashes, audit entries and
// on-chain records.
func (m ErasureMethod) String() string {
	switch m {
	case NullErase:
		return "null_erase"
	case SingleOverwrite:
		return "single_overwrite"
	case MultiPassOverwrite:
		return "multi_pass_overwrite"
	case DeterministicZero:
		return "deterministic_zero"
	default:
		return "unknown"
	}
}

// Valid reports whether the method is one of the defined strategies.
func (m ErasureMethod) Valid() bool {
	switch m {
	case NullErase, SingleOverwrite, MultiPassOverwrite, DeterministicZero:
		return true
	default:
		return false
	}
}

// ParseErasureMethod maps a wire name to its erasure method.
func ParseErasureMethod(s string) (ErasureMethod, error) {
	switch s {
	case "null_erase":
		return NullErase, nil
	case "single_overwrite":
		return SingleOverwrite, nil
	case "multi_pass_overwrite":
		return MultiPassOverwrite, nil
	case "deterministic_zero":
		return DeterministicZero, nil
	}
	return 0, fmt.Errorf("%w: unknown erasure method %q", ErrInvalidParameter, s)
}

// MarshalJSON encodes the method as its wire name.
func (m ErasureMethod) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid erasure method %d", int(m))
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a wire name into its method.
func (m *ErasureMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseErasureMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Fingerprint is the first 16 hex characters of the SHA-256 digest of key
// material. It is computed once at generation and kept in metadata; after
// destruction nothing retained by the system can recompute it.
type Fingerprint string

// String returns the fingerprint as a string.
func (fp Fingerprint) String() string {
	return string(fp)
}

// ProofHash is a 32-byte SHA-256 destruction proof digest.
type ProofHash [32]byte

// NewProofHashFromBytes creates a proof hash from a 32-byte slice.
func NewProofHashFromBytes(source []byte) (ProofHash, error) {
	if len(source) != 32 {
		return ProofHash{}, errors.New("invalid proof hash length: must be 32 bytes")
	}

	var h ProofHash
	copy(h[:], source)
	return h, nil
}

// ParseProofHash decodes a hex proof hash, with or without a 0x prefix.
// Input shorter than 32 bytes is zero-padded and longer input truncated,
// matching the tolerance of the on-chain verification path where a
// malformed hash must yield "not verified" rather than an error.
func ParseProofHash(source string) (ProofHash, error) {
	clean := strings.TrimPrefix(source, "0x")
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return ProofHash{}, fmt.Errorf("invalid proof hash hex: %w", err)
	}

	var h ProofHash
	copy(h[:], raw)
	return h, nil
}

// String returns the lowercase hex digest without a prefix, the form
// produced when the proof is first computed.
func (h ProofHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte digest.
func (h ProofHash) Bytes() []byte {
	return h[:]
}

// Equal compares two proof hashes.
func (h ProofHash) Equal(other ProofHash) bool {
	return bytes.Equal(h[:], other[:])
}

// IsZero reports whether no proof has been set.
func (h ProofHash) IsZero() bool {
	return h == ProofHash{}
}

// MarshalJSON encodes the digest as bare lowercase hex.
func (h ProofHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes hex with the same tolerance as ParseProofHash.
func (h *ProofHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseProofHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ContractAddress represents an Ethereum contract or account address.
type ContractAddress [20]byte

// NewContractAddressFromBytes creates an address from a 20-byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex creates an address from a hex string.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	// Remove 0x prefix if present
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return ContractAddress{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	// Validate hex format
	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ContractAddress{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewContractAddressFromBytes(addrBytes)
}

// String returns the hex representation without a 0x prefix.
func (addr ContractAddress) String() string {
	return hex.EncodeToString(addr[:])
}

// Hex returns the 0x-prefixed form used in JSON documents and explorer links.
func (addr ContractAddress) Hex() string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Bytes returns the raw 20-byte address.
func (addr ContractAddress) Bytes() []byte {
	return addr[:]
}

// Equal compares two contract addresses for equality.
func (addr ContractAddress) Equal(other ContractAddress) bool {
	return addr == other
}

// IsZero reports whether the address is unset.
func (addr ContractAddress) IsZero() bool {
	return addr == ContractAddress{}
}

// MarshalJSON encodes the address in its 0x-prefixed hex form.
func (addr ContractAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(addr.Hex())
}

// UnmarshalJSON decodes a hex address with or without the 0x prefix.
func (addr *ContractAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewContractAddressFromHex(s)
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

// KeyMetadata is the public record of a managed key. Key material itself
// never appears here; a destroyed key keeps its metadata as a tombstone.
type KeyMetadata struct {
	KeyID             KeyID          `json:"key_id"`
	State             KeyState       `json:"state"`
	Algorithm         string         `json:"algorithm"`
	KeySize           int            `json:"key_size"`
	Purpose           string         `json:"purpose,omitempty"`
	OwnerID           string         `json:"owner_id"`
	CreatedAt         time.Time      `json:"created_at"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	DestroyedAt       *time.Time     `json:"destroyed_at,omitempty"`
	DestructionMethod *ErasureMethod `json:"destruction_method,omitempty"`
	AccessCount       int64          `json:"access_count"`
	LastAccessedAt    *time.Time     `json:"last_accessed_at,omitempty"`
	Fingerprint       Fingerprint    `json:"fingerprint"`
}

// DestructionOutcome classifies how a destruction request concluded.
type DestructionOutcome int

const (
	// OutcomeDestroyed means this call erased the key.
	OutcomeDestroyed DestructionOutcome = iota + 1
	// OutcomeAlreadyDestroyed means the key was a tombstone before the
	// call. The operation is idempotent and still reported as a success.
	OutcomeAlreadyDestroyed
	// OutcomeFailed means the erasure primitive reported an error and the
	// key remains in pending_destruction.
	OutcomeFailed
)

// String returns the outcome's wire name.
func (o DestructionOutcome) String() string {
	switch o {
	case OutcomeDestroyed:
		return "destroyed"
	case OutcomeAlreadyDestroyed:
		return "already_destroyed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the outcome as its wire name.
func (o DestructionOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes a wire name into its outcome.
func (o *DestructionOutcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "destroyed":
		*o = OutcomeDestroyed
	case "already_destroyed":
		*o = OutcomeAlreadyDestroyed
	case "failed":
		*o = OutcomeFailed
	default:
		return fmt.Errorf("unknown destruction outcome %q", s)
	}
	return nil
}

// DestructionResult records the outcome of one destruction request,
// including the best-effort ledger anchoring that follows the erasure.
// Timestamp holds the canonical form of DestroyedAt captured at
// destruction time, so re-deriving the proof hash later is byte-identical.
type DestructionResult struct {
	KeyID       KeyID              `json:"key_id"`
	Method      ErasureMethod      `json:"method"`
	Outcome     DestructionOutcome `json:"outcome"`
	Success     bool               `json:"success"`
	DestroyedAt time.Time          `json:"-"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Fingerprint Fingerprint        `json:"fingerprint,omitempty"`
	ProofHash   *ProofHash         `json:"proof_hash,omitempty"`
	LedgerTx    string             `json:"ledger_tx,omitempty"`
	LedgerBlock uint64             `json:"ledger_block,omitempty"`
	OwnerID     string             `json:"owner_id,omitempty"`
	Algorithm   string             `json:"algorithm,omitempty"`
	KeySize     int                `json:"key_size,omitempty"`
}

// Anchored reports whether the result was recorded on the ledger.
func (r *DestructionResult) Anchored() bool {
	return r.LedgerTx != ""
}

// AuditEntry is one append-only audit log record. Entries are never
// mutated after being written.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Operation string         `json:"operation"`
	KeyID     KeyID          `json:"key_id"`
	Details   map[string]any `json:"details,omitempty"`
}

// DeletionRecord is the ledger's view of a recorded destruction. Method is
// kept as the raw on-chain string since the contract accepts arbitrary
// method names from other writers.
type DeletionRecord struct {
	KeyID             KeyID           `json:"key_id"`
	Method            string          `json:"destruction_method"`
	Timestamp         uint64          `json:"timestamp"`
	TimestampReadable string          `json:"timestamp_readable"`
	Operator          ContractAddress `json:"operator"`
	ProofHash         ProofHash       `json:"proof_hash"`
	Exists            bool            `json:"exists"`
}

// TxStatus reports where a submitted transaction stands.
type TxStatus string

const (
	// TxStatusPending means the transaction was submitted but not yet mined.
	TxStatusPending TxStatus = "pending"
	// TxStatusSuccess means the transaction was mined and executed.
	TxStatusSuccess TxStatus = "success"
	// TxStatusFailed means the transaction reverted on chain.
	TxStatusFailed TxStatus = "failed"
)

// TxReceiptSummary condenses an on-chain transaction receipt.
type TxReceiptSummary struct {
	TxHash      string   `json:"tx_hash"`
	BlockNumber uint64   `json:"block_number,omitempty"`
	GasUsed     uint64   `json:"gas_used,omitempty"`
	Status      TxStatus `json:"status"`
}

var certificateIDRegex = regexp.MustCompile(`^CERT-[0-9]{8}-[0-9A-F]{8}$`)

// CertificateID identifies a destruction certificate. The format is
// CERT-YYYYMMDD-XXXXXXXX: the UTC issue date followed by the first eight
// hex characters of SHA-256 over the subject id, uppercased. Reissuing for
// the same subject on the same day yields the same id, so the newer
// document replaces the older one.
type CertificateID string

// NewCertificateID derives the certificate identifier for a subject at the
// given issue time.
func NewCertificateID(subjectID string, issuedAt time.Time) CertificateID {
	digest := sha256.Sum256([]byte(subjectID))
	date := issuedAt.UTC().Format("20060102")
	return CertificateID("CERT-" + date + "-" + strings.ToUpper(hex.EncodeToString(digest[:4])))
}

// Validate checks the certificate identifier format.
func (id CertificateID) Validate() error {
	if !certificateIDRegex.MatchString(string(id)) {
		return errors.New("invalid certificate id format")
	}
	return nil
}

// String returns the certificate identifier as a string.
func (id CertificateID) String() string {
	return string(id)
}
