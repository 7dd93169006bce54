package certs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

const (
	// CertificateVersion is the version stamped into issued certificates.
	CertificateVersion = "1.0"

	// SchemaVersion identifies the certificate document layout.
	SchemaVersion = "1.0"

	systemVersion   = "1.0.0"
	issuerName      = "Verifiable Deletion Protocol System"
	certificateType = "DELETION_PROOF"
	validityForever = "PERMANENT"

	// SignatureAlgorithm names the scheme used to sign certificate bodies:
	// a 65-byte recoverable secp256k1 signature over the keccak256 digest
	// of the compact certificate JSON.
	SignatureAlgorithm = "secp256k1-keccak256"

	statusConfirmed = "CONFIRMED"
)

// Certificate is the body of a destruction certificate. Field order is the
// serialization order, which the signature covers.
type Certificate struct {
	ID               interfaces.CertificateID `json:"id"`
	Version          string                   `json:"version"`
	IssueDate        string                   `json:"issue_date"`
	User             UserInfo                 `json:"user"`
	DeletionDetails  DeletionDetails          `json:"deletion_details"`
	TechnicalDetails TechnicalDetails         `json:"technical_details"`
	BlockchainProof  *BlockchainProof         `json:"blockchain_proof,omitempty"`
	Verification     Verification             `json:"verification"`
	AdditionalData   map[string]any           `json:"additional_data,omitempty"`
	Metadata         Metadata                 `json:"metadata"`
}

// UserInfo identifies the data subject. Only a hash of the subject id is
// embedded so a published certificate does not leak who requested deletion.
type UserInfo struct {
	UserIDHash          string `json:"user_id_hash"`
	DeletionRequestTime string `json:"deletion_request_time"`
}

// DeletionDetails records what was destroyed, when and how, plus the proof
// hash and the format needed to recompute it from these fields.
type DeletionDetails struct {
	KeyID              interfaces.KeyID `json:"key_id"`
	DeletionMethod     string           `json:"deletion_method"`
	DeletionTimestamp  string           `json:"deletion_timestamp"`
	ProofFormat        string           `json:"proof_format"`
	ProofHash          string           `json:"proof_hash"`
	VerificationStatus string           `json:"verification_status"`
}

// TechnicalDetails describes the destroyed key. The fingerprint is a
// truncated digest of the key material captured at generation time; it
// feeds proof recomputation without revealing anything about the key.
type TechnicalDetails struct {
	EncryptionAlgorithm string `json:"encryption_algorithm"`
	KeySizeBits         int    `json:"key_size_bits"`
	DestructionMethod   string `json:"destruction_method"`
	KeyFingerprint      string `json:"key_fingerprint"`
}

// BlockchainProof carries the on-chain anchor of the destruction. A reduced
// form with only network, transaction hash and proof hash is used when the
// chain could not be queried at issuance time.
type BlockchainProof struct {
	Network           string `json:"network"`
	ChainID           uint64 `json:"chain_id,omitempty"`
	TransactionHash   string `json:"transaction_hash"`
	BlockNumber       uint64 `json:"block_number,omitempty"`
	GasUsed           uint64 `json:"gas_used,omitempty"`
	Timestamp         uint64 `json:"timestamp,omitempty"`
	TimestampReadable string `json:"timestamp_readable,omitempty"`
	Operator          string `json:"operator,omitempty"`
	ProofHash         string `json:"proof_hash,omitempty"`
}

// Verification tells a certificate holder how to check the document.
type Verification struct {
	BlockchainExplorerURL   string `json:"blockchain_explorer_url,omitempty"`
	VerificationToolCommand string `json:"verification_tool_command,omitempty"`
	ContractAddress         string `json:"contract_address,omitempty"`
	Note                    string `json:"note,omitempty"`
}

// Metadata describes the issuing system.
type Metadata struct {
	SystemVersion            string `json:"system_version"`
	CertificateSchemaVersion string `json:"certificate_schema_version"`
	Issuer                   string `json:"issuer"`
	CertificateType          string `json:"certificate_type"`
	Validity                 string `json:"validity"`
}

// Signature is the issuer's signature over the certificate body. Signer is
// the address of the signing key, which for anchored deletions is the same
// operator address that appears in the on-chain record.
type Signature struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
	Signer    string `json:"signer"`
}

// Document is the envelope persisted and served to callers. The certificate
// body is kept as raw JSON so signature verification works on the exact
// bytes that were signed, regardless of how the file was re-indented.
type Document struct {
	Certificate json.RawMessage `json:"certificate"`
	Signature   *Signature      `json:"signature,omitempty"`
}

// ParseDocument decodes a serialized certificate document and its body.
func ParseDocument(raw []byte) (*Document, *Certificate, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate document: %w", err)
	}
	if len(doc.Certificate) == 0 {
		return nil, nil, fmt.Errorf("certificate document has no certificate body")
	}

	var cert Certificate
	if err := json.Unmarshal(doc.Certificate, &cert); err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate body: %w", err)
	}

	return &doc, &cert, nil
}

// canonicalBody returns the certificate body with insignificant whitespace
// removed, which is the form signatures are computed over.
func (d *Document) canonicalBody() ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, d.Certificate); err != nil {
		return nil, fmt.Errorf("failed to canonicalize certificate body: %w", err)
	}
	return compact.Bytes(), nil
}
