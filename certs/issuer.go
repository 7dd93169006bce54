package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/cryptoutils"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

const (
	// DefaultNetwork is the chain name stamped into blockchain proof blocks.
	DefaultNetwork = "ethereum_sepolia"

	// DefaultChainID is the Sepolia testnet chain id.
	DefaultChainID uint64 = 11155111

	defaultExplorerTxURL = "https://sepolia.etherscan.io/tx/%s"

	// issueDateLayout renders UTC issue dates with microseconds and a
	// trailing Z, e.g. 2026-08-23T10:30:00.000000Z.
	issueDateLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// Config carries the collaborators and chain parameters of an Issuer.
// Store, Ledger and SigningKey are all optional: without a store documents
// are only returned to the caller, without a ledger anchored results get a
// reduced proof block, and without a key documents are unsigned.
type Config struct {
	Store       interfaces.CertificateStore
	Ledger      interfaces.DeletionLedger
	SigningKey  *ecdsa.PrivateKey
	Network     string
	ChainID     uint64
	ExplorerURL string
	Log         *slog.Logger
}

// Issuer builds, signs and persists destruction certificates.
type Issuer struct {
	store       interfaces.CertificateStore
	ledger      interfaces.DeletionLedger
	signingKey  *ecdsa.PrivateKey
	signerAddr  interfaces.ContractAddress
	network     string
	chainID     uint64
	explorerURL string
	log         *slog.Logger
}

// NewIssuer creates a certificate issuer from the config, applying the
// Sepolia defaults for any unset chain parameter.
func NewIssuer(cfg Config) *Issuer {
	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = DefaultChainID
	}
	if cfg.ExplorerURL == "" {
		cfg.ExplorerURL = defaultExplorerTxURL
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	issuer := &Issuer{
		store:       cfg.Store,
		ledger:      cfg.Ledger,
		signingKey:  cfg.SigningKey,
		network:     cfg.Network,
		chainID:     cfg.ChainID,
		explorerURL: cfg.ExplorerURL,
		log:         cfg.Log,
	}
	if cfg.SigningKey != nil {
		issuer.signerAddr = interfaces.ContractAddress(ethcrypto.PubkeyToAddress(cfg.SigningKey.PublicKey))
	}
	return issuer
}

// IssuedCertificate is the outcome of certificate generation: the id, the
// typed body, and the serialized signed document as persisted.
type IssuedCertificate struct {
	ID          interfaces.CertificateID
	Certificate *Certificate
	Document    []byte
}

// Generate issues a destruction certificate for a completed destruction.
// The subject id is hashed into the document, never embedded raw. Reissuing
// for the same subject on the same UTC day produces the same certificate id
// and overwrites the stored document.
func (i *Issuer) Generate(ctx context.Context, result interfaces.DestructionResult, subjectID string, extra map[string]any) (*IssuedCertificate, error) {
	if err := validateResult(result, subjectID); err != nil {
		return nil, err
	}

	issuedAt := time.Now().UTC()
	id := interfaces.NewCertificateID(subjectID, issuedAt)

	cert := &Certificate{
		ID:        id,
		Version:   CertificateVersion,
		IssueDate: issuedAt.Format(issueDateLayout),
		User: UserInfo{
			UserIDHash:          hashSubjectID(subjectID),
			DeletionRequestTime: result.Timestamp,
		},
		DeletionDetails: DeletionDetails{
			KeyID:              result.KeyID,
			DeletionMethod:     result.Method.String(),
			DeletionTimestamp:  result.Timestamp,
			ProofFormat:        cryptoutils.ProofFormatV1,
			ProofHash:          result.ProofHash.String(),
			VerificationStatus: statusConfirmed,
		},
		TechnicalDetails: TechnicalDetails{
			EncryptionAlgorithm: result.Algorithm,
			KeySizeBits:         result.KeySize * 8,
			DestructionMethod:   result.Method.String(),
			KeyFingerprint:      result.Fingerprint.String(),
		},
		Metadata: Metadata{
			SystemVersion:            systemVersion,
			CertificateSchemaVersion: SchemaVersion,
			Issuer:                   issuerName,
			CertificateType:          certificateType,
			Validity:                 validityForever,
		},
	}

	if len(extra) > 0 {
		cert.AdditionalData = make(map[string]any, len(extra))
		for k, v := range extra {
			cert.AdditionalData[k] = v
		}
	}

	i.attachLedgerProof(ctx, cert, result)

	body, err := json.Marshal(cert)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize certificate: %w", err)
	}

	doc := &Document{Certificate: body}
	if i.signingKey != nil {
		signature, err := cryptoutils.SignDocument(body, i.signingKey)
		if err != nil {
			return nil, fmt.Errorf("failed to sign certificate: %w", err)
		}
		doc.Signature = &Signature{
			Algorithm: SignatureAlgorithm,
			Value:     hexutil.Encode(signature),
			Signer:    i.signerAddr.Hex(),
		}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize certificate document: %w", err)
	}

	if i.store != nil {
		if err := i.store.Put(ctx, id, raw); err != nil {
			return nil, fmt.Errorf("failed to store certificate: %w", err)
		}
	}

	i.log.Info("Issued destruction certificate",
		slog.String("certificate_id", id.String()),
		slog.String("key_id", result.KeyID.String()),
		slog.Bool("anchored", cert.BlockchainProof != nil),
		slog.Bool("signed", doc.Signature != nil))

	return &IssuedCertificate{ID: id, Certificate: cert, Document: raw}, nil
}

// attachLedgerProof fills the blockchain proof and verification sections.
// Results that never reached the chain get a plain note; anchored results
// whose details cannot be fetched right now degrade to a reduced proof block
// instead of failing issuance.
func (i *Issuer) attachLedgerProof(ctx context.Context, cert *Certificate, result interfaces.DestructionResult) {
	if result.LedgerTx == "" {
		cert.Verification = Verification{Note: "This deletion was not recorded on blockchain"}
		return
	}

	toolCommand := fmt.Sprintf("kmsclient certificate verify --id %s", cert.ID)
	explorerURL := fmt.Sprintf(i.explorerURL, result.LedgerTx)

	if i.ledger != nil {
		receipt, receiptErr := i.ledger.TransactionReceipt(ctx, result.LedgerTx)
		record, recordErr := i.ledger.GetDeletionRecord(ctx, result.KeyID)
		if receiptErr == nil && recordErr == nil && receipt != nil && record != nil {
			cert.BlockchainProof = &BlockchainProof{
				Network:           i.network,
				ChainID:           i.chainID,
				TransactionHash:   result.LedgerTx,
				BlockNumber:       receipt.BlockNumber,
				GasUsed:           receipt.GasUsed,
				Timestamp:         record.Timestamp,
				TimestampReadable: record.TimestampReadable,
				Operator:          record.Operator.Hex(),
				ProofHash:         record.ProofHash.String(),
			}
			cert.Verification = Verification{
				BlockchainExplorerURL:   explorerURL,
				VerificationToolCommand: toolCommand,
				ContractAddress:         i.ledger.ContractAddress().Hex(),
			}
			return
		}

		i.log.Warn("Could not fetch ledger details for certificate",
			slog.String("tx_hash", result.LedgerTx),
			"receipt_err", receiptErr,
			"record_err", recordErr)
	}

	cert.BlockchainProof = &BlockchainProof{
		Network:         i.network,
		TransactionHash: result.LedgerTx,
		ProofHash:       result.ProofHash.String(),
	}
	cert.Verification = Verification{
		BlockchainExplorerURL:   explorerURL,
		VerificationToolCommand: toolCommand,
		Note:                    "Detailed blockchain information will be available after confirmation",
	}
}

func validateResult(result interfaces.DestructionResult, subjectID string) error {
	if !result.Success {
		return fmt.Errorf("%w: cannot issue a certificate for a failed destruction", interfaces.ErrInvalidParameter)
	}
	if subjectID == "" {
		return fmt.Errorf("%w: subject id", interfaces.ErrMissingField)
	}
	if result.KeyID == "" {
		return fmt.Errorf("%w: key id", interfaces.ErrMissingField)
	}
	if err := result.KeyID.Validate(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidParameter, err)
	}
	if !result.Method.Valid() {
		return fmt.Errorf("%w: destruction method", interfaces.ErrMissingField)
	}
	if result.Timestamp == "" {
		return fmt.Errorf("%w: destruction timestamp", interfaces.ErrMissingField)
	}
	if result.Fingerprint == "" {
		return fmt.Errorf("%w: key fingerprint", interfaces.ErrMissingField)
	}
	if result.ProofHash == nil || result.ProofHash.IsZero() {
		return fmt.Errorf("%w: destruction proof hash", interfaces.ErrMissingField)
	}
	return nil
}

// hashSubjectID hashes the subject id so certificates can be published
// without identifying who requested the deletion.
func hashSubjectID(subjectID string) string {
	digest := sha256.Sum256([]byte(subjectID))
	return "sha256:" + hex.EncodeToString(digest[:])
}
