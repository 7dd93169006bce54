package certs

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/cryptoutils"
	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// VerificationReport is the outcome of checking a certificate document.
// Pointer fields are nil when the corresponding check did not apply: an
// unsigned document has no signature verdict and a document without an
// anchor (or a verification run without a ledger) has no on-chain verdict.
type VerificationReport struct {
	CertificateID   interfaces.CertificateID `json:"certificate_id"`
	KeyID           interfaces.KeyID         `json:"key_id"`
	ProofHashValid  bool                     `json:"proof_hash_valid"`
	SignatureValid  *bool                    `json:"signature_valid,omitempty"`
	SignedBy        string                   `json:"signed_by,omitempty"`
	OnChainVerified *bool                    `json:"on_chain_verified,omitempty"`
	Valid           bool                     `json:"valid"`
	Problems        []string                 `json:"problems,omitempty"`
}

// Verify checks a certificate document end to end: the proof hash is
// recomputed from the document fields, the signature (when present) is
// recovered and matched against the declared signer, and the proof is
// cross-checked against the chain when a ledger is supplied. A non-nil
// error means the document could not be parsed at all; every verification
// failure lands in the report instead.
func Verify(ctx context.Context, raw []byte, deletionLedger interfaces.DeletionLedger) (*VerificationReport, error) {
	doc, cert, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		CertificateID: cert.ID,
		KeyID:         cert.DeletionDetails.KeyID,
	}

	if err := cert.ID.Validate(); err != nil {
		report.fail(fmt.Sprintf("certificate id: %v", err))
	}

	method, recomputed, recomputeErr := recomputeProofHash(cert)
	if recomputeErr != nil {
		report.fail(fmt.Sprintf("proof hash not recomputable: %v", recomputeErr))
	} else {
		report.ProofHashValid = recomputed.String() == cert.DeletionDetails.ProofHash
		if !report.ProofHashValid {
			report.fail("recomputed proof hash does not match the document")
		}
		if cert.BlockchainProof != nil && cert.BlockchainProof.ProofHash != "" &&
			cert.BlockchainProof.ProofHash != cert.DeletionDetails.ProofHash {
			report.ProofHashValid = false
			report.fail("blockchain proof block carries a different proof hash")
		}
	}

	if doc.Signature != nil {
		verifySignature(doc, report)
	}

	if deletionLedger != nil && cert.BlockchainProof != nil && recomputeErr == nil {
		verified := deletionLedger.VerifyDeletionProof(ctx, cert.DeletionDetails.KeyID, method, recomputed)
		report.OnChainVerified = &verified
		if !verified {
			report.fail("proof hash is not confirmed on chain")
		}
	}

	report.Valid = len(report.Problems) == 0
	return report, nil
}

// recomputeProofHash rebuilds the destruction proof from the fields the
// certificate itself carries.
func recomputeProofHash(cert *Certificate) (interfaces.ErasureMethod, interfaces.ProofHash, error) {
	method, err := interfaces.ParseErasureMethod(cert.DeletionDetails.DeletionMethod)
	if err != nil {
		return 0, interfaces.ProofHash{}, err
	}

	proof, err := cryptoutils.ComputeProofHash(cryptoutils.ProofInput{
		Version:     cert.DeletionDetails.ProofFormat,
		KeyID:       cert.DeletionDetails.KeyID,
		Method:      method,
		DestroyedAt: cert.DeletionDetails.DeletionTimestamp,
		Fingerprint: interfaces.Fingerprint(cert.TechnicalDetails.KeyFingerprint),
	})
	return method, proof, err
}

// verifySignature recovers the signer from the signature over the canonical
// body and compares it with the signer the document declares.
func verifySignature(doc *Document, report *VerificationReport) {
	valid := false
	report.SignatureValid = &valid

	body, err := doc.canonicalBody()
	if err != nil {
		report.fail(fmt.Sprintf("signature: %v", err))
		return
	}

	signature, err := hexutil.Decode(doc.Signature.Value)
	if err != nil {
		report.fail(fmt.Sprintf("signature value: %v", err))
		return
	}

	recovered, err := cryptoutils.RecoverSigner(body, signature)
	if err != nil {
		report.fail(fmt.Sprintf("signature: %v", err))
		return
	}
	report.SignedBy = recovered.Hex()

	declared, err := interfaces.NewContractAddressFromHex(doc.Signature.Signer)
	if err != nil {
		report.fail(fmt.Sprintf("declared signer: %v", err))
		return
	}

	if !recovered.Equal(declared) {
		report.fail("signature was not produced by the declared signer")
		return
	}
	valid = true
}

func (r *VerificationReport) fail(problem string) {
	r.Problems = append(r.Problems, problem)
}
