package cryptoutils

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// ProofFormatV1 hashes "key_id|method|timestamp|fingerprint" with SHA-256.
// It is the only format defined so far.
const ProofFormatV1 = "v1"

// ProofInput carries the fields bound into a destruction proof hash.
//
// DestroyedAt must be the canonical timestamp string captured when the
// key was destroyed, passed through verbatim. Re-encoding the time on the
// verification path would risk a different rendering and a proof that no
// longer matches.
type ProofInput struct {
	// Version selects the input layout. Empty selects the current format.
	Version     string
	KeyID       interfaces.KeyID
	Method      interfaces.ErasureMethod
	DestroyedAt string
	Fingerprint interfaces.Fingerprint
}

// ComputeProofHash derives the destruction proof digest for the input.
// The same input always produces the same digest, and changing any single
// field produces a different one. Unknown format versions are rejected.
func ComputeProofHash(input ProofInput) (interfaces.ProofHash, error) {
	switch input.Version {
	case "", ProofFormatV1:
	default:
		return interfaces.ProofHash{}, fmt.Errorf("unsupported proof format %q", input.Version)
	}

	if !input.Method.Valid() {
		return interfaces.ProofHash{}, fmt.Errorf("%w: proof input requires a valid erasure method", interfaces.ErrInvalidParameter)
	}

	payload := strings.Join([]string{
		input.KeyID.String(),
		input.Method.String(),
		input.DestroyedAt,
		input.Fingerprint.String(),
	}, "|")

	return interfaces.ProofHash(sha256.Sum256([]byte(payload))), nil
}
