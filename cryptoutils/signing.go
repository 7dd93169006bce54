package cryptoutils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// SignDocument signs the keccak256 digest of doc with a secp256k1 key,
// producing a 65-byte recoverable signature. The ledger operator key
// doubles as the certificate signing key so one address anchors both the
// on-chain record and the issued document.
func SignDocument(doc []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := ethcrypto.Keccak256(doc)

	signature, err := ethcrypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign document: %w", err)
	}
	return signature, nil
}

// RecoverSigner returns the address whose key produced the signature
// over doc.
func RecoverSigner(doc []byte, signature []byte) (interfaces.ContractAddress, error) {
	if len(signature) != 65 {
		return interfaces.ContractAddress{}, errors.New("invalid signature length: must be 65 bytes")
	}

	digest := ethcrypto.Keccak256(doc)
	pubkey, err := ethcrypto.SigToPub(digest, signature)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("failed to recover signer: %w", err)
	}

	return interfaces.NewContractAddressFromBytes(ethcrypto.PubkeyToAddress(*pubkey).Bytes())
}

// VerifyDocumentSignature checks that signature over doc was produced by
// the given signer address.
func VerifyDocumentSignature(doc []byte, signature []byte, signer interfaces.ContractAddress) error {
	recovered, err := RecoverSigner(doc, signature)
	if err != nil {
		return err
	}

	if !recovered.Equal(signer) {
		return fmt.Errorf("signature recovered %s, expected %s", recovered.Hex(), signer.Hex())
	}
	return nil
}
