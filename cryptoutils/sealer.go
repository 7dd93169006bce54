package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// DataSealer provides authenticated encryption of payloads under managed
// keys. The AEAD is chosen from the key's algorithm: ChaCha20-Poly1305
// for keys generated as such, AES-GCM for everything else.
//
// The sealer holds no key material. Every operation retrieves a fresh
// copy through the key manager, so access control and lifecycle state
// apply on each call, and wipes the copy before returning.
type DataSealer struct {
	keys        interfaces.KeyManager
	requesterID string
}

// NewDataSealer creates a sealer acting as the given requester.
func NewDataSealer(keys interfaces.KeyManager, requesterID string) *DataSealer {
	return &DataSealer{keys: keys, requesterID: requesterID}
}

// Seal encrypts plaintext under the managed key. The returned payload is
// the nonce followed by the ciphertext and authentication tag. Additional
// data is authenticated but not encrypted and must be presented again to
// open the payload.
func (s *DataSealer) Seal(keyID interfaces.KeyID, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := s.aeadFor(keyID)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Open decrypts a sealed payload. A destroyed key surfaces as
// ErrKeyDestroyed since the data is permanently unrecoverable; an
// authentication failure surfaces as ErrDecryptionFailed.
func (s *DataSealer) Open(keyID interfaces.KeyID, sealed, additionalData []byte) ([]byte, error) {
	aead, err := s.aeadFor(keyID)
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: sealed payload shorter than nonce", interfaces.ErrDecryptionFailed)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// aeadFor retrieves the key material and builds the AEAD matching the
// key's algorithm. The material copy is wiped before returning; the
// cipher keeps its own internal key schedule.
func (s *DataSealer) aeadFor(keyID interfaces.KeyID) (cipher.AEAD, error) {
	material, err := s.keys.Retrieve(keyID, s.requesterID)
	if err != nil {
		return nil, err
	}
	defer wipe(material)

	meta, err := s.keys.Metadata(keyID)
	if err != nil {
		return nil, err
	}

	if strings.ToUpper(meta.Algorithm) == "CHACHA20-POLY1305" {
		aead, err := chacha20poly1305.New(material)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ChaCha20-Poly1305: %w", err)
		}
		return aead, nil
	}

	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return aead, nil
}

func wipe(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
