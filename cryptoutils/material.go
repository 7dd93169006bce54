package cryptoutils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// acceptedKeySizes maps uppercase algorithm names to the key sizes they
// accept, in bytes.
var acceptedKeySizes = map[string][]int{
	"AES-128-GCM":       {16},
	"AES-256-GCM":       {32},
	"CHACHA20-POLY1305": {32},
	"AES-128-CBC":       {16},
	"AES-256-CBC":       {32},
}

// generalKeySizes applies to algorithms the table does not know.
var generalKeySizes = []int{16, 24, 32}

// ValidateKeySize checks that size is acceptable for the algorithm.
// Algorithm names match case-insensitively; unknown algorithms accept the
// general symmetric sizes of 16, 24 and 32 bytes.
func ValidateKeySize(algorithm string, size int) error {
	sizes, ok := acceptedKeySizes[strings.ToUpper(algorithm)]
	if !ok {
		sizes = generalKeySizes
	}

	if !slices.Contains(sizes, size) {
		return fmt.Errorf("%w: key size %d is not valid for %s", interfaces.ErrInvalidParameter, size, algorithm)
	}
	return nil
}

// GenerateKeyMaterial draws size bytes of fresh key material, validating
// the size against the algorithm's accepted sizes first. Passing a nil
// reader selects crypto/rand.
func GenerateKeyMaterial(algorithm string, size int, random io.Reader) ([]byte, error) {
	if err := ValidateKeySize(algorithm, size); err != nil {
		return nil, err
	}
	if random == nil {
		random = rand.Reader
	}

	material := make([]byte, size)
	if _, err := io.ReadFull(random, material); err != nil {
		return nil, fmt.Errorf("failed to draw key material: %w", err)
	}
	return material, nil
}

// KeyFingerprint returns the first 16 hex characters of the SHA-256
// digest of the key material. The fingerprint is computed once at
// generation and stored in metadata; after the material is erased nothing
// the system retains can recompute it.
func KeyFingerprint(material []byte) interfaces.Fingerprint {
	digest := sha256.Sum256(material)
	return interfaces.Fingerprint(hex.EncodeToString(digest[:8]))
}

// canonicalTimestampLayout renders six microsecond digits and a numeric
// zone offset regardless of the value, so the encoding width never varies.
const canonicalTimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// CanonicalTimestamp formats t in the fixed-width UTC form that feeds
// proof hashes, e.g. 2025-03-14T10:30:00.000000+00:00.
func CanonicalTimestamp(t time.Time) string {
	return t.UTC().Format(canonicalTimestampLayout)
}
