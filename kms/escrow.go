package kms

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/hashicorp/vault/shamir"
	"golang.org/x/crypto/hkdf"

	"github.com/KeyStory/Verifiable-Deletion-Protocol/interfaces"
)

// shareChecksumLen is the length of the integrity prefix on each escrow
// share. Eight bytes keeps mistyped shares failing at recovery time
// without revealing anything about the underlying share.
const shareChecksumLen = 8

var shareChecksumInfo = []byte("deletion-protocol/share-checksum")

// SplitOperatorKey splits a secret into shares with Shamir secret
// sharing, any threshold of which recover it. Each share carries a
// checksum prefix so a corrupted share is rejected before combination
// instead of silently producing a wrong secret.
func SplitOperatorKey(secret []byte, parts, threshold int) ([][]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", interfaces.ErrInvalidParameter)
	}
	if threshold < 2 || parts < threshold {
		return nil, fmt.Errorf("%w: need parts >= threshold >= 2, got parts=%d threshold=%d", interfaces.ErrInvalidParameter, parts, threshold)
	}

	shares, err := shamir.Split(secret, parts, threshold)
	if err != nil {
		return nil, fmt.Errorf("could not split secret: %w", err)
	}

	sealed := make([][]byte, len(shares))
	for i, share := range shares {
		checksum, err := shareChecksum(share)
		if err != nil {
			return nil, err
		}
		sealed[i] = append(checksum, share...)
	}
	return sealed, nil
}

// RecoverOperatorKey combines checksummed shares back into the secret.
// Every share's checksum is verified first; a single bad share fails the
// whole recovery with its index in the error.
func RecoverOperatorKey(shares [][]byte) ([]byte, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 shares, got %d", interfaces.ErrInvalidParameter, len(shares))
	}

	bare := make([][]byte, len(shares))
	for i, share := range shares {
		if len(share) <= shareChecksumLen {
			return nil, fmt.Errorf("%w: share %d is too short", interfaces.ErrInvalidParameter, i)
		}
		payload := share[shareChecksumLen:]
		checksum, err := shareChecksum(payload)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(checksum, share[:shareChecksumLen]) {
			return nil, fmt.Errorf("%w: share %d failed its checksum", interfaces.ErrInvalidParameter, i)
		}
		bare[i] = payload
	}

	secret, err := shamir.Combine(bare)
	if err != nil {
		return nil, fmt.Errorf("could not combine shares: %w", err)
	}
	return secret, nil
}

func shareChecksum(share []byte) ([]byte, error) {
	checksum := make([]byte, shareChecksumLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, share, nil, shareChecksumInfo), checksum); err != nil {
		return nil, fmt.Errorf("share checksum derivation: %w", err)
	}
	return checksum, nil
}
