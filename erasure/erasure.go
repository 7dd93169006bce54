// Package erasure implements the in-place overwrite strategies applied to
// key material during destruction. All functions operate directly on the
// caller's buffer; none of them allocate a copy of the data they erase.
//
// Random bytes are drawn from the provided io.Reader so tests can script
// the overwrite content. Passing nil selects crypto/rand. A zero-length
// buffer is a no-op for every strategy.
package erasure

import (
	"crypto/rand"
	"fmt"
	"io"
)

// NullErase leaves the buffer untouched. It exists as an explicit insecure
// control for comparing erasure strategies and must never be a default.
func NullErase(_ []byte) error {
	return nil
}

// SingleOverwrite fills the buffer with one pass of random bytes.
func SingleOverwrite(buf []byte, random io.Reader) error {
	if len(buf) == 0 {
		return nil
	}
	if random == nil {
		random = rand.Reader
	}

	if _, err := io.ReadFull(random, buf); err != nil {
		return fmt.Errorf("random overwrite pass: %w", err)
	}
	return nil
}

// MultiPassOverwrite overwrites the buffer three times: all zeros, all
// ones, then random bytes. Each pass writes the full buffer before the
// next begins.
func MultiPassOverwrite(buf []byte, random io.Reader) error {
	if len(buf) == 0 {
		return nil
	}

	fill(buf, 0x00)
	fill(buf, 0xFF)
	return SingleOverwrite(buf, random)
}

// DeterministicZero runs MultiPassOverwrite and finishes with a zero fill,
// leaving every byte 0x00. The known end state lets callers verify the
// erasure actually happened.
func DeterministicZero(buf []byte, random io.Reader) error {
	if err := MultiPassOverwrite(buf, random); err != nil {
		return err
	}
	fill(buf, 0x00)
	return nil
}

func fill(buf []byte, value byte) {
	for i := range buf {
		buf[i] = value
	}
}
