package erasure

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patternReader serves a fixed repeating byte so tests can predict the
// content of a random pass.
type patternReader struct {
	value byte
}

func (r *patternReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.value
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestNullErase_PreservesBuffer(t *testing.T) {
	buf := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	original := append([]byte(nil), buf...)

	require.NoError(t, NullErase(buf))
	assert.Equal(t, original, buf, "NullErase must not modify the buffer")
}

func TestSingleOverwrite_ReplacesContent(t *testing.T) {
	buf := bytes.Repeat([]byte{0x11}, 32)

	require.NoError(t, SingleOverwrite(buf, &patternReader{value: 0x5A}))
	assert.Equal(t, bytes.Repeat([]byte{0x5A}, 32), buf, "Buffer should hold the overwrite pass content")
}

func TestSingleOverwrite_DefaultsToCryptoRand(t *testing.T) {
	buf := make([]byte, 32)

	require.NoError(t, SingleOverwrite(buf, nil))
	assert.NotEqual(t, make([]byte, 32), buf, "A 32-byte random pass should not stay all zero")
}

func TestSingleOverwrite_EmptyBuffer(t *testing.T) {
	assert.NoError(t, SingleOverwrite(nil, failingReader{}), "Empty buffer should not touch the reader")
	assert.NoError(t, SingleOverwrite([]byte{}, failingReader{}))
}

func TestSingleOverwrite_ReaderFailure(t *testing.T) {
	buf := make([]byte, 16)
	err := SingleOverwrite(buf, failingReader{})
	assert.Error(t, err, "Reader failure must surface")
}

func TestMultiPassOverwrite_EndsWithRandomPass(t *testing.T) {
	buf := bytes.Repeat([]byte{0x33}, 24)

	require.NoError(t, MultiPassOverwrite(buf, &patternReader{value: 0xA7}))
	assert.Equal(t, bytes.Repeat([]byte{0xA7}, 24), buf, "Final pass content should be the random bytes")
}

func TestMultiPassOverwrite_ReaderFailure(t *testing.T) {
	buf := bytes.Repeat([]byte{0x33}, 16)

	err := MultiPassOverwrite(buf, failingReader{})
	assert.Error(t, err, "Reader failure must surface")
	// The fixed passes ran before the random pass failed
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), buf, "Ones pass should have completed before the failure")
}

func TestDeterministicZero_LeavesAllZero(t *testing.T) {
	// The verifiable end state must hold for every supported key size
	for _, size := range []int{16, 24, 32} {
		buf := bytes.Repeat([]byte{0x99}, size)

		require.NoError(t, DeterministicZero(buf, nil), "DeterministicZero should succeed for size %d", size)
		assert.Equal(t, make([]byte, size), buf, "Every byte should be zero for size %d", size)
	}
}

func TestDeterministicZero_InPlace(t *testing.T) {
	backing := bytes.Repeat([]byte{0x44}, 32)
	view := backing[:]

	require.NoError(t, DeterministicZero(view, nil))
	assert.Equal(t, make([]byte, 32), backing, "Erasure must happen through the caller's backing array")
}

func TestDeterministicZero_ReaderFailure(t *testing.T) {
	buf := bytes.Repeat([]byte{0x55}, 16)

	err := DeterministicZero(buf, failingReader{})
	assert.Error(t, err, "Reader failure must surface before the final zero pass")
	assert.NotEqual(t, make([]byte, 16), buf, "Failed erasure must not report the verified zero state")
}
