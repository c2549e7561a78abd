package hashing

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeccak256(t *testing.T) {
	// Known Keccak-256 vector for the empty input.
	sum := Keccak256(nil)
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(sum[:]))
}

func TestKeccak128Truncates(t *testing.T) {
	full := Keccak256([]byte("hello"))
	half := Keccak128([]byte("hello"))
	assert.Equal(t, full[:16], half[:])
}

func TestHexDigest(t *testing.T) {
	sum := Keccak256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), HexDigest([]byte("hello")))
	assert.Len(t, HexDigest([]byte("hello")), 64)
}
