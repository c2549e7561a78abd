package hashing

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest of data. The host chain
// derives all content-addressed identifiers with this variant, not the
// standardized SHA3-256.
func Keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var sum [32]byte
	h.Sum(sum[:0])
	return sum
}

// Keccak128 returns the first 16 bytes of the Keccak-256 digest, used for
// compact derived identifiers such as local asset ids.
func Keccak128(data []byte) [16]byte {
	sum := Keccak256(data)
	var out [16]byte
	copy(out[:], sum[:16])
	return out
}

// HexDigest returns the lowercase hex encoding of a Keccak-256 digest.
func HexDigest(data []byte) string {
	sum := Keccak256(data)
	return hex.EncodeToString(sum[:])
}
