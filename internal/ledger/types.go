package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"donation-chain/marketplace-ledger/ledger-backend/pkg/hashing"
)

// AccountID identifies an account on the ledger. It is opaque to the core:
// user accounts carry externally assigned ids, program accounts are derived.
type AccountID string

// AssetID identifies a token asset. The low bytes of a category's numeric id
// double as its asset id; bridge assets use the full 16 bytes of a derived
// digest.
type AssetID [16]byte

// String returns the hex form of the asset id.
func (a AssetID) String() string {
	return hex.EncodeToString(a[:])
}

// AssetFromUint maps a small numeric id onto an AssetID (little-endian).
func AssetFromUint(id uint64) AssetID {
	var out AssetID
	binary.LittleEndian.PutUint64(out[:8], id)
	return out
}

// AssetFromDigest builds an AssetID from a derived 16-byte digest.
func AssetFromDigest(digest [16]byte) AssetID {
	return AssetID(digest)
}

// DeriveProgramAccount returns the deterministic account id owned by a
// runtime program. Program accounts never collide with user accounts, which
// carry no "prog:" prefix.
func DeriveProgramAccount(programID string) AccountID {
	sum := hashing.Keccak256([]byte("prog/" + programID))
	return AccountID("prog:" + hex.EncodeToString(sum[:20]))
}

// Amount helpers. Balances are unsigned 128-bit on the host chain, carried
// here as big integers.

// NewAmount returns amount as a fresh big integer.
func NewAmount(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// ParseAssetID decodes an asset id from its hex form.
func ParseAssetID(s string) (AssetID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(AssetID{}) {
		return AssetID{}, fmt.Errorf("invalid asset id %q", s)
	}
	var out AssetID
	copy(out[:], raw)
	return out, nil
}

// ParseAmount parses a non-negative decimal amount from its string form,
// as carried in API requests.
func ParseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func validAmount(a *big.Int) bool {
	return a != nil && a.Sign() > 0
}

func clone(a *big.Int) *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a)
}
