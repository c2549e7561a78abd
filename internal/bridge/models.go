package bridge

import (
	"encoding/json"
	"errors"
	"math/big"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/pkg/hashing"
)

// Bridge errors. Each maps onto a distinct failure mode of an inbound
// asset operation.
var (
	// ErrAccountConversion signals that a location could not be converted
	// into a local account id.
	ErrAccountConversion = errors.New("bridge: cannot convert location to account")
	// ErrNonFungibleAsset rejects asset kinds without a fungible amount.
	ErrNonFungibleAsset = errors.New("bridge: only fungible amounts are supported")
	// ErrAssetNotRegistered signals an asset with no local mapping.
	ErrAssetNotRegistered = errors.New("bridge: asset not registered")
)

// AssetKind distinguishes fungible assets from non-fungible ones. Only
// fungible assets settle through the token backend.
type AssetKind string

const (
	KindFungible    AssetKind = "fungible"
	KindNonFungible AssetKind = "non_fungible"
)

// ExternalLocation describes where an asset or account lives in the wider
// chain topology. Key carries the location-local account or asset key.
type ExternalLocation struct {
	Parents   uint8  `json:"parents"`
	Parachain uint32 `json:"parachain"`
	Key       string `json:"key,omitempty"`
}

// ExternalAsset pairs a location with an asset kind. Its serialized form is
// the preimage of the local asset id.
type ExternalAsset struct {
	Location ExternalLocation `json:"location"`
	Kind     AssetKind        `json:"kind"`
}

// LocalID derives the 128-bit local asset id: Keccak-256 of the canonical
// encoding, truncated to 16 bytes.
func (a ExternalAsset) LocalID() ledger.AssetID {
	encoded, err := json.Marshal(a)
	if err != nil {
		panic(err)
	}
	return ledger.AssetFromDigest(hashing.Keccak128(encoded))
}

// AssetValue is an asset paired with a concrete value: an amount for
// fungible assets, an instance reference otherwise.
type AssetValue struct {
	Asset    ExternalAsset `json:"asset"`
	Amount   *big.Int      `json:"amount,omitempty"`
	Instance string        `json:"instance,omitempty"`
}

// FungibleAmount extracts the fungible amount, rejecting non-fungible and
// amountless values.
func (v AssetValue) FungibleAmount() (*big.Int, error) {
	if v.Asset.Kind != KindFungible || v.Amount == nil {
		return nil, ErrNonFungibleAsset
	}
	return v.Amount, nil
}

// AccountConverter converts external locations into local account ids.
type AccountConverter interface {
	AccountFromLocation(location ExternalLocation) (ledger.AccountID, error)
}

// KeyConverter is the default converter: the location's key field is the
// local account id verbatim.
type KeyConverter struct{}

// AccountFromLocation implements AccountConverter.
func (KeyConverter) AccountFromLocation(location ExternalLocation) (ledger.AccountID, error) {
	if location.Key == "" {
		return "", ErrAccountConversion
	}
	return ledger.AccountID(location.Key), nil
}
