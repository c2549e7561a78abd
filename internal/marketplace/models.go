package marketplace

import (
	"encoding/json"
	"math/big"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
	"donation-chain/marketplace-ledger/ledger-backend/pkg/hashing"
)

// Status is a product's sale state. A product moves OpenForSell to Sold
// exactly once and is never re-listed.
type Status string

const (
	StatusOpenForSell Status = "open_for_sell"
	StatusSold        Status = "sold"
)

// ProductID is the content-derived identifier of a listing: the Keccak-256
// digest of the product record at listing time, hex encoded. Two listings
// collide only when every field matches.
type ProductID string

// ProductInfo is one marketplace listing. The price is fixed at listing
// time in category-token units.
type ProductInfo struct {
	Category  participants.Category  `json:"category"`
	Price     *big.Int               `json:"price"`
	Status    Status                 `json:"status"`
	Owner     ledger.AccountID       `json:"owner"`
	ContentID participants.ContentID `json:"content_id"`
}

// NewProductInfo builds a listing owned by seller, open for sale. The price
// is copied so later mutation of the caller's value cannot reprice the
// listing.
func NewProductInfo(category participants.Category, price *big.Int, owner ledger.AccountID, contentID participants.ContentID) ProductInfo {
	fixed := new(big.Int)
	if price != nil {
		fixed.Set(price)
	}
	return ProductInfo{
		Category:  category,
		Price:     fixed,
		Status:    StatusOpenForSell,
		Owner:     owner,
		ContentID: contentID,
	}
}

// ID derives the product identifier from the record's canonical encoding.
// It is computed at listing time, before any mutation.
func (p ProductInfo) ID() ProductID {
	encoded, err := json.Marshal(p)
	if err != nil {
		// every field is a plain value; Marshal cannot fail here
		panic(err)
	}
	return ProductID(hashing.HexDigest(encoded))
}

// MarkSold records buyer as the new owner and flips the status.
func (p *ProductInfo) MarkSold(buyer ledger.AccountID) {
	p.Status = StatusSold
	p.Owner = buyer
}
