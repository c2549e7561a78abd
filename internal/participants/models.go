package participants

import (
	"fmt"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Category is the closed set of goods categories. Each category's numeric
// id doubles as the asset id of its donation token.
type Category uint8

const (
	CategoryPharmaceutical Category = 0
	CategoryStationery     Category = 1
	CategoryGrocery        Category = 2
	CategoryClothing       Category = 3
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{CategoryPharmaceutical, CategoryStationery, CategoryGrocery, CategoryClothing}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c <= CategoryClothing
}

// AssetID returns the token asset backing this category.
func (c Category) AssetID() ledger.AssetID {
	return ledger.AssetFromUint(uint64(c))
}

func (c Category) String() string {
	switch c {
	case CategoryPharmaceutical:
		return "pharmaceutical"
	case CategoryStationery:
		return "stationery"
	case CategoryGrocery:
		return "grocery"
	case CategoryClothing:
		return "clothing"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory maps the string form back onto a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// ContentID is an opaque reference to off-chain content. The core never
// dereferences it.
type ContentID string

// MaxNgoCategories bounds the category set an NGO may declare.
const MaxNgoCategories = 100

// NgoInfo describes an NGO application.
type NgoInfo struct {
	Categories []Category `json:"categories"`
	ContentID  ContentID  `json:"content_id"`
}

// IsCategoryAllowed reports whether the NGO accepts donations in category.
func (i NgoInfo) IsCategoryAllowed(category Category) bool {
	for _, c := range i.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Validate checks the declared category set.
func (i NgoInfo) Validate() error {
	if len(i.Categories) > MaxNgoCategories {
		return fmt.Errorf("at most %d categories allowed, got %d", MaxNgoCategories, len(i.Categories))
	}
	for _, c := range i.Categories {
		if !c.Valid() {
			return fmt.Errorf("unknown category %d", uint8(c))
		}
	}
	return nil
}

// SellerInfo describes a seller application. A seller trades in exactly one
// category.
type SellerInfo struct {
	Category  Category  `json:"category"`
	ContentID ContentID `json:"content_id"`
}

// IsCategoryAllowed reports whether the seller trades in category.
func (i SellerInfo) IsCategoryAllowed(category Category) bool {
	return i.Category == category
}

// Validate checks the declared category.
func (i SellerInfo) Validate() error {
	if !i.Category.Valid() {
		return fmt.Errorf("unknown category %d", uint8(i.Category))
	}
	return nil
}

// Membership is the registry's view of one account, for status queries.
type Membership struct {
	NgoWaiting    bool `json:"ngo_waiting"`
	NgoActive     bool `json:"ngo_active"`
	SellerWaiting bool `json:"seller_waiting"`
	SellerActive  bool `json:"seller_active"`
}
