package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventKind labels a settled ledger operation.
type EventKind string

const (
	KindNgoApplied      EventKind = "ngo_applied"
	KindNgoApproved     EventKind = "ngo_approved"
	KindSellerApplied   EventKind = "seller_applied"
	KindSellerApproved  EventKind = "seller_approved"
	KindTokenDonated    EventKind = "token_donated"
	KindTokensClaimed   EventKind = "tokens_claimed"
	KindProductListed   EventKind = "product_listed"
	KindProductBought   EventKind = "product_bought"
	KindAssetRegistered EventKind = "asset_registered"
	KindBridgeDeposit   EventKind = "bridge_deposit"
	KindBridgeWithdraw  EventKind = "bridge_withdraw"
	KindBridgeTransfer  EventKind = "bridge_transfer"
)

// Event is one settled operation on the ledger. Amounts are recorded in
// decimal string form since they are unsigned 128-bit on chain.
type Event struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Kind         EventKind `db:"kind" json:"kind"`
	Actor        string    `db:"actor" json:"actor"`
	Counterparty string    `db:"counterparty" json:"counterparty,omitempty"`
	Category     string    `db:"category" json:"category,omitempty"`
	Amount       string    `db:"amount" json:"amount,omitempty"`
	Reference    string    `db:"reference" json:"reference,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(kind EventKind, actor string) *Event {
	return &Event{
		ID:        uuid.New(),
		Kind:      kind,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	}
}
