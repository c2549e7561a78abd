package governance

import (
	"errors"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// ErrNotAuthorized rejects an origin that does not carry governance authority.
var ErrNotAuthorized = errors.New("governance: origin not authorized")

// Origin describes who is asking for a privileged operation and with whose
// backing. It is built either directly (tests, bootstrap) or from a signed
// token on the HTTP surface.
type Origin struct {
	Caller      ledger.AccountID
	Root        bool
	Councillors []ledger.AccountID
}

// Authorizer gates governance-only operations such as participant approval
// and bridge asset registration.
type Authorizer interface {
	Authorize(origin Origin) error
}

// Council authorizes the root account directly, or any origin backed by at
// least half of the council membership.
type Council struct {
	root    ledger.AccountID
	members map[ledger.AccountID]struct{}
}

// NewCouncil creates a council authorizer.
func NewCouncil(root ledger.AccountID, members []ledger.AccountID) *Council {
	set := make(map[ledger.AccountID]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return &Council{root: root, members: set}
}

// Authorize implements Authorizer.
func (c *Council) Authorize(origin Origin) error {
	if origin.Root || (c.root != "" && origin.Caller == c.root) {
		return nil
	}
	if len(c.members) == 0 {
		return ErrNotAuthorized
	}
	backing := 0
	for _, councillor := range origin.Councillors {
		if _, ok := c.members[councillor]; ok {
			backing++
		}
	}
	if backing*2 >= len(c.members) {
		return nil
	}
	return ErrNotAuthorized
}
