package donation

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

// Reconciler asserts the settlement invariant: every outstanding category
// token is backed one-for-one by native currency held in escrow. Drift
// means mint, burn and escrow transfers have come apart.
type Reconciler struct {
	store  *ledger.Store
	escrow ledger.AccountID
	logger *zap.Logger
}

// NewReconciler creates a reconciler for the settlement engine's escrow.
func NewReconciler(service *Service, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: service.store, escrow: service.escrow, logger: logger}
}

// Check compares the escrow balance against the total outstanding token
// supply and returns an error on shortfall.
func (r *Reconciler) Check(ctx context.Context) error {
	var escrowBalance, outstanding *big.Int
	r.store.View(func(tx *ledger.Tx) error {
		escrowBalance = tx.FreeBalance(r.escrow)
		outstanding = new(big.Int)
		for _, category := range participants.Categories() {
			outstanding.Add(outstanding, tx.TokenSupply(category.AssetID()))
		}
		return nil
	})

	if escrowBalance.Cmp(outstanding) < 0 {
		shortfall := new(big.Int).Sub(outstanding, escrowBalance)
		r.logger.Error("escrow shortfall detected",
			zap.String("escrow_balance", escrowBalance.String()),
			zap.String("outstanding_supply", outstanding.String()),
			zap.String("shortfall", shortfall.String()),
		)
		return fmt.Errorf("escrow holds %s but %s tokens are outstanding", escrowBalance, outstanding)
	}

	r.logger.Debug("escrow reconciled",
		zap.String("escrow_balance", escrowBalance.String()),
		zap.String("outstanding_supply", outstanding.String()),
	)
	return nil
}
