package donation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/identity"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

func newTestEngine(t *testing.T) (*Service, *participants.Service, *ledger.Store) {
	t.Helper()
	store := ledger.NewStore(ledger.NewAmount(1))
	registry := participants.NewService(store, identity.NewRegistrar(), governance.NewCouncil("root", nil), audit.NopRecorder{}, participants.Config{
		NgoStakingAmount:    ledger.NewAmount(100),
		SellerStakingAmount: ledger.NewAmount(100),
	}, zap.NewNop())
	service := NewService(store, registry, "dnthdlr", audit.NopRecorder{}, zap.NewNop())
	require.NoError(t, service.CreateCategoryAssets(context.Background()))
	return service, registry, store
}

func fund(t *testing.T, store *ledger.Store, who ledger.AccountID, amount uint64) {
	t.Helper()
	require.NoError(t, store.Update(func(tx *ledger.Tx) error {
		return tx.DepositCreating(who, ledger.NewAmount(amount))
	}))
}

func tokenBalance(store *ledger.Store, category participants.Category, who ledger.AccountID) uint64 {
	var v uint64
	store.View(func(tx *ledger.Tx) error {
		v = tx.TokenBalance(category.AssetID(), who).Uint64()
		return nil
	})
	return v
}

func TestDonate(t *testing.T) {
	service, registry, store := newTestEngine(t)
	ctx := context.Background()

	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{Categories: []participants.Category{participants.CategoryGrocery}})
	fund(t, store, "donor", 1000)

	require.NoError(t, service.Donate(ctx, "donor", "ngo1", participants.CategoryGrocery, ledger.NewAmount(400)))

	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(600), tx.FreeBalance("donor"))
		assert.Equal(t, ledger.NewAmount(400), tx.FreeBalance(service.EscrowAccount()))
		return nil
	})
	assert.EqualValues(t, 400, tokenBalance(store, participants.CategoryGrocery, "ngo1"))
}

func TestDonateToInactiveNgo(t *testing.T) {
	service, _, store := newTestEngine(t)
	fund(t, store, "donor", 1000)

	err := service.Donate(context.Background(), "donor", "stranger", participants.CategoryGrocery, ledger.NewAmount(400))
	assert.ErrorIs(t, err, ErrRecipientNotValid)

	// Nothing moved.
	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(1000), tx.FreeBalance("donor"))
		assert.Zero(t, tx.FreeBalance(service.EscrowAccount()).Sign())
		return nil
	})
}

func TestDonateKeepsDonorAlive(t *testing.T) {
	service, registry, store := newTestEngine(t)
	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	fund(t, store, "donor", 10)

	err := service.Donate(context.Background(), "donor", "ngo1", participants.CategoryClothing, ledger.NewAmount(10))
	assert.ErrorIs(t, err, ledger.ErrBalanceBelowMinimum)

	// The rejected escrow transfer leaves no trace.
	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(10), tx.FreeBalance("donor"))
		return nil
	})
	assert.Zero(t, tokenBalance(store, participants.CategoryClothing, "ngo1"))
}

func TestDonateInvalidCategory(t *testing.T) {
	service, _, _ := newTestEngine(t)
	err := service.Donate(context.Background(), "donor", "ngo1", participants.Category(9), ledger.NewAmount(1))
	assert.Error(t, err)
}

func TestClaimToken(t *testing.T) {
	service, registry, store := newTestEngine(t)
	ctx := context.Background()

	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})
	fund(t, store, "donor", 1000)
	require.NoError(t, service.Donate(ctx, "donor", "ngo1", participants.CategoryGrocery, ledger.NewAmount(400)))

	// Hand the minted tokens to the seller, then claim them all.
	require.NoError(t, store.Update(func(tx *ledger.Tx) error {
		return service.TransferToken(tx, "ngo1", "seller1", participants.CategoryGrocery, ledger.NewAmount(399))
	}))
	require.NoError(t, service.ClaimToken(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(399)))

	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(399), tx.FreeBalance("seller1"))
		assert.Equal(t, ledger.NewAmount(1), tx.FreeBalance(service.EscrowAccount()))
		assert.Equal(t, ledger.NewAmount(1), tx.TokenSupply(participants.CategoryGrocery.AssetID()))
		return nil
	})
	assert.Zero(t, tokenBalance(store, participants.CategoryGrocery, "seller1"))
}

func TestClaimTokenByNonSeller(t *testing.T) {
	service, _, _ := newTestEngine(t)
	err := service.ClaimToken(context.Background(), "stranger", participants.CategoryGrocery, ledger.NewAmount(10))
	assert.ErrorIs(t, err, ErrCallerNotValid)
}

func TestClaimTokenInsufficientTokens(t *testing.T) {
	service, registry, _ := newTestEngine(t)
	registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})

	err := service.ClaimToken(context.Background(), "seller1", participants.CategoryGrocery, ledger.NewAmount(10))
	assert.ErrorIs(t, err, ledger.ErrInsufficientTokenBalance)
}

func TestTransferTokenEligibility(t *testing.T) {
	service, registry, store := newTestEngine(t)
	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})

	err := store.Update(func(tx *ledger.Tx) error {
		return service.TransferToken(tx, "stranger", "seller1", participants.CategoryGrocery, ledger.NewAmount(10))
	})
	assert.ErrorIs(t, err, ErrRecipientNotValid)

	err = store.Update(func(tx *ledger.Tx) error {
		return service.TransferToken(tx, "ngo1", "stranger", participants.CategoryGrocery, ledger.NewAmount(10))
	})
	assert.ErrorIs(t, err, ErrCallerNotValid)
}

func TestTransferTokenKeepsSourceAlive(t *testing.T) {
	service, registry, store := newTestEngine(t)
	ctx := context.Background()

	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})
	fund(t, store, "donor", 1000)
	require.NoError(t, service.Donate(ctx, "donor", "ngo1", participants.CategoryGrocery, ledger.NewAmount(100)))

	// Draining the source below the asset's minimum balance is rejected.
	err := store.Update(func(tx *ledger.Tx) error {
		return service.TransferToken(tx, "ngo1", "seller1", participants.CategoryGrocery, ledger.NewAmount(100))
	})
	assert.ErrorIs(t, err, ledger.ErrTokenBalanceBelowMinimum)
}

func TestDonateClaimRoundTrip(t *testing.T) {
	service, registry, store := newTestEngine(t)
	ctx := context.Background()

	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryStationery})
	fund(t, store, "donor", 1000)

	escrowBefore := service.EscrowBalance(ctx)

	require.NoError(t, service.Donate(ctx, "donor", "ngo1", participants.CategoryStationery, ledger.NewAmount(250)))
	require.NoError(t, store.Update(func(tx *ledger.Tx) error {
		return tx.TransferToken(participants.CategoryStationery.AssetID(), "ngo1", "seller1", ledger.NewAmount(250), false)
	}))
	require.NoError(t, service.ClaimToken(ctx, "seller1", participants.CategoryStationery, ledger.NewAmount(250)))

	// Net escrow movement is zero, the seller pockets the currency, and the
	// seller's token balance is back where it started.
	assert.Zero(t, escrowBefore.Cmp(service.EscrowBalance(ctx)))
	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(250), tx.FreeBalance("seller1"))
		return nil
	})
	assert.Zero(t, tokenBalance(store, participants.CategoryStationery, "seller1"))
}

func TestReconciler(t *testing.T) {
	service, registry, store := newTestEngine(t)
	ctx := context.Background()

	registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	fund(t, store, "donor", 1000)
	require.NoError(t, service.Donate(ctx, "donor", "ngo1", participants.CategoryGrocery, ledger.NewAmount(300)))

	reconciler := NewReconciler(service, zap.NewNop())
	assert.NoError(t, reconciler.Check(ctx))

	// Minting without a matching escrow deposit breaks the backing invariant.
	require.NoError(t, store.Update(func(tx *ledger.Tx) error {
		return tx.MintInto(participants.CategoryGrocery.AssetID(), "ngo1", ledger.NewAmount(50))
	}))
	assert.Error(t, reconciler.Check(ctx))
}
