package participants

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
)

const stake = 1_000_000_000_000

func newTestService(t *testing.T) (*Service, *ledger.Store, *identity.Registrar) {
	t.Helper()
	store := ledger.NewStore(ledger.NewAmount(1))
	registrar := identity.NewRegistrar()
	council := governance.NewCouncil("root", nil)
	service := NewService(store, registrar, council, audit.NopRecorder{}, Config{
		NgoStakingAmount:       ledger.NewAmount(stake),
		SellerStakingAmount:    ledger.NewAmount(stake),
		IdentityJudgementLevel: 3,
	}, zap.NewNop())
	return service, store, registrar
}

func fund(t *testing.T, store *ledger.Store, who ledger.AccountID, amount uint64) {
	t.Helper()
	require.NoError(t, store.Update(func(tx *ledger.Tx) error {
		return tx.DepositCreating(who, ledger.NewAmount(amount))
	}))
}

func TestApplyAsNgo(t *testing.T) {
	service, store, registrar := newTestService(t)
	ctx := context.Background()

	registrar.SetJudgement("ngo1", 3)
	fund(t, store, "ngo1", 2*stake)

	info := NgoInfo{Categories: []Category{CategoryGrocery}, ContentID: "Qm123"}
	require.NoError(t, service.ApplyAsNgo(ctx, "ngo1", info))

	m := service.Membership(ctx, "ngo1")
	assert.True(t, m.NgoWaiting)
	assert.False(t, m.NgoActive)

	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(stake), tx.ReservedBalance("ngo1"))
		assert.Equal(t, ledger.NewAmount(stake), tx.FreeBalance("ngo1"))
		return nil
	})
}

func TestApplyAsNgoWithoutIdentity(t *testing.T) {
	service, store, registrar := newTestService(t)
	fund(t, store, "ngo1", 2*stake)

	err := service.ApplyAsNgo(context.Background(), "ngo1", NgoInfo{})
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	// An insufficient judgement level is as good as none.
	registrar.SetJudgement("ngo1", 2)
	err = service.ApplyAsNgo(context.Background(), "ngo1", NgoInfo{})
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestApplyAsNgoInsufficientStake(t *testing.T) {
	service, store, registrar := newTestService(t)
	ctx := context.Background()

	registrar.SetJudgement("ngo1", 3)
	fund(t, store, "ngo1", stake/2)

	err := service.ApplyAsNgo(ctx, "ngo1", NgoInfo{})
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// Nothing was reserved and the waiting list is untouched.
	m := service.Membership(ctx, "ngo1")
	assert.False(t, m.NgoWaiting)
	store.View(func(tx *ledger.Tx) error {
		assert.Zero(t, tx.ReservedBalance("ngo1").Sign())
		return nil
	})
}

func TestApplyAsNgoTwice(t *testing.T) {
	service, store, registrar := newTestService(t)
	ctx := context.Background()

	registrar.SetJudgement("ngo1", 3)
	fund(t, store, "ngo1", 4*stake)

	require.NoError(t, service.ApplyAsNgo(ctx, "ngo1", NgoInfo{}))
	err := service.ApplyAsNgo(ctx, "ngo1", NgoInfo{})
	assert.ErrorIs(t, err, ErrAlreadyPartOfWaitingList)

	// Only one stake is held.
	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(stake), tx.ReservedBalance("ngo1"))
		return nil
	})
}

func TestApproveNgo(t *testing.T) {
	service, store, registrar := newTestService(t)
	ctx := context.Background()

	registrar.SetJudgement("ngo1", 3)
	fund(t, store, "ngo1", 2*stake)
	require.NoError(t, service.ApplyAsNgo(ctx, "ngo1", NgoInfo{Categories: []Category{CategoryClothing}}))

	require.NoError(t, service.ApproveNgo(ctx, governance.Origin{Caller: "root"}, "ngo1"))

	m := service.Membership(ctx, "ngo1")
	assert.False(t, m.NgoWaiting)
	assert.True(t, m.NgoActive)

	// The stake stays reserved after approval.
	store.View(func(tx *ledger.Tx) error {
		assert.Equal(t, ledger.NewAmount(stake), tx.ReservedBalance("ngo1"))
		return nil
	})

	// Re-application as an active member is rejected.
	err := service.ApplyAsNgo(ctx, "ngo1", NgoInfo{})
	assert.ErrorIs(t, err, ErrAlreadyPartOfActiveList)
}

func TestApproveNgoRequiresGovernance(t *testing.T) {
	service, store, registrar := newTestService(t)
	ctx := context.Background()

	registrar.SetJudgement("ngo1", 3)
	fund(t, store, "ngo1", 2*stake)
	require.NoError(t, service.ApplyAsNgo(ctx, "ngo1", NgoInfo{}))

	err := service.ApproveNgo(ctx, governance.Origin{Caller: "mallory"}, "ngo1")
	assert.ErrorIs(t, err, governance.ErrNotAuthorized)

	m := service.Membership(ctx, "ngo1")
	assert.True(t, m.NgoWaiting)
	assert.False(t, m.NgoActive)
}

func TestApproveNgoNotWaiting(t *testing.T) {
	service, _, _ := newTestService(t)
	err := service.ApproveNgo(context.Background(), governance.Origin{Root: true}, "nobody")
	assert.ErrorIs(t, err, ErrNotPartOfWaitingList)
}

func TestSellerLifecycle(t *testing.T) {
	service, store, registrar := newTestService(t)
	ctx := context.Background()

	registrar.SetJudgement("seller1", 3)
	fund(t, store, "seller1", 2*stake)

	info := SellerInfo{Category: CategoryPharmaceutical, ContentID: "QmAbc"}
	require.NoError(t, service.ApplyAsSeller(ctx, "seller1", info))

	err := service.ApplyAsSeller(ctx, "seller1", info)
	assert.ErrorIs(t, err, ErrAlreadyPartOfWaitingList)

	require.NoError(t, service.ApproveSeller(ctx, governance.Origin{Root: true}, "seller1"))

	m := service.Membership(ctx, "seller1")
	assert.True(t, m.SellerActive)
	assert.False(t, m.SellerWaiting)

	store.View(func(tx *ledger.Tx) error {
		stored, ok := service.ActiveSellerInfo(tx, "seller1")
		require.True(t, ok)
		assert.Equal(t, info, stored)
		return nil
	})
}

func TestApplyAsSellerInvalidCategory(t *testing.T) {
	service, store, registrar := newTestService(t)
	registrar.SetJudgement("seller1", 3)
	fund(t, store, "seller1", 2*stake)

	err := service.ApplyAsSeller(context.Background(), "seller1", SellerInfo{Category: Category(9)})
	assert.Error(t, err)
}

func TestNgoInfoValidate(t *testing.T) {
	tooMany := NgoInfo{Categories: make([]Category, MaxNgoCategories+1)}
	assert.Error(t, tooMany.Validate())

	assert.Error(t, NgoInfo{Categories: []Category{Category(200)}}.Validate())
	assert.NoError(t, NgoInfo{Categories: []Category{CategoryGrocery, CategoryGrocery}}.Validate())
	assert.NoError(t, NgoInfo{}.Validate())
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	_, err := ParseCategory("electronics")
	assert.Error(t, err)
}
