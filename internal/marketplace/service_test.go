package marketplace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/donation"
	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/identity"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

const price = 1_000_000_000

type fixture struct {
	exchange   *Service
	settlement *donation.Service
	registry   *participants.Service
	store      *ledger.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ledger.NewStore(ledger.NewAmount(1))
	registry := participants.NewService(store, identity.NewRegistrar(), governance.NewCouncil("root", nil), audit.NopRecorder{}, participants.Config{
		NgoStakingAmount:    ledger.NewAmount(100),
		SellerStakingAmount: ledger.NewAmount(100),
	}, zap.NewNop())
	settlement := donation.NewService(store, registry, "dnthdlr", audit.NopRecorder{}, zap.NewNop())
	require.NoError(t, settlement.CreateCategoryAssets(context.Background()))
	exchange := NewService(store, registry, settlement, audit.NopRecorder{}, zap.NewNop())
	return &fixture{exchange: exchange, settlement: settlement, registry: registry, store: store}
}

// fundNgoTokens gives an active NGO a category-token balance by routing a
// donation through the settlement engine.
func (f *fixture) fundNgoTokens(t *testing.T, ngo ledger.AccountID, category participants.Category, amount uint64) {
	t.Helper()
	require.NoError(t, f.store.Update(func(tx *ledger.Tx) error {
		return tx.DepositCreating("donor", ledger.NewAmount(amount+1))
	}))
	require.NoError(t, f.settlement.Donate(context.Background(), "donor", ngo, category, ledger.NewAmount(amount)))
}

func (f *fixture) tokenBalance(category participants.Category, who ledger.AccountID) uint64 {
	var v uint64
	f.store.View(func(tx *ledger.Tx) error {
		v = tx.TokenBalance(category.AssetID(), who).Uint64()
		return nil
	})
	return v
}

func TestListProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})

	id, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	product, ok := f.exchange.Product(ctx, id)
	require.True(t, ok)
	assert.Equal(t, StatusOpenForSell, product.Status)
	assert.Equal(t, ledger.AccountID("seller1"), product.Owner)
	assert.Equal(t, participants.CategoryGrocery, product.Category)
	assert.Equal(t, ledger.NewAmount(price), product.Price)
}

func TestListProductByNonSeller(t *testing.T) {
	f := newFixture(t)
	_, err := f.exchange.ListProduct(context.Background(), "stranger", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	assert.ErrorIs(t, err, ErrSellerNotValid)
}

func TestListIdenticalProductTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})

	_, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	require.NoError(t, err)

	_, err = f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	assert.ErrorIs(t, err, ErrProductAlreadyListed)

	// A differing field yields a fresh id.
	_, err = f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmOther")
	assert.NoError(t, err)
}

func TestBuy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})
	f.registry.AddNgoToActiveList("ngo1", participants.NgoInfo{Categories: []participants.Category{participants.CategoryGrocery}})
	f.fundNgoTokens(t, "ngo1", participants.CategoryGrocery, 2*price)

	id, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	require.NoError(t, err)

	require.NoError(t, f.exchange.Buy(ctx, "ngo1", id))

	product, ok := f.exchange.Product(ctx, id)
	require.True(t, ok)
	assert.Equal(t, StatusSold, product.Status)
	assert.Equal(t, ledger.AccountID("ngo1"), product.Owner)

	assert.EqualValues(t, price, f.tokenBalance(participants.CategoryGrocery, "ngo1"))
	assert.EqualValues(t, price, f.tokenBalance(participants.CategoryGrocery, "seller1"))
}

func TestBuyByNonNgo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})

	id, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	require.NoError(t, err)

	err = f.exchange.Buy(ctx, "stranger", id)
	assert.ErrorIs(t, err, ErrBuyerNotValid)

	product, _ := f.exchange.Product(ctx, id)
	assert.Equal(t, StatusOpenForSell, product.Status)
}

func TestBuyUnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})

	err := f.exchange.Buy(context.Background(), "ngo1", "deadbeef")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestBuySoldProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})
	f.registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	f.registry.AddNgoToActiveList("ngo2", participants.NgoInfo{})
	f.fundNgoTokens(t, "ngo1", participants.CategoryGrocery, 2*price)
	f.fundNgoTokens(t, "ngo2", participants.CategoryGrocery, 2*price)

	id, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	require.NoError(t, err)
	require.NoError(t, f.exchange.Buy(ctx, "ngo1", id))

	err = f.exchange.Buy(ctx, "ngo2", id)
	assert.ErrorIs(t, err, ErrProductAlreadySold)
}

func TestBuyInsufficientTokensLeavesProductUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})
	f.registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	f.fundNgoTokens(t, "ngo1", participants.CategoryGrocery, price/2)

	id, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(price), "QmProduct")
	require.NoError(t, err)

	err = f.exchange.Buy(ctx, "ngo1", id)
	assert.ErrorIs(t, err, ledger.ErrInsufficientTokenBalance)

	// The settlement failure rolled everything back.
	product, ok := f.exchange.Product(ctx, id)
	require.True(t, ok)
	assert.Equal(t, StatusOpenForSell, product.Status)
	assert.Equal(t, ledger.AccountID("seller1"), product.Owner)
	assert.EqualValues(t, price/2, f.tokenBalance(participants.CategoryGrocery, "ngo1"))
	assert.Zero(t, f.tokenBalance(participants.CategoryGrocery, "seller1"))
}

// MockRecorder is a mock implementation of the audit.Recorder interface
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestBuyRecordsCategoryAndAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})
	f.registry.AddNgoToActiveList("ngo1", participants.NgoInfo{})
	f.fundNgoTokens(t, "ngo1", participants.CategoryGrocery, 1000)

	recorder := new(MockRecorder)
	var events []*audit.Event
	recorder.On("Record", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		events = append(events, args.Get(1).(*audit.Event))
	}).Return(nil)
	exchange := NewService(f.store, f.registry, f.settlement, recorder, zap.NewNop())

	id, err := exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, ledger.NewAmount(500), "QmProduct")
	require.NoError(t, err)
	require.NoError(t, exchange.Buy(ctx, "ngo1", id))

	var bought *audit.Event
	for _, event := range events {
		if event.Kind == audit.KindProductBought {
			bought = event
		}
	}
	require.NotNil(t, bought)
	assert.Equal(t, "ngo1", bought.Actor)
	assert.Equal(t, "seller1", bought.Counterparty)
	assert.Equal(t, "grocery", bought.Category)
	assert.Equal(t, "500", bought.Amount)
	assert.Equal(t, string(id), bought.Reference)
	recorder.AssertExpectations(t)
}

func TestListProductPriceIsDetached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registry.AddSellerToActiveList("seller1", participants.SellerInfo{Category: participants.CategoryGrocery})

	callerPrice := ledger.NewAmount(price)
	id, err := f.exchange.ListProduct(ctx, "seller1", participants.CategoryGrocery, callerPrice, "QmProduct")
	require.NoError(t, err)

	// Mutating the caller's value after listing must not reprice the product.
	callerPrice.SetUint64(1)

	product, ok := f.exchange.Product(ctx, id)
	require.True(t, ok)
	assert.Equal(t, ledger.NewAmount(price), product.Price)
}

func TestProductIDDerivation(t *testing.T) {
	a := NewProductInfo(participants.CategoryGrocery, ledger.NewAmount(10), "seller1", "QmA")
	b := NewProductInfo(participants.CategoryGrocery, ledger.NewAmount(10), "seller1", "QmA")
	c := NewProductInfo(participants.CategoryGrocery, ledger.NewAmount(11), "seller1", "QmA")

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())

	// The id is derived from the listing-time record; later mutation does
	// not move the product under a new key.
	sold := a
	sold.MarkSold("ngo1")
	assert.NotEqual(t, a.ID(), sold.ID())
}
