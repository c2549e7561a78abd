package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

// Exchange errors.
var (
	// ErrSellerNotValid rejects a lister that is not an active seller.
	ErrSellerNotValid = errors.New("marketplace: seller is not an active seller")
	// ErrBuyerNotValid rejects a buyer that is not an active ngo.
	ErrBuyerNotValid = errors.New("marketplace: buyer is not an active ngo")
	// ErrProductNotFound signals an unknown product id.
	ErrProductNotFound = errors.New("marketplace: product not found")
	// ErrProductAlreadyListed rejects a listing whose derived id already exists.
	ErrProductAlreadyListed = errors.New("marketplace: identical product already listed")
	// ErrProductAlreadySold rejects a purchase of a settled product.
	ErrProductAlreadySold = errors.New("marketplace: product already sold")
)

// Registry is the eligibility capability the exchange consumes from the
// participant registry.
type Registry interface {
	IsActiveNgo(tx *ledger.Tx, account ledger.AccountID) bool
	IsActiveSeller(tx *ledger.Tx, account ledger.AccountID) bool
}

// Settlement is the value-transfer capability the exchange consumes from
// the settlement engine. Tx-scoped so a purchase settles and mutates the
// product in one unit of work.
type Settlement interface {
	TransferToken(tx *ledger.Tx, source, recipient ledger.AccountID, category participants.Category, amount *big.Int) error
}

// Service implements the escrow-free marketplace exchange: sellers list
// products, active NGOs buy them with category tokens.
type Service struct {
	store      *ledger.Store
	registry   Registry
	settlement Settlement
	recorder   audit.Recorder
	logger     *zap.Logger

	products *ledger.Bucket[ProductID, ProductInfo]
}

// NewService creates the exchange service.
func NewService(store *ledger.Store, registry Registry, settlement Settlement, recorder audit.Recorder, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		registry:   registry,
		settlement: settlement,
		recorder:   recorder,
		logger:     logger,
		products:   ledger.NewBucket[ProductID, ProductInfo]("products"),
	}
}

// ListProduct inserts a new listing owned by seller and returns its
// content-derived id.
func (s *Service) ListProduct(ctx context.Context, seller ledger.AccountID, category participants.Category, price *big.Int, contentID participants.ContentID) (ProductID, error) {
	if !category.Valid() {
		return "", fmt.Errorf("unknown category %d", uint8(category))
	}
	var id ProductID
	err := s.store.Update(func(tx *ledger.Tx) error {
		if !s.registry.IsActiveSeller(tx, seller) {
			return ErrSellerNotValid
		}
		product := NewProductInfo(category, price, seller, contentID)
		id = product.ID()
		if s.products.Contains(id) {
			return ErrProductAlreadyListed
		}
		ledger.SetEntry(tx, s.products, id, product)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("product listed",
		zap.String("seller", string(seller)),
		zap.Stringer("category", category),
		zap.String("product_id", string(id)),
	)
	event := audit.NewEvent(audit.KindProductListed, string(seller))
	event.Category = category.String()
	event.Amount = price.String()
	event.Reference = string(id)
	s.record(ctx, event)
	return id, nil
}

// Buy settles a purchase: the buyer's category tokens move to the product
// owner through the settlement engine, then ownership and status flip. A
// settlement failure leaves the product untouched.
func (s *Service) Buy(ctx context.Context, buyer ledger.AccountID, id ProductID) error {
	var (
		seller ledger.AccountID
		sold   ProductInfo
	)
	err := s.store.Update(func(tx *ledger.Tx) error {
		if !s.registry.IsActiveNgo(tx, buyer) {
			return ErrBuyerNotValid
		}
		product, ok := s.products.Get(id)
		if !ok {
			return ErrProductNotFound
		}
		if product.Status == StatusSold {
			return ErrProductAlreadySold
		}
		seller = product.Owner
		if err := s.settlement.TransferToken(tx, buyer, product.Owner, product.Category, product.Price); err != nil {
			return fmt.Errorf("settling purchase: %w", err)
		}
		product.MarkSold(buyer)
		ledger.SetEntry(tx, s.products, id, product)
		sold = product
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("product bought",
		zap.String("buyer", string(buyer)),
		zap.String("seller", string(seller)),
		zap.String("product_id", string(id)),
	)
	event := audit.NewEvent(audit.KindProductBought, string(buyer))
	event.Counterparty = string(seller)
	event.Category = sold.Category.String()
	event.Amount = sold.Price.String()
	event.Reference = string(id)
	s.record(ctx, event)
	return nil
}

// Product answers the public product query.
func (s *Service) Product(ctx context.Context, id ProductID) (ProductInfo, bool) {
	var (
		product ProductInfo
		ok      bool
	)
	s.store.View(func(tx *ledger.Tx) error {
		product, ok = s.products.Get(id)
		return nil
	})
	return product, ok
}

func (s *Service) record(ctx context.Context, event *audit.Event) {
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
