package bridge

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Service bridges external chain assets onto the local ledger. Recognized
// native assets settle against the currency backend; everything else mints,
// burns and transfers the mapped local token through the same backend the
// settlement engine uses.
type Service struct {
	store     *ledger.Store
	converter AccountConverter
	auth      governance.Authorizer
	recorder  audit.Recorder
	logger    *zap.Logger

	native  ExternalLocation
	owner   ledger.AccountID
	mapping *ledger.Bucket[ledger.AssetID, ExternalAsset]
}

// NewService creates the bridge. parachainID identifies this chain: an
// asset located exactly at {parents: 1, parachain: parachainID} is the
// native currency.
func NewService(store *ledger.Store, converter AccountConverter, auth governance.Authorizer, parachainID uint32, recorder audit.Recorder, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		converter: converter,
		auth:      auth,
		recorder:  recorder,
		logger:    logger,
		native:    ExternalLocation{Parents: 1, Parachain: parachainID},
		owner:     ledger.DeriveProgramAccount("bridge"),
		mapping:   ledger.NewBucket[ledger.AssetID, ExternalAsset]("bridge_assets"),
	}
}

// IsNativeAsset reports whether the asset is this chain's native currency,
// by exact location match.
func (s *Service) IsNativeAsset(asset ExternalAsset) bool {
	return asset.Kind == KindFungible && asset.Location == s.native
}

// RegisterAsset stores the local mapping for an external asset and creates
// the backing token. Governance only.
func (s *Service) RegisterAsset(ctx context.Context, origin governance.Origin, asset ExternalAsset) (ledger.AssetID, error) {
	if err := s.auth.Authorize(origin); err != nil {
		return ledger.AssetID{}, err
	}
	if asset.Kind != KindFungible {
		return ledger.AssetID{}, ErrNonFungibleAsset
	}
	id := asset.LocalID()
	err := s.store.Update(func(tx *ledger.Tx) error {
		if err := tx.CreateAsset(id, s.owner, big.NewInt(1)); err != nil {
			return fmt.Errorf("creating bridged asset: %w", err)
		}
		ledger.SetEntry(tx, s.mapping, id, asset)
		return nil
	})
	if err != nil {
		return ledger.AssetID{}, err
	}
	s.logger.Info("bridge asset registered",
		zap.Stringer("asset_id", id),
		zap.Uint32("parachain", asset.Location.Parachain),
	)
	event := audit.NewEvent(audit.KindAssetRegistered, string(origin.Caller))
	event.Reference = id.String()
	s.record(ctx, event)
	return id, nil
}

// AssetLocation resolves a local asset id back to its external descriptor.
func (s *Service) AssetLocation(ctx context.Context, id ledger.AssetID) (ExternalAsset, bool) {
	var (
		asset ExternalAsset
		ok    bool
	)
	s.store.View(func(tx *ledger.Tx) error {
		asset, ok = s.mapping.Get(id)
		return nil
	})
	return asset, ok
}

// Deposit credits an inbound asset to the beneficiary: native currency is
// deposited directly, bridged assets mint the mapped local token.
func (s *Service) Deposit(ctx context.Context, value AssetValue, beneficiary ExternalLocation) error {
	who, err := s.converter.AccountFromLocation(beneficiary)
	if err != nil {
		return fmt.Errorf("converting location: %w", err)
	}
	amount, err := value.FungibleAmount()
	if err != nil {
		return err
	}
	err = s.store.Update(func(tx *ledger.Tx) error {
		if s.IsNativeAsset(value.Asset) {
			return tx.DepositCreating(who, amount)
		}
		id := value.Asset.LocalID()
		if !s.mapping.Contains(id) {
			return ErrAssetNotRegistered
		}
		if err := tx.MintInto(id, who, amount); err != nil {
			return fmt.Errorf("minting bridged asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordMovement(ctx, audit.KindBridgeDeposit, who, "", value, amount)
	return nil
}

// Withdraw debits an outbound asset from the source: native currency is
// withdrawn keep-alive, bridged assets burn the mapped local token.
func (s *Service) Withdraw(ctx context.Context, value AssetValue, source ExternalLocation) error {
	who, err := s.converter.AccountFromLocation(source)
	if err != nil {
		return fmt.Errorf("converting location: %w", err)
	}
	amount, err := value.FungibleAmount()
	if err != nil {
		return err
	}
	err = s.store.Update(func(tx *ledger.Tx) error {
		if s.IsNativeAsset(value.Asset) {
			return tx.Withdraw(who, amount, true)
		}
		id := value.Asset.LocalID()
		if !s.mapping.Contains(id) {
			return ErrAssetNotRegistered
		}
		if err := tx.BurnFrom(id, who, amount); err != nil {
			return fmt.Errorf("burning bridged asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordMovement(ctx, audit.KindBridgeWithdraw, who, "", value, amount)
	return nil
}

// TransferAsset moves an asset between two local accounts addressed by
// location, keep-alive in both the native and the token case.
func (s *Service) TransferAsset(ctx context.Context, value AssetValue, from, to ExternalLocation) error {
	source, err := s.converter.AccountFromLocation(from)
	if err != nil {
		return fmt.Errorf("converting location: %w", err)
	}
	dest, err := s.converter.AccountFromLocation(to)
	if err != nil {
		return fmt.Errorf("converting location: %w", err)
	}
	amount, err := value.FungibleAmount()
	if err != nil {
		return err
	}
	err = s.store.Update(func(tx *ledger.Tx) error {
		if s.IsNativeAsset(value.Asset) {
			return tx.Transfer(source, dest, amount, true)
		}
		id := value.Asset.LocalID()
		if !s.mapping.Contains(id) {
			return ErrAssetNotRegistered
		}
		if err := tx.TransferToken(id, source, dest, amount, true); err != nil {
			return fmt.Errorf("transferring bridged asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordMovement(ctx, audit.KindBridgeTransfer, source, dest, value, amount)
	return nil
}

func (s *Service) recordMovement(ctx context.Context, kind audit.EventKind, actor, counterparty ledger.AccountID, value AssetValue, amount *big.Int) {
	s.logger.Info("bridge asset moved",
		zap.String("kind", string(kind)),
		zap.String("account", string(actor)),
		zap.String("amount", amount.String()),
	)
	event := audit.NewEvent(kind, string(actor))
	event.Counterparty = string(counterparty)
	event.Amount = amount.String()
	event.Reference = value.Asset.LocalID().String()
	s.record(ctx, event)
}

func (s *Service) record(ctx context.Context, event *audit.Event) {
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
