package donation

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

// Settlement errors.
var (
	// ErrRecipientNotValid rejects a counterparty that is not an active NGO.
	ErrRecipientNotValid = errors.New("donation: recipient is not an active ngo")
	// ErrCallerNotValid rejects a caller that is not an active seller.
	ErrCallerNotValid = errors.New("donation: caller is not an active seller")
)

// Registry is the eligibility capability the settlement engine consumes
// from the participant registry.
type Registry interface {
	IsActiveNgo(tx *ledger.Tx, account ledger.AccountID) bool
	IsActiveSeller(tx *ledger.Tx, account ledger.AccountID) bool
}

// Service is the token settlement engine: donation intake (currency in
// escrow, category token out), token claims (token burned, currency out)
// and the direct token transfer used by escrow-free sales.
type Service struct {
	store    *ledger.Store
	registry Registry
	escrow   ledger.AccountID
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewService creates the settlement engine. programID seeds the derived
// escrow account that holds donated currency pending claims.
func NewService(store *ledger.Store, registry Registry, programID string, recorder audit.Recorder, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		registry: registry,
		escrow:   ledger.DeriveProgramAccount(programID),
		recorder: recorder,
		logger:   logger,
	}
}

// EscrowAccount returns the program-owned escrow account id.
func (s *Service) EscrowAccount() ledger.AccountID {
	return s.escrow
}

// CreateCategoryAssets creates the token asset behind every category, each
// with a minimum balance of one unit. Called once at bootstrap.
func (s *Service) CreateCategoryAssets(ctx context.Context) error {
	return s.store.Update(func(tx *ledger.Tx) error {
		one := big.NewInt(1)
		for _, category := range participants.Categories() {
			if tx.AssetExists(category.AssetID()) {
				continue
			}
			if err := tx.CreateAsset(category.AssetID(), s.escrow, one); err != nil {
				return fmt.Errorf("creating %s asset: %w", category, err)
			}
		}
		return nil
	})
}

// Donate moves amount of native currency from donor into escrow and mints
// the same amount of the category token to recipient. Both steps commit or
// neither does.
func (s *Service) Donate(ctx context.Context, donor, recipient ledger.AccountID, category participants.Category, amount *big.Int) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %d", uint8(category))
	}
	err := s.store.Update(func(tx *ledger.Tx) error {
		if !s.registry.IsActiveNgo(tx, recipient) {
			return ErrRecipientNotValid
		}
		if err := tx.Transfer(donor, s.escrow, amount, true); err != nil {
			return fmt.Errorf("escrowing donation: %w", err)
		}
		if err := tx.MintInto(category.AssetID(), recipient, amount); err != nil {
			return fmt.Errorf("minting %s tokens: %w", category, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("donation settled",
		zap.String("donor", string(donor)),
		zap.String("recipient", string(recipient)),
		zap.Stringer("category", category),
		zap.String("amount", amount.String()),
	)
	event := audit.NewEvent(audit.KindTokenDonated, string(donor))
	event.Counterparty = string(recipient)
	event.Category = category.String()
	event.Amount = amount.String()
	s.record(ctx, event)
	return nil
}

// ClaimToken burns amount of the category token from seller and pays out
// the same amount of native currency from escrow. An escrow shortfall here
// means the books are broken; the error carries that context.
func (s *Service) ClaimToken(ctx context.Context, seller ledger.AccountID, category participants.Category, amount *big.Int) error {
	if !category.Valid() {
		return fmt.Errorf("unknown category %d", uint8(category))
	}
	err := s.store.Update(func(tx *ledger.Tx) error {
		if !s.registry.IsActiveSeller(tx, seller) {
			return ErrCallerNotValid
		}
		if err := tx.BurnFrom(category.AssetID(), seller, amount); err != nil {
			return fmt.Errorf("burning %s tokens: %w", category, err)
		}
		if err := tx.Transfer(s.escrow, seller, amount, false); err != nil {
			return fmt.Errorf("escrow payout failed, accounting fault: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("tokens claimed",
		zap.String("seller", string(seller)),
		zap.Stringer("category", category),
		zap.String("amount", amount.String()),
	)
	event := audit.NewEvent(audit.KindTokensClaimed, string(seller))
	event.Category = category.String()
	event.Amount = amount.String()
	s.record(ctx, event)
	return nil
}

// TransferToken moves category tokens from an active NGO to an active
// seller with the keep-alive policy. It is tx-scoped so the marketplace can
// couple it with its own product mutation in one unit of work.
func (s *Service) TransferToken(tx *ledger.Tx, source, recipient ledger.AccountID, category participants.Category, amount *big.Int) error {
	if !s.registry.IsActiveNgo(tx, source) {
		return ErrRecipientNotValid
	}
	if !s.registry.IsActiveSeller(tx, recipient) {
		return ErrCallerNotValid
	}
	if err := tx.TransferToken(category.AssetID(), source, recipient, amount, true); err != nil {
		return fmt.Errorf("transferring %s tokens: %w", category, err)
	}
	return nil
}

// EscrowBalance returns the escrow account's free native balance.
func (s *Service) EscrowBalance(ctx context.Context) *big.Int {
	var balance *big.Int
	s.store.View(func(tx *ledger.Tx) error {
		balance = tx.FreeBalance(s.escrow)
		return nil
	})
	return balance
}

func (s *Service) record(ctx context.Context, event *audit.Event) {
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
