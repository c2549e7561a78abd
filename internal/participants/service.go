package participants

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/identity"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Registry errors. Each aborts the operation with full rollback.
var (
	ErrIdentityNotFound         = errors.New("participants: applicant holds no verified identity")
	ErrAlreadyPartOfWaitingList = errors.New("participants: already part of waiting list")
	ErrAlreadyPartOfActiveList  = errors.New("participants: already part of active list")
	ErrNotPartOfWaitingList     = errors.New("participants: not part of waiting list")
)

// Config carries the registry's staking parameters.
type Config struct {
	NgoStakingAmount       *big.Int
	SellerStakingAmount    *big.Int
	IdentityJudgementLevel int
}

// Service implements the two-phase participant registry: applicants stake
// collateral into a waiting list; governance promotes them to the active
// list. Stakes are never released here.
type Service struct {
	store    *ledger.Store
	oracle   identity.Oracle
	auth     governance.Authorizer
	recorder audit.Recorder
	logger   *zap.Logger
	cfg      Config

	ngoWaiting    *ledger.Bucket[ledger.AccountID, NgoInfo]
	ngoActive     *ledger.Bucket[ledger.AccountID, NgoInfo]
	sellerWaiting *ledger.Bucket[ledger.AccountID, SellerInfo]
	sellerActive  *ledger.Bucket[ledger.AccountID, SellerInfo]
}

// NewService creates the registry service.
func NewService(store *ledger.Store, oracle identity.Oracle, auth governance.Authorizer, recorder audit.Recorder, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		store:         store,
		oracle:        oracle,
		auth:          auth,
		recorder:      recorder,
		logger:        logger,
		cfg:           cfg,
		ngoWaiting:    ledger.NewBucket[ledger.AccountID, NgoInfo]("ngo_waiting"),
		ngoActive:     ledger.NewBucket[ledger.AccountID, NgoInfo]("ngo_active"),
		sellerWaiting: ledger.NewBucket[ledger.AccountID, SellerInfo]("seller_waiting"),
		sellerActive:  ledger.NewBucket[ledger.AccountID, SellerInfo]("seller_active"),
	}
}

// ApplyAsNgo registers an NGO application: the applicant must hold a
// verified identity and stakes the configured NGO collateral.
func (s *Service) ApplyAsNgo(ctx context.Context, applicant ledger.AccountID, info NgoInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("invalid ngo info: %w", err)
	}
	if !s.oracle.HasIdentity(applicant, s.cfg.IdentityJudgementLevel) {
		return ErrIdentityNotFound
	}
	err := s.store.Update(func(tx *ledger.Tx) error {
		if s.ngoWaiting.Contains(applicant) {
			return ErrAlreadyPartOfWaitingList
		}
		if s.ngoActive.Contains(applicant) {
			return ErrAlreadyPartOfActiveList
		}
		if err := tx.Reserve(applicant, s.cfg.NgoStakingAmount); err != nil {
			return fmt.Errorf("reserving ngo stake: %w", err)
		}
		ledger.SetEntry(tx, s.ngoWaiting, applicant, info)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("ngo application accepted", zap.String("applicant", string(applicant)))
	s.record(ctx, audit.NewEvent(audit.KindNgoApplied, string(applicant)))
	return nil
}

// ApproveNgo promotes an NGO application from waiting to active. Only a
// governance origin may call it.
func (s *Service) ApproveNgo(ctx context.Context, origin governance.Origin, applicant ledger.AccountID) error {
	if err := s.auth.Authorize(origin); err != nil {
		return err
	}
	err := s.store.Update(func(tx *ledger.Tx) error {
		info, ok := s.ngoWaiting.Get(applicant)
		if !ok {
			return ErrNotPartOfWaitingList
		}
		if s.ngoActive.Contains(applicant) {
			return ErrAlreadyPartOfActiveList
		}
		ledger.RemoveEntry(tx, s.ngoWaiting, applicant)
		ledger.SetEntry(tx, s.ngoActive, applicant, info)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("ngo approved", zap.String("applicant", string(applicant)))
	event := audit.NewEvent(audit.KindNgoApproved, string(origin.Caller))
	event.Counterparty = string(applicant)
	s.record(ctx, event)
	return nil
}

// ApplyAsSeller registers a seller application, staking the configured
// seller collateral.
func (s *Service) ApplyAsSeller(ctx context.Context, applicant ledger.AccountID, info SellerInfo) error {
	if err := info.Validate(); err != nil {
		return fmt.Errorf("invalid seller info: %w", err)
	}
	if !s.oracle.HasIdentity(applicant, s.cfg.IdentityJudgementLevel) {
		return ErrIdentityNotFound
	}
	err := s.store.Update(func(tx *ledger.Tx) error {
		if s.sellerWaiting.Contains(applicant) {
			return ErrAlreadyPartOfWaitingList
		}
		if s.sellerActive.Contains(applicant) {
			return ErrAlreadyPartOfActiveList
		}
		if err := tx.Reserve(applicant, s.cfg.SellerStakingAmount); err != nil {
			return fmt.Errorf("reserving seller stake: %w", err)
		}
		ledger.SetEntry(tx, s.sellerWaiting, applicant, info)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("seller application accepted", zap.String("applicant", string(applicant)))
	s.record(ctx, audit.NewEvent(audit.KindSellerApplied, string(applicant)))
	return nil
}

// ApproveSeller promotes a seller application from waiting to active. Only
// a governance origin may call it.
func (s *Service) ApproveSeller(ctx context.Context, origin governance.Origin, applicant ledger.AccountID) error {
	if err := s.auth.Authorize(origin); err != nil {
		return err
	}
	err := s.store.Update(func(tx *ledger.Tx) error {
		info, ok := s.sellerWaiting.Get(applicant)
		if !ok {
			return ErrNotPartOfWaitingList
		}
		if s.sellerActive.Contains(applicant) {
			return ErrAlreadyPartOfActiveList
		}
		ledger.RemoveEntry(tx, s.sellerWaiting, applicant)
		ledger.SetEntry(tx, s.sellerActive, applicant, info)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("seller approved", zap.String("applicant", string(applicant)))
	event := audit.NewEvent(audit.KindSellerApproved, string(origin.Caller))
	event.Counterparty = string(applicant)
	s.record(ctx, event)
	return nil
}

// IsActiveNgo reports membership in the active NGO list. The tx parameter
// scopes the read to an in-flight unit of work; settlement and exchange
// call it while composing their own transitions.
func (s *Service) IsActiveNgo(tx *ledger.Tx, account ledger.AccountID) bool {
	return s.ngoActive.Contains(account)
}

// IsActiveSeller reports membership in the active seller list.
func (s *Service) IsActiveSeller(tx *ledger.Tx, account ledger.AccountID) bool {
	return s.sellerActive.Contains(account)
}

// ActiveNgoInfo returns the stored info for an active NGO.
func (s *Service) ActiveNgoInfo(tx *ledger.Tx, account ledger.AccountID) (NgoInfo, bool) {
	return s.ngoActive.Get(account)
}

// ActiveSellerInfo returns the stored info for an active seller.
func (s *Service) ActiveSellerInfo(tx *ledger.Tx, account ledger.AccountID) (SellerInfo, bool) {
	return s.sellerActive.Get(account)
}

// Membership answers the public status query for one account.
func (s *Service) Membership(ctx context.Context, account ledger.AccountID) Membership {
	var m Membership
	s.store.View(func(tx *ledger.Tx) error {
		m = Membership{
			NgoWaiting:    s.ngoWaiting.Contains(account),
			NgoActive:     s.ngoActive.Contains(account),
			SellerWaiting: s.sellerWaiting.Contains(account),
			SellerActive:  s.sellerActive.Contains(account),
		}
		return nil
	})
	return m
}

// AddNgoToActiveList inserts directly into the active NGO list, bypassing
// application and staking. Trusted bootstrap callers only.
func (s *Service) AddNgoToActiveList(account ledger.AccountID, info NgoInfo) {
	s.store.Update(func(tx *ledger.Tx) error {
		ledger.SetEntry(tx, s.ngoActive, account, info)
		return nil
	})
}

// AddSellerToActiveList inserts directly into the active seller list,
// bypassing application and staking. Trusted bootstrap callers only.
func (s *Service) AddSellerToActiveList(account ledger.AccountID, info SellerInfo) {
	s.store.Update(func(tx *ledger.Tx) error {
		ledger.SetEntry(tx, s.sellerActive, account, info)
		return nil
	})
}

func (s *Service) record(ctx context.Context, event *audit.Event) {
	if err := s.recorder.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record audit event", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
