package identity

import (
	"sync"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Oracle answers identity-verification queries for onboarding. The actual
// verification pipeline lives outside this system; the registry only
// consumes a boolean judgement.
type Oracle interface {
	HasIdentity(account ledger.AccountID, minJudgementLevel int) bool
}

// Registrar is the in-process oracle implementation: a registry of
// judgement levels populated by an operator or a bootstrap routine.
type Registrar struct {
	mu     sync.RWMutex
	levels map[ledger.AccountID]int
}

// NewRegistrar creates an empty registrar.
func NewRegistrar() *Registrar {
	return &Registrar{levels: make(map[ledger.AccountID]int)}
}

// SetJudgement records the judgement level awarded to account.
func (r *Registrar) SetJudgement(account ledger.AccountID, level int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[account] = level
}

// HasIdentity reports whether account holds a judgement at or above
// minJudgementLevel.
func (r *Registrar) HasIdentity(account ledger.AccountID, minJudgementLevel int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	level, ok := r.levels[account]
	return ok && level >= minJudgementLevel
}
