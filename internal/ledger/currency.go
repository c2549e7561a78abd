package ledger

import "math/big"

// Native-currency backend. Balances split into a free part and a reserved
// part; reservations back participant stakes and are never released by the
// core.

// FreeBalance returns the free native balance of who.
func (tx *Tx) FreeBalance(who AccountID) *big.Int {
	if acct, ok := tx.store.accounts[who]; ok {
		return clone(acct.free)
	}
	return new(big.Int)
}

// ReservedBalance returns the reserved native balance of who.
func (tx *Tx) ReservedBalance(who AccountID) *big.Int {
	if acct, ok := tx.store.accounts[who]; ok {
		return clone(acct.reserved)
	}
	return new(big.Int)
}

// Transfer moves amount of native currency from one account to another.
// With keepAlive set the source must retain at least the existential
// deposit after the transfer.
func (tx *Tx) Transfer(from, to AccountID, amount *big.Int, keepAlive bool) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	src, ok := tx.store.accounts[from]
	if !ok {
		return ErrUnknownAccount
	}
	if src.free.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	remaining := new(big.Int).Sub(src.free, amount)
	if keepAlive && remaining.Cmp(tx.store.existentialDeposit) < 0 {
		return ErrBalanceBelowMinimum
	}
	dst := tx.ensureAccount(to)
	tx.setBig(src.free, remaining)
	tx.setBig(dst.free, new(big.Int).Add(dst.free, amount))
	return nil
}

// Reserve moves amount from who's free balance into the reserved part.
// Reserved funds keep the account alive, so the free balance may drop all
// the way to zero.
func (tx *Tx) Reserve(who AccountID, amount *big.Int) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	acct, ok := tx.store.accounts[who]
	if !ok {
		return ErrUnknownAccount
	}
	if acct.free.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	tx.setBig(acct.free, new(big.Int).Sub(acct.free, amount))
	tx.setBig(acct.reserved, new(big.Int).Add(acct.reserved, amount))
	return nil
}

// DepositCreating credits amount to who, creating the account if it does
// not exist yet.
func (tx *Tx) DepositCreating(who AccountID, amount *big.Int) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	acct := tx.ensureAccount(who)
	tx.setBig(acct.free, new(big.Int).Add(acct.free, amount))
	return nil
}

// Withdraw debits amount from who's free balance.
func (tx *Tx) Withdraw(who AccountID, amount *big.Int, keepAlive bool) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	acct, ok := tx.store.accounts[who]
	if !ok {
		return ErrUnknownAccount
	}
	if acct.free.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	remaining := new(big.Int).Sub(acct.free, amount)
	if keepAlive && remaining.Cmp(tx.store.existentialDeposit) < 0 {
		return ErrBalanceBelowMinimum
	}
	tx.setBig(acct.free, remaining)
	return nil
}

func (tx *Tx) ensureAccount(who AccountID) *account {
	if acct, ok := tx.store.accounts[who]; ok {
		return acct
	}
	acct := &account{free: new(big.Int), reserved: new(big.Int)}
	tx.store.accounts[who] = acct
	tx.note(func() { delete(tx.store.accounts, who) })
	return acct
}
