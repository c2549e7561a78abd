package ledger

import "math/big"

// Token backend: per-asset balances with mint, burn and transfer. Category
// tokens and bridge-derived assets share this backend.

// CreateAsset registers a new token asset. minBalance is the smallest
// balance a keep-alive transfer may leave behind.
func (tx *Tx) CreateAsset(id AssetID, owner AccountID, minBalance *big.Int) error {
	if _, ok := tx.store.assets[id]; ok {
		return ErrAssetAlreadyExists
	}
	tx.store.assets[id] = &asset{
		owner:      owner,
		minBalance: clone(minBalance),
		supply:     new(big.Int),
		balances:   make(map[AccountID]*big.Int),
	}
	tx.note(func() { delete(tx.store.assets, id) })
	return nil
}

// AssetExists reports whether id has been created.
func (tx *Tx) AssetExists(id AssetID) bool {
	_, ok := tx.store.assets[id]
	return ok
}

// TokenBalance returns who's balance of asset id.
func (tx *Tx) TokenBalance(id AssetID, who AccountID) *big.Int {
	if a, ok := tx.store.assets[id]; ok {
		return clone(a.balances[who])
	}
	return new(big.Int)
}

// TokenSupply returns the outstanding supply of asset id.
func (tx *Tx) TokenSupply(id AssetID) *big.Int {
	if a, ok := tx.store.assets[id]; ok {
		return clone(a.supply)
	}
	return new(big.Int)
}

// MintInto mints amount of asset id to who, increasing supply.
func (tx *Tx) MintInto(id AssetID, who AccountID, amount *big.Int) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	a, ok := tx.store.assets[id]
	if !ok {
		return ErrUnknownAsset
	}
	bal := tx.ensureTokenBalance(a, who)
	tx.setBig(bal, new(big.Int).Add(bal, amount))
	tx.setBig(a.supply, new(big.Int).Add(a.supply, amount))
	return nil
}

// BurnFrom burns amount of asset id from who, decreasing supply.
func (tx *Tx) BurnFrom(id AssetID, who AccountID, amount *big.Int) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	a, ok := tx.store.assets[id]
	if !ok {
		return ErrUnknownAsset
	}
	bal, ok := a.balances[who]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientTokenBalance
	}
	tx.setBig(bal, new(big.Int).Sub(bal, amount))
	tx.setBig(a.supply, new(big.Int).Sub(a.supply, amount))
	return nil
}

// TransferToken moves amount of asset id between accounts. With keepAlive
// set the source must retain at least the asset's minimum balance.
func (tx *Tx) TransferToken(id AssetID, from, to AccountID, amount *big.Int, keepAlive bool) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	a, ok := tx.store.assets[id]
	if !ok {
		return ErrUnknownAsset
	}
	src, ok := a.balances[from]
	if !ok || src.Cmp(amount) < 0 {
		return ErrInsufficientTokenBalance
	}
	remaining := new(big.Int).Sub(src, amount)
	if keepAlive && remaining.Cmp(a.minBalance) < 0 {
		return ErrTokenBalanceBelowMinimum
	}
	dst := tx.ensureTokenBalance(a, to)
	tx.setBig(src, remaining)
	tx.setBig(dst, new(big.Int).Add(dst, amount))
	return nil
}

func (tx *Tx) ensureTokenBalance(a *asset, who AccountID) *big.Int {
	if bal, ok := a.balances[who]; ok {
		return bal
	}
	bal := new(big.Int)
	a.balances[who] = bal
	tx.note(func() { delete(a.balances, who) })
	return bal
}
