package ledger

import (
	"math/big"
	"sync"
)

// Store holds the chain-backed state: native-currency accounts and token
// assets. Registry and product maps attach to the same store as Buckets so
// that one unit of work can span all of them.
//
// The host executes every operation as a single serially ordered state
// transition. A store-level mutex preserves that single-writer discipline
// for embedders that drive the store from multiple goroutines.
type Store struct {
	mu sync.Mutex

	existentialDeposit *big.Int

	accounts map[AccountID]*account
	assets   map[AssetID]*asset
}

type account struct {
	free     *big.Int
	reserved *big.Int
}

type asset struct {
	owner      AccountID
	minBalance *big.Int
	supply     *big.Int
	balances   map[AccountID]*big.Int
}

// NewStore creates an empty store. existentialDeposit is the minimum free
// balance a keep-alive currency operation must leave behind.
func NewStore(existentialDeposit *big.Int) *Store {
	return &Store{
		existentialDeposit: clone(existentialDeposit),
		accounts:           make(map[AccountID]*account),
		assets:             make(map[AssetID]*asset),
	}
}

// Tx is a unit of work over the store. Mutations performed through a Tx
// record undo entries in a journal; when the Update callback returns an
// error the journal unwinds in reverse and no partial state survives.
type Tx struct {
	store *Store
	undo  []func()
}

// Update runs fn as an atomic state transition. Either every mutation fn
// performs commits, or none do.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{store: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View runs fn with read access under the store lock. fn must not mutate.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{store: s})
}

func (tx *Tx) note(undo func()) {
	tx.undo = append(tx.undo, undo)
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// setBig journals the previous value of dst before overwriting it.
func (tx *Tx) setBig(dst, value *big.Int) {
	prev := new(big.Int).Set(dst)
	tx.note(func() { dst.Set(prev) })
	dst.Set(value)
}
