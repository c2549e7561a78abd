package ledger

import "errors"

// Backend errors propagated verbatim to callers. Any of these aborts the
// enclosing unit of work with full rollback.
var (
	// ErrInvalidAmount rejects nil, zero or negative amounts.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInsufficientBalance signals that the free balance cannot cover a
	// transfer, reserve or withdrawal.
	ErrInsufficientBalance = errors.New("ledger: insufficient free balance")
	// ErrBalanceBelowMinimum signals that a keep-alive operation would leave
	// the source below the existential deposit.
	ErrBalanceBelowMinimum = errors.New("ledger: balance would drop below existential deposit")
	// ErrUnknownAccount signals an operation on an account that holds no balance.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrAssetAlreadyExists rejects creating an asset twice.
	ErrAssetAlreadyExists = errors.New("ledger: asset already exists")
	// ErrUnknownAsset signals a token operation against an asset that was
	// never created.
	ErrUnknownAsset = errors.New("ledger: unknown asset")
	// ErrInsufficientTokenBalance signals that a token balance cannot cover
	// a burn or transfer.
	ErrInsufficientTokenBalance = errors.New("ledger: insufficient token balance")
	// ErrTokenBalanceBelowMinimum signals that a keep-alive token transfer
	// would leave the source below the asset's minimum balance.
	ErrTokenBalanceBelowMinimum = errors.New("ledger: token balance would drop below asset minimum")
)
