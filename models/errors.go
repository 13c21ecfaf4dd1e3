package models

import "github.com/pkg/errors"

// Failure taxonomy for ledger operations. Every failure is a fail-fast
// precondition check: the operation aborts with no partial state change.
var (
	ErrAlreadyExists     = errors.New("token with symbol already exists")
	ErrInvalidAsset      = errors.New("invalid asset")
	ErrUnknownSymbol     = errors.New("token with symbol does not exist")
	ErrUnknownAccount    = errors.New("account does not exist")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrPrecisionMismatch = errors.New("symbol precision mismatch")
	ErrOverdrawn         = errors.New("overdrawn unstaked balance")
	ErrSupplyExceeded    = errors.New("quantity exceeds available supply")
	ErrInvalidIndex      = errors.New("duration index out of bounds")
	ErrNonZeroBalance    = errors.New("cannot close because the balance is not zero")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
	ErrMemoTooLong       = errors.New("memo has more than 256 bytes")
	ErrNoBalanceRecord   = errors.New("no balance record found")
	ErrNotFound          = errors.New("balance record already deleted or never existed")
)
