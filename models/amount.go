package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// Amount is a signed 64-bit fixed-point quantity tagged with its Symbol.
// Arithmetic between two Amounts requires identical symbols.
type Amount struct {
	Amount int64  `json:"amount"`
	Symbol Symbol `json:"symbol"`
}

// NewAmount builds an Amount for the given symbol.
func NewAmount(amount int64, sym Symbol) Amount {
	return Amount{Amount: amount, Symbol: sym}
}

// Add returns a + b, failing with ErrPrecisionMismatch on a symbol mismatch.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.Symbol.Equal(b.Symbol) {
		return Amount{}, errors.Wrapf(ErrPrecisionMismatch, "cannot add %s to %s", b.Symbol, a.Symbol)
	}
	return Amount{Amount: a.Amount + b.Amount, Symbol: a.Symbol}, nil
}

// Sub returns a - b, failing with ErrPrecisionMismatch on a symbol mismatch.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !a.Symbol.Equal(b.Symbol) {
		return Amount{}, errors.Wrapf(ErrPrecisionMismatch, "cannot subtract %s from %s", b.Symbol, a.Symbol)
	}
	return Amount{Amount: a.Amount - b.Amount, Symbol: a.Symbol}, nil
}

// IsPositive reports whether the quantity is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Amount > 0
}

func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Amount, a.Symbol.Code)
}
