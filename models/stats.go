package models

import "time"

// CurrencyStats tracks a symbol's circulating and maximum supply together
// with the boost emission counter. Created is immutable after create;
// Boosts only ever grows.
type CurrencyStats struct {
	Supply    Amount    `json:"supply"`
	MaxSupply Amount    `json:"max_supply"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	Boosts    uint16    `json:"boosts"`
}

// Available returns the headroom left under the supply cap.
func (s CurrencyStats) Available() int64 {
	return s.MaxSupply.Amount - s.Supply.Amount
}
