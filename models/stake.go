package models

import "time"

// Stake is a time-locked commitment of balance. It is never mutated after
// creation; staking more creates a second record, and the maintenance cycle
// deletes it once the lock period has elapsed.
type Stake struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Quantity      Amount    `json:"quantity"`
	Start         time.Time `json:"start"`
	DurationIndex int       `json:"duration_index"`
}

// ExpiresAt returns the stake's expiry given its duration tier length.
func (s Stake) ExpiresAt(duration time.Duration) time.Time {
	return s.Start.Add(duration)
}

// StakeStat is the per-staker aggregate over their live stakes for one
// symbol: total amount locked and the weight that determines their share of
// distributions. The maintenance cycle is the sole writer that keeps it equal
// to a recomputation from the live stake set.
type StakeStat struct {
	Owner       string `json:"owner"`
	TotalStake  Amount `json:"total_stake"`
	StakeWeight int64  `json:"stake_weight"`
}
