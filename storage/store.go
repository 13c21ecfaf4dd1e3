package storage

import (
	"context"
	"time"

	"github.com/inspace/protocoin/models"
)

// Store is the indexed persistent store behind the ledger: four keyed tables
// (accounts, currency stats, stakes, stake stats) plus the owner registry.
// Implementations must yield stake stats in a stable key order, because the
// distribution pass iterates them.
type Store interface {
	// WithinTx runs fn against a transactional view of the store and commits
	// only if fn returns nil. Every mutating boundary operation runs inside
	// one transaction so a failed precondition leaves no partial state.
	WithinTx(ctx context.Context, fn func(Store) error) error

	GetAccount(ctx context.Context, owner, symbolCode string) (models.Account, bool, error)
	SaveAccount(ctx context.Context, acct models.Account) error
	SetAccountBalance(ctx context.Context, owner string, balance models.Amount) error
	DeleteAccount(ctx context.Context, owner, symbolCode string) error

	GetCurrencyStats(ctx context.Context, symbolCode string) (models.CurrencyStats, bool, error)
	SaveCurrencyStats(ctx context.Context, st models.CurrencyStats) error
	UpdateCurrencyStats(ctx context.Context, st models.CurrencyStats) error

	InsertStake(ctx context.Context, stake models.Stake) error
	StakesByOwner(ctx context.Context, owner, symbolCode string) ([]models.Stake, error)
	DeleteStake(ctx context.Context, id string) error

	GetStakeStat(ctx context.Context, owner, symbolCode string) (models.StakeStat, bool, error)
	ListStakeStats(ctx context.Context, symbolCode string) ([]models.StakeStat, error)
	SaveStakeStat(ctx context.Context, stat models.StakeStat) error
	DeleteStakeStat(ctx context.Context, owner, symbolCode string) error

	RegisterOwner(ctx context.Context, owner string, at time.Time) error
	OwnerExists(ctx context.Context, owner string) (bool, error)
}
