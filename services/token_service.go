package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/inspace/protocoin/config"
	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

const maxMemoLen = 256

// AccountDirectory answers whether an owner identity exists. Account
// existence is an external collaborator concern; the production wiring uses
// the storage owner registry.
type AccountDirectory interface {
	OwnerExists(ctx context.Context, owner string) (bool, error)
}

// TokenService is the accounting and distribution engine: balance mutation,
// issuance and boost emissions, the stake lifecycle and the proportional
// distribution of fees and emissions.
//
// Every ledger-mutating operation takes the mutex and runs inside one store
// transaction, so operations are strictly serialized and either commit
// entirely or leave no trace. The caller supplies "now" for each operation.
type TokenService struct {
	store storage.Store
	dir   AccountDirectory
	cfg   config.Ledger
	log   *slog.Logger

	mu sync.Mutex

	issueProportion decimal.Decimal
	boostProportion decimal.Decimal
	feeRate         decimal.Decimal
	feeToStakers    decimal.Decimal
	boostDivisor    decimal.Decimal
}

// NewTokenService wires the engine over a store and an account directory.
func NewTokenService(store storage.Store, dir AccountDirectory, cfg config.Ledger, log *slog.Logger) *TokenService {
	issueProportion := decimal.NewFromFloat(cfg.IssueProportion)
	return &TokenService{
		store:           store,
		dir:             dir,
		cfg:             cfg,
		log:             log,
		issueProportion: issueProportion,
		boostProportion: decimal.NewFromInt(1).Sub(issueProportion),
		feeRate:         decimal.NewFromFloat(cfg.FeeRate),
		feeToStakers:    decimal.NewFromFloat(cfg.FeeToStakers),
		boostDivisor:    decimal.NewFromFloat(cfg.BoostDivisor),
	}
}

// floorMul truncates a * rate to an integer amount.
func floorMul(a int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(a).Mul(rate).IntPart()
}

// floorShare computes floor(amount * weight / totalWeight) exactly.
func floorShare(amount, weight, totalWeight int64) int64 {
	num := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(weight))
	quo, _ := num.QuoRem(decimal.NewFromInt(totalWeight), 0)
	return quo.IntPart()
}

// GetSupply returns the circulating supply for a symbol.
func (s *TokenService) GetSupply(ctx context.Context, symbolCode string) (models.Amount, error) {
	st, found, err := s.store.GetCurrencyStats(ctx, symbolCode)
	if err != nil {
		return models.Amount{}, err
	}
	if !found {
		return models.Amount{}, errors.Wrapf(models.ErrUnknownSymbol, "symbol %s", symbolCode)
	}
	return st.Supply, nil
}

// GetBalance returns an owner's balance, failing if no record was ever opened.
func (s *TokenService) GetBalance(ctx context.Context, owner, symbolCode string) (models.Amount, error) {
	acct, found, err := s.store.GetAccount(ctx, owner, symbolCode)
	if err != nil {
		return models.Amount{}, err
	}
	if !found {
		return models.Amount{}, errors.Wrapf(models.ErrNoBalanceRecord, "owner %s symbol %s", owner, symbolCode)
	}
	return acct.Balance, nil
}

// StakeOf returns the owner's total live stake; no stake stat means zero.
func (s *TokenService) StakeOf(ctx context.Context, owner, symbolCode string) (models.Amount, error) {
	sym, err := s.symbolOf(ctx, s.store, symbolCode)
	if err != nil {
		return models.Amount{}, err
	}
	return s.stakeOfTx(ctx, s.store, owner, sym)
}

// StakeWeightOf returns the owner's aggregate stake weight; absence means zero.
func (s *TokenService) StakeWeightOf(ctx context.Context, owner, symbolCode string) (int64, error) {
	if _, err := s.symbolOf(ctx, s.store, symbolCode); err != nil {
		return 0, err
	}
	stat, found, err := s.store.GetStakeStat(ctx, owner, symbolCode)
	if err != nil || !found {
		return 0, err
	}
	return stat.StakeWeight, nil
}

// UnstakedBalance returns balance minus total stake, the portion of an
// owner's funds that transfers and new stakes may draw on.
func (s *TokenService) UnstakedBalance(ctx context.Context, owner, symbolCode string) (models.Amount, error) {
	balance, err := s.GetBalance(ctx, owner, symbolCode)
	if err != nil {
		return models.Amount{}, err
	}
	stake, err := s.stakeOfTx(ctx, s.store, owner, balance.Symbol)
	if err != nil {
		return models.Amount{}, err
	}
	return balance.Sub(stake)
}

// RegisterOwner records an owner identity in the directory registry.
func (s *TokenService) RegisterOwner(ctx context.Context, owner string, now time.Time) error {
	if owner == "" {
		return errors.Wrap(models.ErrUnknownAccount, "owner name must not be empty")
	}
	return s.store.RegisterOwner(ctx, owner, now)
}

// symbolOf resolves a code to its full symbol via the currency stats record.
func (s *TokenService) symbolOf(ctx context.Context, tx storage.Store, symbolCode string) (models.Symbol, error) {
	st, found, err := tx.GetCurrencyStats(ctx, symbolCode)
	if err != nil {
		return models.Symbol{}, err
	}
	if !found {
		return models.Symbol{}, errors.Wrapf(models.ErrUnknownSymbol, "symbol %s", symbolCode)
	}
	return st.Supply.Symbol, nil
}

// stakeOfTx reads the stake aggregate inside a transaction view.
func (s *TokenService) stakeOfTx(ctx context.Context, tx storage.Store, owner string, sym models.Symbol) (models.Amount, error) {
	stat, found, err := tx.GetStakeStat(ctx, owner, sym.Code)
	if err != nil {
		return models.Amount{}, err
	}
	if !found {
		return models.NewAmount(0, sym), nil
	}
	return stat.TotalStake, nil
}
