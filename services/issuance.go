package services

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

// Create registers a new symbol and immediately issues the configured
// proportion of the maximum supply to the reserve account, seeding
// circulation without a separate issuer action. The rest of the cap is the
// boost pool.
func (s *TokenService) Create(ctx context.Context, maxSupply models.Amount, now time.Time) error {
	if !maxSupply.Symbol.Valid() {
		return errors.Wrapf(models.ErrInvalidAsset, "symbol %q", maxSupply.Symbol.Code)
	}
	if !maxSupply.IsPositive() {
		return errors.Wrap(models.ErrInvalidAsset, "max-supply must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		_, exists, err := tx.GetCurrencyStats(ctx, maxSupply.Symbol.Code)
		if err != nil {
			return err
		}
		if exists {
			return errors.Wrapf(models.ErrAlreadyExists, "symbol %s", maxSupply.Symbol.Code)
		}
		st := models.CurrencyStats{
			Supply:    models.NewAmount(0, maxSupply.Symbol),
			MaxSupply: maxSupply,
			Created:   now,
			Updated:   now,
			Boosts:    0,
		}
		if err := tx.SaveCurrencyStats(ctx, st); err != nil {
			return err
		}
		seed := floorMul(maxSupply.Amount, s.issueProportion)
		if err := s.issueTx(ctx, tx, models.NewAmount(seed, maxSupply.Symbol)); err != nil {
			return err
		}
		s.log.Info("token created",
			"symbol", maxSupply.Symbol.String(), "max_supply", maxSupply.Amount, "issued", seed)
		return nil
	})
}

// Issue mints quantity to the reserve account within the supply cap.
func (s *TokenService) Issue(ctx context.Context, quantity models.Amount) error {
	if !quantity.Symbol.Valid() {
		return errors.Wrapf(models.ErrInvalidAsset, "symbol %q", quantity.Symbol.Code)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		return s.issueTx(ctx, tx, quantity)
	})
}

func (s *TokenService) issueTx(ctx context.Context, tx storage.Store, quantity models.Amount) error {
	st, found, err := tx.GetCurrencyStats(ctx, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(models.ErrUnknownSymbol, "create token before issue: %s", quantity.Symbol.Code)
	}
	if !quantity.IsPositive() {
		return errors.Wrap(models.ErrInvalidAmount, "must issue positive quantity")
	}
	if !quantity.Symbol.Equal(st.Supply.Symbol) {
		return errors.Wrapf(models.ErrPrecisionMismatch, "want %s, got %s", st.Supply.Symbol, quantity.Symbol)
	}
	if quantity.Amount > st.Available() {
		return errors.Wrapf(models.ErrSupplyExceeded, "available %d, requested %d", st.Available(), quantity.Amount)
	}
	st.Supply.Amount += quantity.Amount
	if err := tx.UpdateCurrencyStats(ctx, st); err != nil {
		return err
	}
	return s.credit(ctx, tx, s.cfg.ReserveAccount, quantity, s.cfg.ReserveAccount)
}

// boostTx performs the scheduled decayed emission if its time has come.
// Boost n emits floor(exp(lambda*n)/divisor * boost_pool); the curve
// front-loads rewards and decays exponentially. A boost that would break the
// supply cap is skipped for that cycle without advancing the counter.
func (s *TokenService) boostTx(ctx context.Context, tx storage.Store, symbolCode string, now time.Time) error {
	st, found, err := tx.GetCurrencyStats(ctx, symbolCode)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(models.ErrUnknownSymbol, "symbol %s", symbolCode)
	}

	next := st.Boosts + 1
	if next > s.cfg.BoostCount {
		return nil
	}
	nextBoostTime := st.Created.Add(time.Duration(next) * s.cfg.BoostInterval.Std())
	if nextBoostTime.After(now) {
		return nil
	}

	pool := decimal.NewFromInt(st.MaxSupply.Amount).Mul(s.boostProportion)
	factor := decimal.NewFromFloat(math.Exp(s.cfg.BoostLambda * float64(next)))
	emission := factor.Mul(pool).Div(s.boostDivisor).IntPart()

	if st.Supply.Amount+emission > st.MaxSupply.Amount {
		s.log.Warn("boost skipped, supply cap reached",
			"symbol", symbolCode, "boost", next, "emission", emission)
		return nil
	}

	st.Supply.Amount += emission
	st.Updated = now
	st.Boosts = next
	if err := tx.UpdateCurrencyStats(ctx, st); err != nil {
		return err
	}

	distributed, err := s.distributeTx(ctx, tx, models.NewAmount(emission, st.Supply.Symbol))
	if err != nil {
		return err
	}
	if remainder := emission - distributed; remainder > 0 {
		if err := s.credit(ctx, tx, s.cfg.ReserveAccount, models.NewAmount(remainder, st.Supply.Symbol), s.cfg.ReserveAccount); err != nil {
			return err
		}
	}
	s.log.Info("boost emitted",
		"symbol", symbolCode, "boost", next, "emission", emission, "distributed", distributed)
	return nil
}
