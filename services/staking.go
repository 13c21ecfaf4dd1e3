package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

// AddStake locks quantity of the staker's unstaked balance for the tier's
// duration. Each call creates a fresh stake record; existing stakes are never
// added to.
func (s *TokenService) AddStake(ctx context.Context, staker string, quantity models.Amount, durationIndex int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		return s.addStakeTx(ctx, tx, staker, quantity, durationIndex, now)
	})
}

func (s *TokenService) addStakeTx(ctx context.Context, tx storage.Store, staker string, quantity models.Amount, durationIndex int, now time.Time) error {
	if durationIndex < 0 || durationIndex >= len(s.cfg.StakeTiers) {
		return errors.Wrapf(models.ErrInvalidIndex, "index %d, %d tiers", durationIndex, len(s.cfg.StakeTiers))
	}
	exists, err := s.dir.OwnerExists(ctx, staker)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(models.ErrUnknownAccount, "staker %s", staker)
	}
	st, found, err := tx.GetCurrencyStats(ctx, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(models.ErrUnknownSymbol, "symbol %s", quantity.Symbol.Code)
	}
	if !quantity.IsPositive() {
		return errors.Wrap(models.ErrInvalidAmount, "must stake positive quantity")
	}
	if !quantity.Symbol.Equal(st.Supply.Symbol) {
		return errors.Wrapf(models.ErrPrecisionMismatch, "want %s, got %s", st.Supply.Symbol, quantity.Symbol)
	}

	acct, found, err := tx.GetAccount(ctx, staker, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(models.ErrNoBalanceRecord, "staker %s symbol %s", staker, quantity.Symbol.Code)
	}
	staked, err := s.stakeOfTx(ctx, tx, staker, quantity.Symbol)
	if err != nil {
		return err
	}
	unstaked := acct.Balance.Amount - staked.Amount
	if quantity.Amount > unstaked {
		return errors.Wrapf(models.ErrOverdrawn, "unstaked %d, stake %d", unstaked, quantity.Amount)
	}

	stake := models.Stake{
		ID:            uuid.NewString(),
		Owner:         staker,
		Quantity:      quantity,
		Start:         now,
		DurationIndex: durationIndex,
	}
	if err := tx.InsertStake(ctx, stake); err != nil {
		return err
	}

	weight := s.cfg.StakeTiers[durationIndex].Weight * quantity.Amount

	stat, found, err := tx.GetStakeStat(ctx, staker, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if !found {
		stat = models.StakeStat{Owner: staker, TotalStake: quantity, StakeWeight: weight}
	} else {
		total, err := stat.TotalStake.Add(quantity)
		if err != nil {
			return err
		}
		stat.TotalStake = total
		stat.StakeWeight += weight
	}
	if err := tx.SaveStakeStat(ctx, stat); err != nil {
		return err
	}

	s.log.Info("stake added",
		"staker", staker, "quantity", quantity.String(), "duration_index", durationIndex, "weight", weight)
	return nil
}
