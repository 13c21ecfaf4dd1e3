package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

// RunMaintenance is one cycle of the recurring maintenance job: expire stakes
// whose lock elapsed, rebuild the per-staker aggregates from the live set,
// then run the boost emission check. The whole cycle commits atomically; a
// failure aborts it with no partial effect.
func (s *TokenService) RunMaintenance(ctx context.Context, symbolCode string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.WithinTx(ctx, func(tx storage.Store) error {
		sym, err := s.symbolOf(ctx, tx, symbolCode)
		if err != nil {
			return err
		}
		if err := s.expireStakesTx(ctx, tx, sym, now); err != nil {
			return err
		}
		return s.boostTx(ctx, tx, symbolCode, now)
	})
}

// expireStakesTx walks every staker's stakes, deletes the expired ones and
// recomputes total stake and weight from the survivors. A full recomputation
// each cycle, not an incremental update, so the aggregate cannot drift.
func (s *TokenService) expireStakesTx(ctx context.Context, tx storage.Store, sym models.Symbol, now time.Time) error {
	stats, err := tx.ListStakeStats(ctx, sym.Code)
	if err != nil {
		return err
	}

	var expired int
	for _, stat := range stats {
		stakes, err := tx.StakesByOwner(ctx, stat.Owner, sym.Code)
		if err != nil {
			return err
		}

		var total, weight int64
		for _, stk := range stakes {
			if !stk.Quantity.Symbol.Equal(sym) {
				continue
			}
			if stk.DurationIndex < 0 || stk.DurationIndex >= len(s.cfg.StakeTiers) {
				return errors.Wrapf(models.ErrInvalidIndex, "stake %s has index %d", stk.ID, stk.DurationIndex)
			}
			tier := s.cfg.StakeTiers[stk.DurationIndex]
			if !stk.ExpiresAt(tier.Duration.Std()).After(now) {
				if err := tx.DeleteStake(ctx, stk.ID); err != nil {
					return err
				}
				expired++
				continue
			}
			total += stk.Quantity.Amount
			weight += tier.Weight * stk.Quantity.Amount
		}

		if total == 0 {
			if err := tx.DeleteStakeStat(ctx, stat.Owner, sym.Code); err != nil {
				return err
			}
			continue
		}
		stat.TotalStake = models.NewAmount(total, sym)
		stat.StakeWeight = weight
		if err := tx.SaveStakeStat(ctx, stat); err != nil {
			return err
		}
	}

	if expired > 0 {
		s.log.Info("stakes expired", "symbol", sym.Code, "count", expired)
	}
	return nil
}
