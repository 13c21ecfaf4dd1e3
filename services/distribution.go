package services

import (
	"context"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

// distributeTx splits quantity across all current stakers proportional to
// stake weight, crediting each share, and returns the total it credited.
// Floor truncation means the return value never exceeds quantity; the caller
// routes the difference to the reserve. With no stakers nothing moves.
func (s *TokenService) distributeTx(ctx context.Context, tx storage.Store, quantity models.Amount) (int64, error) {
	stats, err := tx.ListStakeStats(ctx, quantity.Symbol.Code)
	if err != nil {
		return 0, err
	}

	var totalWeight int64
	for _, stat := range stats {
		totalWeight += stat.StakeWeight
	}
	if totalWeight == 0 {
		return 0, nil
	}

	var distributed int64
	for _, stat := range stats {
		share := floorShare(quantity.Amount, stat.StakeWeight, totalWeight)
		if share <= 0 {
			continue
		}
		if err := s.credit(ctx, tx, stat.Owner, models.NewAmount(share, quantity.Symbol), s.cfg.ReserveAccount); err != nil {
			return 0, err
		}
		distributed += share
	}
	return distributed, nil
}
