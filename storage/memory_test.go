package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/storage"
)

var proto = models.Symbol{Code: "PROTO", Precision: 4}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()

	err := m.WithinTx(ctx, func(tx storage.Store) error {
		return tx.SaveAccount(ctx, models.Account{
			Owner:    "alice",
			Balance:  models.NewAmount(100, proto),
			OpenedBy: "alice",
		})
	})
	require.NoError(t, err)

	acct, found, err := m.GetAccount(ctx, "alice", proto.Code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(100), acct.Balance.Amount)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithinTx(ctx, func(tx storage.Store) error {
		if err := tx.SaveAccount(ctx, models.Account{
			Owner:    "alice",
			Balance:  models.NewAmount(100, proto),
			OpenedBy: "alice",
		}); err != nil {
			return err
		}
		if err := tx.RegisterOwner(ctx, "alice", time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, found, err := m.GetAccount(ctx, "alice", proto.Code)
	require.NoError(t, err)
	assert.False(t, found)

	exists, err := m.OwnerExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithinTxNestedSharesState(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()

	err := m.WithinTx(ctx, func(tx storage.Store) error {
		if err := tx.RegisterOwner(ctx, "alice", time.Now()); err != nil {
			return err
		}
		return tx.WithinTx(ctx, func(inner storage.Store) error {
			exists, err := inner.OwnerExists(ctx, "alice")
			if err != nil {
				return err
			}
			require.True(t, exists)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestStakesByOwnerKeepsInsertionOrder(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"s-1", "s-2", "s-3"} {
		require.NoError(t, m.InsertStake(ctx, models.Stake{
			ID:            id,
			Owner:         "alice",
			Quantity:      models.NewAmount(int64(i+1), proto),
			Start:         now,
			DurationIndex: 0,
		}))
	}
	require.NoError(t, m.DeleteStake(ctx, "s-2"))

	stakes, err := m.StakesByOwner(ctx, "alice", proto.Code)
	require.NoError(t, err)
	require.Len(t, stakes, 2)
	assert.Equal(t, "s-1", stakes[0].ID)
	assert.Equal(t, "s-3", stakes[1].ID)
}

func TestListStakeStatsOrderedByOwner(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()

	for _, owner := range []string{"carol", "alice", "bob"} {
		require.NoError(t, m.SaveStakeStat(ctx, models.StakeStat{
			Owner:       owner,
			TotalStake:  models.NewAmount(10, proto),
			StakeWeight: 100,
		}))
	}
	// A different symbol must not leak in.
	require.NoError(t, m.SaveStakeStat(ctx, models.StakeStat{
		Owner:       "dave",
		TotalStake:  models.NewAmount(10, models.Symbol{Code: "OTHER", Precision: 4}),
		StakeWeight: 100,
	}))

	stats, err := m.ListStakeStats(ctx, proto.Code)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "alice", stats[0].Owner)
	assert.Equal(t, "bob", stats[1].Owner)
	assert.Equal(t, "carol", stats[2].Owner)
}

func TestRegisterOwnerIsIdempotent(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()
	first := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.RegisterOwner(ctx, "alice", first))
	require.NoError(t, m.RegisterOwner(ctx, "alice", first.Add(time.Hour)))

	exists, err := m.OwnerExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCurrencyStatsLifecycle(t *testing.T) {
	m := storage.NewMemStore()
	ctx := context.Background()

	st := models.CurrencyStats{
		Supply:    models.NewAmount(0, proto),
		MaxSupply: models.NewAmount(1_000_000, proto),
		Created:   time.Now(),
		Updated:   time.Now(),
	}
	require.NoError(t, m.SaveCurrencyStats(ctx, st))
	assert.Error(t, m.SaveCurrencyStats(ctx, st), "double create must fail")

	st.Supply.Amount = 42
	require.NoError(t, m.UpdateCurrencyStats(ctx, st))

	got, found, err := m.GetCurrencyStats(ctx, proto.Code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(42), got.Supply.Amount)
}
