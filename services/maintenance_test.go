package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspace/protocoin/config"
	"github.com/inspace/protocoin/models"
)

// noBoost disables the emission schedule so expiry behavior can be
// observed on its own.
func noBoost(c *config.Ledger) { c.BoostCount = 0 }

func TestMaintenanceExpiresStakes(t *testing.T) {
	f := newFixture(t, noBoost)
	f.register(t, "alice")
	f.create(t, 1_000_000)
	f.transfer(t, "reserve", "alice", 10_000)
	ctx := context.Background()

	f.stake(t, "alice", 500, 0) // 30 minute lock

	later := f.now.Add(31 * time.Minute)
	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, later))

	stake, err := f.svc.StakeOf(ctx, "alice", proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stake.Amount)

	unstaked, err := f.svc.UnstakedBalance(ctx, "alice", proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), unstaked.Amount)

	// A second run over the same state is a no-op.
	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, later))
	f.assertConserved(t)
}

func TestMaintenanceRecomputesSurvivors(t *testing.T) {
	f := newFixture(t, noBoost)
	f.register(t, "alice")
	f.create(t, 1_000_000)
	f.transfer(t, "reserve", "alice", 10_000)
	ctx := context.Background()

	f.stake(t, "alice", 100, 0) // 30 minutes, weight 50
	f.stake(t, "alice", 200, 3) // 6 hours, weight 100

	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(time.Hour)))

	stake, err := f.svc.StakeOf(ctx, "alice", proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(200), stake.Amount)

	weight, err := f.svc.StakeWeightOf(ctx, "alice", proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(100*200), weight)
}

func TestMaintenanceHoldsUnexpiredStakes(t *testing.T) {
	f := newFixture(t, noBoost)
	f.register(t, "alice")
	f.create(t, 1_000_000)
	f.transfer(t, "reserve", "alice", 10_000)
	ctx := context.Background()

	f.stake(t, "alice", 500, 0)

	// One second before expiry nothing unlocks.
	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(30*time.Minute-time.Second)))

	stake, err := f.svc.StakeOf(ctx, "alice", proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(500), stake.Amount)
}

func TestMaintenanceBoostEmission(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1_000_000)
	ctx := context.Background()

	// Boost pool is 250,000. Boost 1 emits
	// floor(exp(-0.015) * 250,000 / 66) = 3,731, boost 2
	// floor(exp(-0.030) * 250,000 / 66) = 3,675. With no stakers the whole
	// emission lands on the reserve.
	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(2*time.Minute)))
	supply, err := f.svc.GetSupply(ctx, proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(750_000+3_731), supply.Amount)

	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(4*time.Minute)))
	supply, err = f.svc.GetSupply(ctx, proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(750_000+3_731+3_675), supply.Amount)

	assert.Equal(t, int64(750_000+3_731+3_675), f.balance(t, "reserve"))
	f.assertConserved(t)
}

func TestMaintenanceBoostTooEarly(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1_000_000)
	ctx := context.Background()

	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(time.Minute)))

	supply, err := f.svc.GetSupply(ctx, proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(750_000), supply.Amount)

	st, found, err := f.store.GetCurrencyStats(ctx, proto.Code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint16(0), st.Boosts)
}

func TestMaintenanceBoostDistributesToStakers(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	f.create(t, 1_000_000)
	f.transfer(t, "reserve", "alice", 10_000)
	ctx := context.Background()

	f.stake(t, "alice", 1_000, 5) // sole staker takes the full emission

	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(2*time.Minute)))

	assert.Equal(t, int64(10_000+3_731), f.balance(t, "alice"))
	f.assertConserved(t)
}

func TestMaintenanceBoostBlockedByCap(t *testing.T) {
	f := newFixture(t)
	f.create(t, 1_000_000)
	ctx := context.Background()

	// Leave only 1,000 units of headroom; boost 1 needs 3,731.
	require.NoError(t, f.svc.Issue(ctx, amt(249_000)))

	require.NoError(t, f.svc.RunMaintenance(ctx, proto.Code, f.now.Add(2*time.Minute)))

	supply, err := f.svc.GetSupply(ctx, proto.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(999_000), supply.Amount)

	// The counter does not advance; the blocked boost is simply lost.
	st, found, err := f.store.GetCurrencyStats(ctx, proto.Code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint16(0), st.Boosts)
}

func TestMaintenanceUnknownSymbol(t *testing.T) {
	f := newFixture(t)
	err := f.svc.RunMaintenance(context.Background(), "NOPE", f.now)
	assert.ErrorIs(t, err, models.ErrUnknownSymbol)
}
