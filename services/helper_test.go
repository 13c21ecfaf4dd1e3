package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/inspace/protocoin/config"
	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/services"
	"github.com/inspace/protocoin/storage"
)

var proto = models.Symbol{Code: "PROTO", Precision: 4}

func amt(n int64) models.Amount { return models.NewAmount(n, proto) }

func testLedgerConfig() config.Ledger {
	return config.Ledger{
		ReserveAccount:  "reserve",
		IssueProportion: 0.75,
		FeeRate:         0.01,
		FeeToStakers:    0.7,
		StakeTiers: []config.StakeTier{
			{Duration: config.Duration(30 * time.Minute), Weight: 50},
			{Duration: config.Duration(90 * time.Minute), Weight: 60},
			{Duration: config.Duration(3 * time.Hour), Weight: 75},
			{Duration: config.Duration(6 * time.Hour), Weight: 100},
			{Duration: config.Duration(12 * time.Hour), Weight: 100},
			{Duration: config.Duration(24 * time.Hour), Weight: 100},
		},
		BoostInterval:       config.Duration(2 * time.Minute),
		BoostCount:          312,
		BoostLambda:         -0.015,
		BoostDivisor:        66.0,
		MaintenanceInterval: config.Duration(time.Minute),
	}
}

type fixture struct {
	svc    *services.TokenService
	store  *storage.MemStore
	now    time.Time
	owners []string
}

func newFixture(t *testing.T, mutate ...func(*config.Ledger)) *fixture {
	t.Helper()
	cfg := testLedgerConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	store := storage.NewMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		svc:    services.NewTokenService(store, store, cfg, log),
		store:  store,
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		owners: []string{"reserve"},
	}
	require.NoError(t, f.svc.RegisterOwner(context.Background(), "reserve", f.now))
	return f
}

func (f *fixture) register(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, f.svc.RegisterOwner(context.Background(), name, f.now))
		f.owners = append(f.owners, name)
	}
}

func (f *fixture) create(t *testing.T, maxSupply int64) {
	t.Helper()
	require.NoError(t, f.svc.Create(context.Background(), amt(maxSupply), f.now))
}

func (f *fixture) transfer(t *testing.T, from, to string, quantity int64) {
	t.Helper()
	require.NoError(t, f.svc.Transfer(context.Background(), from, to, amt(quantity), "", f.now))
}

func (f *fixture) stake(t *testing.T, staker string, quantity int64, tier int) {
	t.Helper()
	require.NoError(t, f.svc.AddStake(context.Background(), staker, amt(quantity), tier, f.now))
}

// balance treats "never opened" as zero so property checks can sum freely.
func (f *fixture) balance(t *testing.T, owner string) int64 {
	t.Helper()
	b, err := f.svc.GetBalance(context.Background(), owner, proto.Code)
	if errors.Is(err, models.ErrNoBalanceRecord) {
		return 0
	}
	require.NoError(t, err)
	return b.Amount
}

// assertConserved checks supply == sum of all known balances.
func (f *fixture) assertConserved(t *testing.T) {
	t.Helper()
	supply, err := f.svc.GetSupply(context.Background(), proto.Code)
	require.NoError(t, err)
	var sum int64
	for _, owner := range f.owners {
		sum += f.balance(t, owner)
	}
	require.Equal(t, supply.Amount, sum, "supply must equal the sum of balances")
}
