package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/inspace/protocoin/models"
)

// MemStore is an in-memory Store with the same transactional contract as the
// PostgreSQL implementation: WithinTx applies either all of a callback's
// writes or none of them. Used by tests and local development.
type MemStore struct {
	mu sync.Mutex
	st *memState
}

type memState struct {
	accounts   map[string]models.Account       // owner/code
	stats      map[string]models.CurrencyStats // code
	stakes     map[string]models.Stake         // id
	stakeSeq   map[string]int                  // id -> insertion order
	nextSeq    int
	stakeStats map[string]models.StakeStat // code/owner
	owners     map[string]time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{st: newMemState()}
}

func newMemState() *memState {
	return &memState{
		accounts:   make(map[string]models.Account),
		stats:      make(map[string]models.CurrencyStats),
		stakes:     make(map[string]models.Stake),
		stakeSeq:   make(map[string]int),
		stakeStats: make(map[string]models.StakeStat),
		owners:     make(map[string]time.Time),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.stats {
		c.stats[k] = v
	}
	for k, v := range s.stakes {
		c.stakes[k] = v
	}
	for k, v := range s.stakeSeq {
		c.stakeSeq[k] = v
	}
	c.nextSeq = s.nextSeq
	for k, v := range s.stakeStats {
		c.stakeStats[k] = v
	}
	for k, v := range s.owners {
		c.owners[k] = v
	}
	return c
}

func memKey(a, b string) string { return a + "/" + b }

// WithinTx runs fn against a copy of the state and swaps the copy in only if
// fn succeeds. Nested calls share the enclosing copy.
func (m *MemStore) WithinTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{st: m.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.st = tx.st
	return nil
}

func (m *MemStore) view() *memTx {
	return &memTx{st: m.st}
}

// Reads and writes outside a transaction operate on the live state.

func (m *MemStore) GetAccount(ctx context.Context, owner, code string) (models.Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().GetAccount(ctx, owner, code)
}

func (m *MemStore) SaveAccount(ctx context.Context, acct models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveAccount(ctx, acct)
}

func (m *MemStore) SetAccountBalance(ctx context.Context, owner string, balance models.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SetAccountBalance(ctx, owner, balance)
}

func (m *MemStore) DeleteAccount(ctx context.Context, owner, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteAccount(ctx, owner, code)
}

func (m *MemStore) GetCurrencyStats(ctx context.Context, code string) (models.CurrencyStats, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().GetCurrencyStats(ctx, code)
}

func (m *MemStore) SaveCurrencyStats(ctx context.Context, st models.CurrencyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveCurrencyStats(ctx, st)
}

func (m *MemStore) UpdateCurrencyStats(ctx context.Context, st models.CurrencyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().UpdateCurrencyStats(ctx, st)
}

func (m *MemStore) InsertStake(ctx context.Context, stake models.Stake) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().InsertStake(ctx, stake)
}

func (m *MemStore) StakesByOwner(ctx context.Context, owner, code string) ([]models.Stake, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().StakesByOwner(ctx, owner, code)
}

func (m *MemStore) DeleteStake(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteStake(ctx, id)
}

func (m *MemStore) GetStakeStat(ctx context.Context, owner, code string) (models.StakeStat, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().GetStakeStat(ctx, owner, code)
}

func (m *MemStore) ListStakeStats(ctx context.Context, code string) ([]models.StakeStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().ListStakeStats(ctx, code)
}

func (m *MemStore) SaveStakeStat(ctx context.Context, stat models.StakeStat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveStakeStat(ctx, stat)
}

func (m *MemStore) DeleteStakeStat(ctx context.Context, owner, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeleteStakeStat(ctx, owner, code)
}

func (m *MemStore) RegisterOwner(ctx context.Context, owner string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().RegisterOwner(ctx, owner, at)
}

func (m *MemStore) OwnerExists(ctx context.Context, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().OwnerExists(ctx, owner)
}

// memTx is a view over one state copy.
type memTx struct {
	st *memState
}

func (t *memTx) WithinTx(_ context.Context, fn func(Store) error) error {
	return fn(t)
}

func (t *memTx) GetAccount(_ context.Context, owner, code string) (models.Account, bool, error) {
	acct, ok := t.st.accounts[memKey(owner, code)]
	return acct, ok, nil
}

func (t *memTx) SaveAccount(_ context.Context, acct models.Account) error {
	key := memKey(acct.Owner, acct.Balance.Symbol.Code)
	if _, exists := t.st.accounts[key]; exists {
		return errors.Errorf("account %s already exists", key)
	}
	t.st.accounts[key] = acct
	return nil
}

func (t *memTx) SetAccountBalance(_ context.Context, owner string, balance models.Amount) error {
	key := memKey(owner, balance.Symbol.Code)
	acct, ok := t.st.accounts[key]
	if !ok {
		return errors.Errorf("account %s not found", key)
	}
	acct.Balance = balance
	t.st.accounts[key] = acct
	return nil
}

func (t *memTx) DeleteAccount(_ context.Context, owner, code string) error {
	key := memKey(owner, code)
	if _, ok := t.st.accounts[key]; !ok {
		return errors.Errorf("account %s not found", key)
	}
	delete(t.st.accounts, key)
	return nil
}

func (t *memTx) GetCurrencyStats(_ context.Context, code string) (models.CurrencyStats, bool, error) {
	st, ok := t.st.stats[code]
	return st, ok, nil
}

func (t *memTx) SaveCurrencyStats(_ context.Context, st models.CurrencyStats) error {
	code := st.Supply.Symbol.Code
	if _, exists := t.st.stats[code]; exists {
		return errors.Errorf("currency stats %s already exist", code)
	}
	t.st.stats[code] = st
	return nil
}

func (t *memTx) UpdateCurrencyStats(_ context.Context, st models.CurrencyStats) error {
	code := st.Supply.Symbol.Code
	if _, ok := t.st.stats[code]; !ok {
		return errors.Errorf("currency stats %s not found", code)
	}
	t.st.stats[code] = st
	return nil
}

func (t *memTx) InsertStake(_ context.Context, stake models.Stake) error {
	if _, exists := t.st.stakes[stake.ID]; exists {
		return errors.Errorf("stake %s already exists", stake.ID)
	}
	t.st.stakes[stake.ID] = stake
	t.st.stakeSeq[stake.ID] = t.st.nextSeq
	t.st.nextSeq++
	return nil
}

func (t *memTx) StakesByOwner(_ context.Context, owner, code string) ([]models.Stake, error) {
	var stakes []models.Stake
	for _, stk := range t.st.stakes {
		if stk.Owner == owner && stk.Quantity.Symbol.Code == code {
			stakes = append(stakes, stk)
		}
	}
	sort.Slice(stakes, func(i, j int) bool {
		return t.st.stakeSeq[stakes[i].ID] < t.st.stakeSeq[stakes[j].ID]
	})
	return stakes, nil
}

func (t *memTx) DeleteStake(_ context.Context, id string) error {
	if _, ok := t.st.stakes[id]; !ok {
		return errors.Errorf("stake %s not found", id)
	}
	delete(t.st.stakes, id)
	delete(t.st.stakeSeq, id)
	return nil
}

func (t *memTx) GetStakeStat(_ context.Context, owner, code string) (models.StakeStat, bool, error) {
	stat, ok := t.st.stakeStats[memKey(code, owner)]
	return stat, ok, nil
}

func (t *memTx) ListStakeStats(_ context.Context, code string) ([]models.StakeStat, error) {
	var stats []models.StakeStat
	for _, stat := range t.st.stakeStats {
		if stat.TotalStake.Symbol.Code == code {
			stats = append(stats, stat)
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Owner < stats[j].Owner })
	return stats, nil
}

func (t *memTx) SaveStakeStat(_ context.Context, stat models.StakeStat) error {
	t.st.stakeStats[memKey(stat.TotalStake.Symbol.Code, stat.Owner)] = stat
	return nil
}

func (t *memTx) DeleteStakeStat(_ context.Context, owner, code string) error {
	key := memKey(code, owner)
	if _, ok := t.st.stakeStats[key]; !ok {
		return errors.Errorf("stake stat %s not found", key)
	}
	delete(t.st.stakeStats, key)
	return nil
}

func (t *memTx) RegisterOwner(_ context.Context, owner string, at time.Time) error {
	if _, ok := t.st.owners[owner]; !ok {
		t.st.owners[owner] = at
	}
	return nil
}

func (t *memTx) OwnerExists(_ context.Context, owner string) (bool, error) {
	_, ok := t.st.owners[owner]
	return ok, nil
}
