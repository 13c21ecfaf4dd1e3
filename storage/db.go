package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/inspace/protocoin/models"
)

// DB is the PostgreSQL-backed Store. Outside a transaction it queries the
// pool directly; WithinTx hands callbacks a view bound to a single
// transaction.
type DB struct {
	root *sqlx.DB
	q    sqlx.ExtContext
}

// NewDB connects to PostgreSQL and applies pending migrations.
func NewDB(dataSourceName, migrationsDir string) (*DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err := runMigrations(db.DB, migrationsDir); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{root: db, q: db}, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.root.Close()
}

func runMigrations(db *sql.DB, dir string) error {
	migrations := &migrate.FileMigrationSource{Dir: dir}
	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return errors.Wrap(err, "applying migrations")
	}
	if n > 0 {
		slog.Info("applied database migrations", "count", n)
	}
	return nil
}

// WithinTx starts a transaction and commits only if fn succeeds. Nested
// calls reuse the enclosing transaction.
func (d *DB) WithinTx(ctx context.Context, fn func(Store) error) error {
	if _, nested := d.q.(*sqlx.Tx); nested {
		return fn(d)
	}
	tx, err := d.root.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(&DB{root: d.root, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

type accountRow struct {
	Owner      string `db:"owner"`
	SymbolCode string `db:"symbol_code"`
	Precision  uint8  `db:"precision"`
	Balance    int64  `db:"balance"`
	OpenedBy   string `db:"opened_by"`
}

func (r accountRow) model() models.Account {
	return models.Account{
		Owner:    r.Owner,
		Balance:  models.NewAmount(r.Balance, models.Symbol{Code: r.SymbolCode, Precision: r.Precision}),
		OpenedBy: r.OpenedBy,
	}
}

func (d *DB) GetAccount(ctx context.Context, owner, symbolCode string) (models.Account, bool, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, d.q, &row,
		`SELECT owner, symbol_code, precision, balance, opened_by FROM accounts WHERE owner = $1 AND symbol_code = $2`,
		owner, symbolCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, false, nil
	}
	if err != nil {
		return models.Account{}, false, errors.Wrap(err, "fetching account")
	}
	return row.model(), true, nil
}

func (d *DB) SaveAccount(ctx context.Context, acct models.Account) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO accounts (owner, symbol_code, precision, balance, opened_by) VALUES ($1, $2, $3, $4, $5)`,
		acct.Owner, acct.Balance.Symbol.Code, acct.Balance.Symbol.Precision, acct.Balance.Amount, acct.OpenedBy)
	return errors.Wrap(err, "inserting account")
}

func (d *DB) SetAccountBalance(ctx context.Context, owner string, balance models.Amount) error {
	res, err := d.q.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE owner = $2 AND symbol_code = $3`,
		balance.Amount, owner, balance.Symbol.Code)
	if err != nil {
		return errors.Wrap(err, "updating account balance")
	}
	return expectOneRow(res, "account")
}

func (d *DB) DeleteAccount(ctx context.Context, owner, symbolCode string) error {
	res, err := d.q.ExecContext(ctx,
		`DELETE FROM accounts WHERE owner = $1 AND symbol_code = $2`, owner, symbolCode)
	if err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return expectOneRow(res, "account")
}

type statsRow struct {
	SymbolCode string    `db:"symbol_code"`
	Precision  uint8     `db:"precision"`
	Supply     int64     `db:"supply"`
	MaxSupply  int64     `db:"max_supply"`
	Created    time.Time `db:"created"`
	Updated    time.Time `db:"updated"`
	Boosts     uint16    `db:"boosts"`
}

func (r statsRow) model() models.CurrencyStats {
	sym := models.Symbol{Code: r.SymbolCode, Precision: r.Precision}
	return models.CurrencyStats{
		Supply:    models.NewAmount(r.Supply, sym),
		MaxSupply: models.NewAmount(r.MaxSupply, sym),
		Created:   r.Created,
		Updated:   r.Updated,
		Boosts:    r.Boosts,
	}
}

func (d *DB) GetCurrencyStats(ctx context.Context, symbolCode string) (models.CurrencyStats, bool, error) {
	var row statsRow
	err := sqlx.GetContext(ctx, d.q, &row,
		`SELECT symbol_code, precision, supply, max_supply, created, updated, boosts FROM currency_stats WHERE symbol_code = $1`,
		symbolCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CurrencyStats{}, false, nil
	}
	if err != nil {
		return models.CurrencyStats{}, false, errors.Wrap(err, "fetching currency stats")
	}
	return row.model(), true, nil
}

func (d *DB) SaveCurrencyStats(ctx context.Context, st models.CurrencyStats) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO currency_stats (symbol_code, precision, supply, max_supply, created, updated, boosts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		st.Supply.Symbol.Code, st.Supply.Symbol.Precision, st.Supply.Amount, st.MaxSupply.Amount,
		st.Created, st.Updated, st.Boosts)
	return errors.Wrap(err, "inserting currency stats")
}

func (d *DB) UpdateCurrencyStats(ctx context.Context, st models.CurrencyStats) error {
	res, err := d.q.ExecContext(ctx,
		`UPDATE currency_stats SET supply = $1, updated = $2, boosts = $3 WHERE symbol_code = $4`,
		st.Supply.Amount, st.Updated, st.Boosts, st.Supply.Symbol.Code)
	if err != nil {
		return errors.Wrap(err, "updating currency stats")
	}
	return expectOneRow(res, "currency stats")
}

type stakeRow struct {
	ID            string    `db:"id"`
	Owner         string    `db:"owner"`
	SymbolCode    string    `db:"symbol_code"`
	Precision     uint8     `db:"precision"`
	Quantity      int64     `db:"quantity"`
	StartAt       time.Time `db:"start_at"`
	DurationIndex int       `db:"duration_index"`
}

func (r stakeRow) model() models.Stake {
	return models.Stake{
		ID:            r.ID,
		Owner:         r.Owner,
		Quantity:      models.NewAmount(r.Quantity, models.Symbol{Code: r.SymbolCode, Precision: r.Precision}),
		Start:         r.StartAt,
		DurationIndex: r.DurationIndex,
	}
}

func (d *DB) InsertStake(ctx context.Context, stake models.Stake) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO stakes (id, owner, symbol_code, precision, quantity, start_at, duration_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stake.ID, stake.Owner, stake.Quantity.Symbol.Code, stake.Quantity.Symbol.Precision,
		stake.Quantity.Amount, stake.Start, stake.DurationIndex)
	return errors.Wrap(err, "inserting stake")
}

func (d *DB) StakesByOwner(ctx context.Context, owner, symbolCode string) ([]models.Stake, error) {
	var rows []stakeRow
	err := sqlx.SelectContext(ctx, d.q, &rows,
		`SELECT id, owner, symbol_code, precision, quantity, start_at, duration_index
		 FROM stakes WHERE owner = $1 AND symbol_code = $2 ORDER BY id`,
		owner, symbolCode)
	if err != nil {
		return nil, errors.Wrap(err, "listing stakes")
	}
	stakes := make([]models.Stake, 0, len(rows))
	for _, r := range rows {
		stakes = append(stakes, r.model())
	}
	return stakes, nil
}

func (d *DB) DeleteStake(ctx context.Context, id string) error {
	res, err := d.q.ExecContext(ctx, `DELETE FROM stakes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting stake")
	}
	return expectOneRow(res, "stake")
}

type stakeStatRow struct {
	Owner       string `db:"owner"`
	SymbolCode  string `db:"symbol_code"`
	Precision   uint8  `db:"precision"`
	TotalStake  int64  `db:"total_stake"`
	StakeWeight int64  `db:"stake_weight"`
}

func (r stakeStatRow) model() models.StakeStat {
	return models.StakeStat{
		Owner:       r.Owner,
		TotalStake:  models.NewAmount(r.TotalStake, models.Symbol{Code: r.SymbolCode, Precision: r.Precision}),
		StakeWeight: r.StakeWeight,
	}
}

func (d *DB) GetStakeStat(ctx context.Context, owner, symbolCode string) (models.StakeStat, bool, error) {
	var row stakeStatRow
	err := sqlx.GetContext(ctx, d.q, &row,
		`SELECT owner, symbol_code, precision, total_stake, stake_weight FROM stake_stats WHERE owner = $1 AND symbol_code = $2`,
		owner, symbolCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StakeStat{}, false, nil
	}
	if err != nil {
		return models.StakeStat{}, false, errors.Wrap(err, "fetching stake stat")
	}
	return row.model(), true, nil
}

// ListStakeStats yields stats in owner order, the iteration order the
// distribution pass relies on.
func (d *DB) ListStakeStats(ctx context.Context, symbolCode string) ([]models.StakeStat, error) {
	var rows []stakeStatRow
	err := sqlx.SelectContext(ctx, d.q, &rows,
		`SELECT owner, symbol_code, precision, total_stake, stake_weight FROM stake_stats WHERE symbol_code = $1 ORDER BY owner`,
		symbolCode)
	if err != nil {
		return nil, errors.Wrap(err, "listing stake stats")
	}
	stats := make([]models.StakeStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, r.model())
	}
	return stats, nil
}

func (d *DB) SaveStakeStat(ctx context.Context, stat models.StakeStat) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO stake_stats (owner, symbol_code, precision, total_stake, stake_weight)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner, symbol_code) DO UPDATE SET total_stake = $4, stake_weight = $5`,
		stat.Owner, stat.TotalStake.Symbol.Code, stat.TotalStake.Symbol.Precision,
		stat.TotalStake.Amount, stat.StakeWeight)
	return errors.Wrap(err, "upserting stake stat")
}

func (d *DB) DeleteStakeStat(ctx context.Context, owner, symbolCode string) error {
	res, err := d.q.ExecContext(ctx,
		`DELETE FROM stake_stats WHERE owner = $1 AND symbol_code = $2`, owner, symbolCode)
	if err != nil {
		return errors.Wrap(err, "deleting stake stat")
	}
	return expectOneRow(res, "stake stat")
}

func (d *DB) RegisterOwner(ctx context.Context, owner string, at time.Time) error {
	_, err := d.q.ExecContext(ctx,
		`INSERT INTO owners (name, registered_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		owner, at)
	return errors.Wrap(err, "registering owner")
}

func (d *DB) OwnerExists(ctx context.Context, owner string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, d.q, &exists,
		`SELECT EXISTS (SELECT 1 FROM owners WHERE name = $1)`, owner)
	return exists, errors.Wrap(err, "checking owner")
}

func expectOneRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "checking affected rows for %s", entity)
	}
	if n != 1 {
		return errors.Errorf("expected to touch one %s row, touched %d", entity, n)
	}
	return nil
}
