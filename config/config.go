package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like "720h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// StakeTier is one row of the lock-duration table: how long funds are locked
// and the weight multiplier the lock earns.
type StakeTier struct {
	Duration Duration `yaml:"duration"`
	Weight   int64    `yaml:"weight"`
}

// Ledger holds the engine parameters: reserve account, fee split, the stake
// tier table and the boost emission schedule. Loaded once at startup and
// treated as process-wide constants afterwards.
type Ledger struct {
	ReserveAccount  string  `yaml:"reserve_account"`
	IssueProportion float64 `yaml:"issue_proportion"`
	FeeRate         float64 `yaml:"fee_rate"`
	FeeToStakers    float64 `yaml:"fee_to_stakers"`

	StakeTiers []StakeTier `yaml:"stake_tiers"`

	BoostInterval Duration `yaml:"boost_interval"`
	BoostCount    uint16   `yaml:"boost_count"`
	BoostLambda   float64  `yaml:"boost_lambda"`
	BoostDivisor  float64  `yaml:"boost_divisor"`

	MaintenanceInterval Duration `yaml:"maintenance_interval"`
}

// Config is the whole application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		DSN           string `yaml:"dsn"`
		MigrationsDir string `yaml:"migrations_dir"`
	} `yaml:"database"`
	Ledger Ledger `yaml:"ledger"`
}

// Default returns the stock parameter set: 75% initial issuance, 1% transfer
// fee with 70% to stakers, six saturating stake tiers and 312 weekly decaying
// boosts.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Database.MigrationsDir = "./storage/migrations"
	cfg.Ledger = Ledger{
		ReserveAccount:  "reserve",
		IssueProportion: 0.75,
		FeeRate:         0.01,
		FeeToStakers:    0.7,
		StakeTiers: []StakeTier{
			{Duration: Duration(30 * 24 * time.Hour), Weight: 50},    // 1 month
			{Duration: Duration(90 * 24 * time.Hour), Weight: 60},    // 3 months
			{Duration: Duration(180 * 24 * time.Hour), Weight: 75},   // 6 months
			{Duration: Duration(365 * 24 * time.Hour), Weight: 100},  // 1 year
			{Duration: Duration(730 * 24 * time.Hour), Weight: 100},  // 2 years
			{Duration: Duration(1825 * 24 * time.Hour), Weight: 100}, // 5 years
		},
		BoostInterval:       Duration(7 * 24 * time.Hour),
		BoostCount:          312,
		BoostLambda:         -0.015,
		BoostDivisor:        66.0,
		MaintenanceInterval: Duration(time.Minute),
	}
	return cfg
}

// Load reads a yaml config file over the defaults. A PROTOCOIN_DB_DSN
// environment variable overrides the database DSN so credentials can stay
// out of the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	if dsn := os.Getenv("PROTOCOIN_DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if err := cfg.Ledger.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects parameter tables an engine cannot run on.
func (l Ledger) Validate() error {
	if l.ReserveAccount == "" {
		return errors.New("config: reserve_account must be set")
	}
	if l.IssueProportion <= 0 || l.IssueProportion >= 1 {
		return errors.New("config: issue_proportion must be in (0, 1)")
	}
	if l.FeeRate < 0 || l.FeeRate >= 1 {
		return errors.New("config: fee_rate must be in [0, 1)")
	}
	if l.FeeToStakers < 0 || l.FeeToStakers > 1 {
		return errors.New("config: fee_to_stakers must be in [0, 1]")
	}
	if len(l.StakeTiers) == 0 {
		return errors.New("config: stake_tiers must not be empty")
	}
	for i, tier := range l.StakeTiers {
		if tier.Duration <= 0 {
			return errors.Errorf("config: stake tier %d has non-positive duration", i)
		}
		if tier.Weight <= 0 {
			return errors.Errorf("config: stake tier %d has non-positive weight", i)
		}
		if i > 0 {
			prev := l.StakeTiers[i-1]
			if tier.Duration < prev.Duration || tier.Weight < prev.Weight {
				return errors.Errorf("config: stake tier %d must not shrink duration or weight", i)
			}
		}
	}
	if l.BoostDivisor <= 0 {
		return errors.New("config: boost_divisor must be positive")
	}
	if l.BoostLambda >= 0 {
		return errors.New("config: boost_lambda must be negative")
	}
	if l.BoostInterval <= 0 || l.MaintenanceInterval <= 0 {
		return errors.New("config: intervals must be positive")
	}
	return nil
}
