package config

import (
	"os"
	"time"

	"blackjack-server/internal/util"
	"blackjack-server/pkg/blackjack"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Store backends for the round log and the chip ledger
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Table is the configuration of every room created by the server
type Table struct {
	SeatCap        int  `yaml:"seatCap" envconfig:"seat_cap"`
	Decks          int  `yaml:"decks" envconfig:"decks"`
	CutCard        int  `yaml:"cutCard" envconfig:"cut_card"`
	MaxHands       int  `yaml:"maxHands" envconfig:"max_hands"`
	StandsOnSoft17 bool `yaml:"standsOnSoft17" envconfig:"stands_on_soft17"`
	// TurnTimeout is how long a player can idle before their hand stands, zero disables it
	TurnTimeout   time.Duration `yaml:"turnTimeout" envconfig:"turn_timeout"`
	LogLimit      int           `yaml:"logLimit" envconfig:"log_limit"`
	StartingChips int           `yaml:"startingChips" envconfig:"starting_chips"`
}

// Config provides configuration for the blackjack server
type Config struct {
	loaded         bool
	PGDSN          string `yaml:"pgDsn" envconfig:"pg_dsn"`
	MigrationsPath string `yaml:"migrationsPath" envconfig:"migrations_path"`
	RedisAddr      string `yaml:"redisAddr" envconfig:"redis_addr"`
	// LogStore is where round logs are persisted: memory, redis or postgres
	LogStore string `yaml:"logStore" envconfig:"log_store"`
	// Ledger is where chip balances are kept: memory or postgres
	Ledger string `yaml:"ledger" envconfig:"ledger"`
	JWT    struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	} `yaml:"jwt"`
	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	} `yaml:"log"`
	Table Table `yaml:"table"`
}

// Options returns the house rules for new rooms
func (t Table) Options() blackjack.Options {
	opts := blackjack.DefaultOptions()
	opts.SeatCap = t.SeatCap
	opts.Decks = t.Decks
	opts.CutCard = t.CutCard
	opts.MaxHands = t.MaxHands
	opts.StandsOnSoft17 = t.StandsOnSoft17
	opts.LogLimit = t.LogLimit

	return opts
}

var config Config

// Default returns the configuration used for any key that is not set
func Default() Config {
	opts := blackjack.DefaultOptions()

	var cfg Config
	cfg.PGDSN = "postgres://postgres@localhost:5432/postgres?sslmode=disable"
	cfg.MigrationsPath = "./sql"
	cfg.RedisAddr = "localhost:6379"
	cfg.LogStore = StoreMemory
	cfg.Ledger = StoreMemory
	cfg.JWT.PublicKey = ".jwt/public.pem"
	cfg.JWT.PrivateKey = ".jwt/private.key"
	cfg.Log.Level = "info"
	cfg.Table = Table{
		SeatCap:        opts.SeatCap,
		Decks:          opts.Decks,
		CutCard:        opts.CutCard,
		MaxHands:       opts.MaxHands,
		StandsOnSoft17: opts.StandsOnSoft17,
		TurnTimeout:    30 * time.Second,
		LogLimit:       opts.LogLimit,
		StartingChips:  2000,
	}

	return cfg
}

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
// Values come from the defaults, then the YAML file (if it exists), then the environment.
func Load() error {
	cfg := Default()

	configFile := util.Getenv("BJS_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if file != nil {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return err
		}
	}

	if err := envconfig.Process("bjs", &cfg); err != nil {
		return err
	}

	cfg.loaded = true
	config = cfg
	return nil
}
