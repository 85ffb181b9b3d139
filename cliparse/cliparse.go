package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	KeySeed         string
	InstanceAddress string
	ProtocolID      uint8
	QuestionsFile   string
	DecryptWorkers  int
	MaxTally        uint64
	MaxOptions      int
	LogFormat       string
}

// Defaults
const (
	DefaultPort           = 3318
	DefaultSQLiteURL      = "sealed-survey.db"
	DefaultProtocolID     = 1
	DefaultDecryptWorkers = 2
	DefaultMaxTally       = 1 << 20
	DefaultMaxOptions     = 16
)

// ParseFlags reads configuration from flags, then the environment, then a
// .env file, then defaults. The first source that sets a value wins.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var protocol, maxTally int64
	var envFile string

	fs := flag.NewFlagSet("sealed-survey", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Survey config
	fs.StringVar(&cfg.InstanceAddress, "instance", "", "Instance address (generated on first start if empty)")
	fs.Int64Var(&protocol, "protocol", 0, "Accepted encryption protocol id")
	fs.StringVar(&cfg.QuestionsFile, "questions", "", "JSON file with the question list")
	fs.IntVar(&cfg.DecryptWorkers, "workers", 0, "Decryption workers")
	fs.Int64Var(&maxTally, "max-tally", 0, "Largest count the decryption service can recover")
	fs.IntVar(&cfg.MaxOptions, "max-options", 0, "Largest option count per question")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json, default by terminal)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.KeySeed, "key-seed", "", "Key holder seed (prefer env)")
	fs.StringVar(&envFile, "env-file", ".env", "Dotenv file to read")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// godotenv never overrides variables that are already set
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	var err error
	if cfg.Port, err = intOr(cfg.Port, "PORT", DefaultPort); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != "sqlite" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = DefaultSQLiteURL
	}

	if cfg.InstanceAddress == "" {
		cfg.InstanceAddress = os.Getenv("INSTANCE_ADDRESS")
	}
	if cfg.QuestionsFile == "" {
		cfg.QuestionsFile = os.Getenv("QUESTIONS_FILE")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
	}
	if cfg.LogFormat != "" && cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	p, err := intOr(int(protocol), "PROTOCOL_ID", DefaultProtocolID)
	if err != nil {
		return Config{}, err
	}
	if p < 0 || p > 255 {
		return Config{}, fmt.Errorf("protocol id %d does not fit in a byte", p)
	}
	cfg.ProtocolID = uint8(p)

	if cfg.DecryptWorkers, err = intOr(cfg.DecryptWorkers, "DECRYPT_WORKERS", DefaultDecryptWorkers); err != nil {
		return Config{}, err
	}
	if cfg.DecryptWorkers < 1 {
		return Config{}, errors.New("at least one decryption worker is required")
	}

	mt, err := intOr(int(maxTally), "MAX_TALLY", DefaultMaxTally)
	if err != nil {
		return Config{}, err
	}
	if mt < 1 {
		return Config{}, errors.New("MAX_TALLY must be positive")
	}
	cfg.MaxTally = uint64(mt)

	if cfg.MaxOptions, err = intOr(cfg.MaxOptions, "MAX_OPTIONS", DefaultMaxOptions); err != nil {
		return Config{}, err
	}

	// Secrets - MUST be provided
	if cfg.KeySeed == "" {
		cfg.KeySeed = os.Getenv("KEY_SEED")
	}
	if cfg.KeySeed == "" {
		return Config{}, errors.New("KEY_SEED required")
	}

	return cfg, nil
}

// intOr returns flagVal if set, else the env variable, else def.
func intOr(flagVal int, env string, def int) (int, error) {
	if flagVal != 0 {
		return flagVal, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return v, nil
}
