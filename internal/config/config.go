package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Postgres struct {
	Host     string `env:"POSTGRES_HOST"     env-default:"localhost"`
	Port     string `env:"POSTGRES_PORT"     env-default:"5432"`
	User     string `env:"POSTGRES_USER"     env-default:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	DB       string `env:"POSTGRES_DB"       env-default:"blindpoll"`
}

type Config struct {
	AuthorityURL     string        `env:"AUTHORITY_URL"     env-default:"http://localhost:8080"`
	AuthorityToken   string        `env:"AUTHORITY_TOKEN"`
	VoterIdentity    string        `env:"VOTER_IDENTITY"`
	AuthorityTimeout time.Duration `env:"AUTHORITY_TIMEOUT" env-default:"30s"`
	RankedSubmission string        `env:"RANKED_SUBMISSION" env-default:"positional"`
	LogLevel         string        `env:"LOG_LEVEL"         env-default:"info"`
	StoreDriver      string        `env:"STORE_DRIVER"      env-default:"badger"`
	BadgerDir        string        `env:"BADGER_DIR"        env-default:".blindpoll"`
	ListenAddr       string        `env:"LISTEN_ADDR"       env-default:"127.0.0.1:8081"`
	Postgres         Postgres
}

// New reads the environment, after loading .env when one exists.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.RankedSubmission {
	case "positional", "batch":
	default:
		return fmt.Errorf("RANKED_SUBMISSION must be positional or batch, got %q", c.RankedSubmission)
	}
	switch c.StoreDriver {
	case "memory", "badger", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be memory, badger or postgres, got %q", c.StoreDriver)
	}
	if c.AuthorityTimeout <= 0 {
		return fmt.Errorf("AUTHORITY_TIMEOUT must be positive")
	}
	return nil
}
