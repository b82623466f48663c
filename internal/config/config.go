package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT,default=8080"`
	Env  string `env:"APP_ENV,default=production"`

	DatabaseDriver string `env:"DATABASE_DRIVER,default=pgx"`
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS,default=10"`

	JWTSecret     string `env:"JWT_SECRET,required"`
	EncryptionKey string `env:"ENCRYPTION_KEY"` // base64, 32 bytes; empty stores content in plain text

	RedisAddr     string        `env:"REDIS_ADDR"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL,default=30s"`

	// Zone anchoring streak day boundaries.
	Timezone string `env:"LEDGER_TIMEZONE,default=UTC"`

	WriteRatePerMin int `env:"WRITE_RATE_PER_MIN,default=30"`
	WriteBurst      int `env:"WRITE_BURST,default=5"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envdecode.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "pgx":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the pgx driver")
		}
	case "sqlite3":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "journal.db"
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be pgx or sqlite3, got %q", c.DatabaseDriver)
	}
	if c.DBMaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.WriteRatePerMin < 0 || c.WriteBurst < 0 {
		return errors.New("WRITE_RATE_PER_MIN and WRITE_BURST must not be negative")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }
