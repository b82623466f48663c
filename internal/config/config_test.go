package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "journal.db", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.Equal(t, 30, cfg.WriteRatePerMin)
	assert.Equal(t, 5, cfg.WriteBurst)
	assert.False(t, cfg.IsDevelopment())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://localhost/journal")
	t.Setenv("APP_ENV", "development")
	t.Setenv("STATS_CACHE_TTL", "2m")
	t.Setenv("LEDGER_TIMEZONE", "UTC")
	t.Setenv("WRITE_RATE_PER_MIN", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, 0, cfg.WriteRatePerMin)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret": {"JWT_SECRET": "", "DATABASE_DRIVER": "sqlite3"},
		"pgx without url":    {"JWT_SECRET": "x", "DATABASE_DRIVER": "pgx", "DATABASE_URL": ""},
		"unknown driver":     {"JWT_SECRET": "x", "DATABASE_DRIVER": "mysql"},
		"bad timezone":       {"JWT_SECRET": "x", "DATABASE_DRIVER": "sqlite3", "LEDGER_TIMEZONE": "Mars/Olympus"},
		"negative burst":     {"JWT_SECRET": "x", "DATABASE_DRIVER": "sqlite3", "WRITE_BURST": "-1"},
		"zero pool size":     {"JWT_SECRET": "x", "DATABASE_DRIVER": "sqlite3", "DB_MAX_OPEN_CONNS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
