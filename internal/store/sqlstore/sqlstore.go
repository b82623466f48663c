// Package sqlstore implements engagement.Store on PostgreSQL (pgx) or SQLite.
//
// Per-user exclusivity comes from the database: on PostgreSQL the ledger row is
// created if missing and then locked with SELECT ... FOR UPDATE; on SQLite every
// transaction takes the database write lock at BEGIN (_txlock=immediate) and the
// pool is limited to one connection.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ContentSealer encrypts entry content at rest.
type ContentSealer interface {
	Seal(plaintext string) (string, error)
	Open(ciphertext string) (string, error)
}

type Store struct {
	db      *sqlx.DB
	dialect Dialect
	sealer  ContentSealer
}

type Option func(*Store)

func WithSealer(s ContentSealer) Option { return func(st *Store) { st.sealer = s } }

// Open connects with driver ("pgx" or "sqlite3") and applies the schema.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int, opts ...Option) (*Store, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetConnMaxLifetime(2 * time.Hour)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s, err := New(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// New wraps an existing handle. The dialect is taken from db.DriverName().
func New(db *sqlx.DB, opts ...Option) (*Store, error) {
	dialect, err := dialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func sqliteDSN(dsn string) string {
	params := "_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_loc=UTC"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

func (s *Store) seal(content string) (string, error) {
	if s.sealer == nil {
		return content, nil
	}
	return s.sealer.Seal(content)
}

func (s *Store) open(content string) (string, error) {
	if s.sealer == nil {
		return content, nil
	}
	return s.sealer.Open(content)
}
