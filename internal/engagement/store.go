package engagement

import (
	"context"
	"time"

	"journalledger/internal/models"
)

// Store persists entries and ledgers.
//
// WithUserTx runs fn with exclusive access to one user's ledger. If fn returns
// an error nothing fn wrote is applied; otherwise everything is committed
// together. Calls for different users must not block each other.
type Store interface {
	WithUserTx(ctx context.Context, userID int64, fn func(tx UserTx) error) error

	// EnsureLedger returns the user's ledger, inserting a zeroed one if absent.
	// Concurrent calls must never create more than one row.
	EnsureLedger(ctx context.Context, userID int64) (models.EngagementLedger, error)

	ListEntries(ctx context.Context, userID int64, opts ListOptions) ([]models.JournalEntry, error)
}

// UserTx is a unit of work bound to one user.
type UserTx interface {
	// Ledger returns the locked ledger, zeroed (with UserID set) when the user has none yet.
	Ledger(ctx context.Context) (models.EngagementLedger, error)
	SaveLedger(ctx context.Context, ledger models.EngagementLedger) error

	// GetEntry returns ErrNotFound when the entry is missing or owned by another user.
	GetEntry(ctx context.Context, entryID string) (models.JournalEntry, error)
	InsertEntry(ctx context.Context, entry models.JournalEntry) error
	UpdateEntry(ctx context.Context, entry models.JournalEntry) error
	DeleteEntry(ctx context.Context, entryID string) error
}

// ListOptions bounds ListEntries. Zero Since/Until are unbounded; Until is exclusive.
type ListOptions struct {
	Since time.Time
	Until time.Time
	Limit int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 || o.Limit > MaxListLimit {
		o.Limit = DefaultListLimit
	}
	return o
}

// Matches reports whether an entry created at t falls inside the window.
func (o ListOptions) Matches(t time.Time) bool {
	if !o.Since.IsZero() && t.Before(o.Since) {
		return false
	}
	if !o.Until.IsZero() && !t.Before(o.Until) {
		return false
	}
	return true
}

// StatsCache is an optional read-through cache in front of EnsureLedger.
type StatsCache interface {
	Get(ctx context.Context, userID int64) (models.EngagementLedger, bool, error)
	Set(ctx context.Context, ledger models.EngagementLedger) error
	Invalidate(ctx context.Context, userID int64) error
}
