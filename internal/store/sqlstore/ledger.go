package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"journalledger/internal/engagement"
	"journalledger/internal/models"
)

const ledgerColumns = `user_id, current_streak, longest_streak, total_entries, total_points, last_entry_date, updated_at`

const ensureLedgerSQL = `INSERT INTO engagement_ledgers (user_id, updated_at) VALUES (?, ?)
	ON CONFLICT (user_id) DO NOTHING`

const saveLedgerSQL = `INSERT INTO engagement_ledgers (` + ledgerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
	  current_streak = excluded.current_streak,
	  longest_streak = excluded.longest_streak,
	  total_entries = excluded.total_entries,
	  total_points = excluded.total_points,
	  last_entry_date = excluded.last_entry_date,
	  updated_at = excluded.updated_at`

// WithUserTx runs fn inside one database transaction. The ledger row is locked
// the first time fn asks for it.
func (s *Store) WithUserTx(ctx context.Context, userID int64, fn func(engagement.UserTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if err := fn(&userTx{store: s, tx: tx, userID: userID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// EnsureLedger is safe under concurrent first reads: the primary key on
// user_id makes the insert a no-op for all but one caller.
func (s *Store) EnsureLedger(ctx context.Context, userID int64) (models.EngagementLedger, error) {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(ensureLedgerSQL), userID, time.Now().UTC()); err != nil {
		return models.EngagementLedger{}, fmt.Errorf("ensure ledger: %w", err)
	}
	var l models.EngagementLedger
	q := s.db.Rebind(`SELECT ` + ledgerColumns + ` FROM engagement_ledgers WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &l, q, userID); err != nil {
		return models.EngagementLedger{}, fmt.Errorf("load ledger: %w", err)
	}
	return normalizeLedger(l), nil
}

type userTx struct {
	store  *Store
	tx     *sqlx.Tx
	userID int64
}

func (t *userTx) Ledger(ctx context.Context) (models.EngagementLedger, error) {
	if _, err := t.tx.ExecContext(ctx, t.tx.Rebind(ensureLedgerSQL), t.userID, time.Now().UTC()); err != nil {
		return models.EngagementLedger{}, fmt.Errorf("ensure ledger: %w", err)
	}
	q := `SELECT ` + ledgerColumns + ` FROM engagement_ledgers WHERE user_id = ?`
	if t.store.dialect == Postgres {
		q += ` FOR UPDATE`
	}
	var l models.EngagementLedger
	if err := t.tx.GetContext(ctx, &l, t.tx.Rebind(q), t.userID); err != nil {
		return models.EngagementLedger{}, fmt.Errorf("lock ledger: %w", err)
	}
	return normalizeLedger(l), nil
}

func (t *userTx) SaveLedger(ctx context.Context, l models.EngagementLedger) error {
	var last any
	if l.LastEntryDate != nil {
		last = l.LastEntryDate.UTC()
	}
	_, err := t.tx.ExecContext(ctx, t.tx.Rebind(saveLedgerSQL),
		t.userID, l.CurrentStreak, l.LongestStreak, l.TotalEntries, l.TotalPoints, last, l.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

const entryColumns = `id, user_id, content, mood, created_at, updated_at, points_earned`

func (t *userTx) GetEntry(ctx context.Context, entryID string) (models.JournalEntry, error) {
	var e models.JournalEntry
	q := t.tx.Rebind(`SELECT ` + entryColumns + ` FROM journal_entries WHERE id = ? AND user_id = ?`)
	if err := t.tx.GetContext(ctx, &e, q, entryID, t.userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JournalEntry{}, engagement.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return t.store.decodeEntry(e)
}

func (t *userTx) InsertEntry(ctx context.Context, e models.JournalEntry) error {
	content, err := t.store.seal(e.Content)
	if err != nil {
		return fmt.Errorf("seal content: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, t.tx.Rebind(`INSERT INTO journal_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, t.userID, content, e.Mood, e.CreatedAt.UTC(), e.UpdatedAt.UTC(), e.PointsEarned)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (t *userTx) UpdateEntry(ctx context.Context, e models.JournalEntry) error {
	content, err := t.store.seal(e.Content)
	if err != nil {
		return fmt.Errorf("seal content: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`UPDATE journal_entries
		SET content = ?, mood = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		content, e.Mood, e.UpdatedAt.UTC(), e.ID, t.userID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res)
}

func (t *userTx) DeleteEntry(ctx context.Context, entryID string) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`DELETE FROM journal_entries WHERE id = ? AND user_id = ?`),
		entryID, t.userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return engagement.ErrNotFound
	}
	return nil
}

func normalizeLedger(l models.EngagementLedger) models.EngagementLedger {
	if l.LastEntryDate != nil {
		t := l.LastEntryDate.UTC()
		l.LastEntryDate = &t
	}
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l
}
