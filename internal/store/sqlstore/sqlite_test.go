package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalledger/internal/crypto"
	"journalledger/internal/engagement"
	"journalledger/internal/models"
)

func newSQLiteStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, "sqlite3", ":memory:", 1, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, email string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "hash")
	require.NoError(t, err)
	return u
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "journal.db?_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_loc=UTC", sqliteDSN("journal.db"))
	assert.Equal(t, "file:x.db?cache=shared&_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_loc=UTC", sqliteDSN("file:x.db?cache=shared"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", 1)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	u := createUser(t, s, "ana@example.com")
	assert.Positive(t, u.ID)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())

	_, err := s.CreateUser(ctx, "ana@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := s.UserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSQLite_LedgerFlow(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := createUser(t, s, "flow@example.com")
	svc := engagement.NewService(s)

	d1 := time.Date(2025, time.April, 1, 8, 15, 0, 0, time.UTC)
	first, err := svc.CreateEntryAt(ctx, u.ID, strings.Repeat("x", 600), nil, d1)
	require.NoError(t, err)
	assert.Equal(t, 8, first.PointsEarned)

	mood := "tired"
	second, err := svc.CreateEntryAt(ctx, u.ID, strings.Repeat("y", 1200), &mood, d1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 13, second.PointsEarned)

	l, err := svc.GetStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, l.CurrentStreak)
	assert.Equal(t, 2, l.LongestStreak)
	assert.Equal(t, 2, l.TotalEntries)
	assert.Equal(t, 21, l.TotalPoints)
	require.NotNil(t, l.LastEntryDate)
	assert.True(t, l.LastEntryDate.Equal(second.Entry.CreatedAt))

	entries, err := svc.ListEntries(ctx, u.ID, engagement.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.Entry.ID, entries[0].ID)
	require.NotNil(t, entries[0].Mood)
	assert.Equal(t, "tired", *entries[0].Mood)
	assert.Nil(t, entries[1].Mood)

	require.NoError(t, svc.DeleteEntry(ctx, u.ID, second.Entry.ID))
	l, err = svc.GetStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, l.TotalEntries)
	assert.Equal(t, 8, l.TotalPoints)
	assert.Equal(t, 2, l.CurrentStreak)

	assert.ErrorIs(t, svc.DeleteEntry(ctx, u.ID, second.Entry.ID), engagement.ErrNotFound)
}

func TestSQLite_EntriesAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := createUser(t, s, "owner@example.com")
	other := createUser(t, s, "other@example.com")
	svc := engagement.NewService(s)

	res, err := svc.CreateEntryAt(ctx, owner.ID, "private", nil, time.Now())
	require.NoError(t, err)

	_, err = svc.UpdateEntry(ctx, other.ID, res.Entry.ID, "hijack", nil)
	assert.ErrorIs(t, err, engagement.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteEntry(ctx, other.ID, res.Entry.ID), engagement.ErrNotFound)

	list, err := svc.ListEntries(ctx, other.ID, engagement.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLite_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := createUser(t, s, "rollback@example.com")

	now := time.Now().UTC()
	err := s.WithUserTx(ctx, u.ID, func(tx engagement.UserTx) error {
		if err := tx.InsertEntry(ctx, models.JournalEntry{ID: "e1", Content: "c", CreatedAt: now, UpdatedAt: now, PointsEarned: 5}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	assert.EqualError(t, err, "abort")

	list, err := s.ListEntries(ctx, u.ID, engagement.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLite_ListWindow(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := createUser(t, s, "window@example.com")
	svc := engagement.NewService(s)

	base := time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := svc.CreateEntryAt(ctx, u.ID, fmt.Sprintf("entry %d", i), nil, base.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	got, err := svc.ListEntries(ctx, u.ID, engagement.ListOptions{
		Since: base.AddDate(0, 0, 1),
		Until: base.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "entry 2", got[0].Content)
	assert.Equal(t, "entry 1", got[1].Content)
}

func TestSQLite_SealedContent(t *testing.T) {
	ctx := context.Background()
	sealer, err := crypto.NewSealer([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	s := newSQLiteStore(t, WithSealer(sealer))
	u := createUser(t, s, "sealed@example.com")
	svc := engagement.NewService(s)

	res, err := svc.CreateEntryAt(ctx, u.ID, "dear diary", nil, time.Now())
	require.NoError(t, err)

	var stored string
	require.NoError(t, s.db.GetContext(ctx, &stored, `SELECT content FROM journal_entries WHERE id = ?`, res.Entry.ID))
	assert.NotEqual(t, "dear diary", stored)

	list, err := svc.ListEntries(ctx, u.ID, engagement.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dear diary", list[0].Content)

	updated, err := svc.UpdateEntry(ctx, u.ID, res.Entry.ID, "edited", nil)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

func TestSQLite_EnsureLedgerIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := createUser(t, s, "idem@example.com")

	first, err := s.EnsureLedger(ctx, u.ID)
	require.NoError(t, err)
	second, err := s.EnsureLedger(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Nil(t, first.LastEntryDate)

	var rows int
	require.NoError(t, s.db.GetContext(ctx, &rows, `SELECT COUNT(*) FROM engagement_ledgers WHERE user_id = ?`, u.ID))
	assert.Equal(t, 1, rows)
}

func TestSQLite_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := createUser(t, s, "busy@example.com")
	svc := engagement.NewService(s)
	const n = 20

	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateEntryAt(ctx, u.ID, fmt.Sprintf("entry %d", i), nil, now)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	l, err := svc.GetStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, n, l.TotalEntries)
	assert.Equal(t, n*engagement.BasePoints, l.TotalPoints)
	assert.Equal(t, 1, l.CurrentStreak)
}
