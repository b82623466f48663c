package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalledger/internal/engagement"
	"journalledger/internal/models"
)

func entryAt(id string, userID int64, t time.Time) models.JournalEntry {
	return models.JournalEntry{ID: id, UserID: userID, Content: id, CreatedAt: t, UpdatedAt: t, PointsEarned: 5}
}

func TestWithUserTx_RollbackDropsStagedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithUserTx(ctx, 1, func(tx engagement.UserTx) error {
		require.NoError(t, tx.InsertEntry(ctx, entryAt("a", 1, time.Now())))
		require.NoError(t, tx.SaveLedger(ctx, models.EngagementLedger{TotalEntries: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.EntryCount(1))
	assert.Equal(t, 0, s.LedgerCount())
}

func TestWithUserTx_CommitAppliesWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithUserTx(ctx, 1, func(tx engagement.UserTx) error {
		if err := tx.InsertEntry(ctx, entryAt("a", 1, time.Now())); err != nil {
			return err
		}
		// Staged entries are visible inside the same unit of work.
		got, err := tx.GetEntry(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "a", got.Content)
		return tx.SaveLedger(ctx, models.EngagementLedger{TotalEntries: 1, TotalPoints: 5})
	})
	require.NoError(t, err)

	l, err := s.EnsureLedger(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.UserID)
	assert.Equal(t, 1, l.TotalEntries)
	assert.Equal(t, 1, s.EntryCount(1))
}

func TestWithUserTx_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	called := false
	err := s.WithUserTx(ctx, 1, func(engagement.UserTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, 0, s.LedgerCount())
}

func TestUserTx_OwnershipAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.WithUserTx(ctx, 1, func(tx engagement.UserTx) error {
		return tx.InsertEntry(ctx, entryAt("a", 1, time.Now()))
	}))

	err := s.WithUserTx(ctx, 2, func(tx engagement.UserTx) error {
		_, err := tx.GetEntry(ctx, "a")
		return err
	})
	assert.ErrorIs(t, err, engagement.ErrNotFound)

	err = s.WithUserTx(ctx, 1, func(tx engagement.UserTx) error {
		if err := tx.DeleteEntry(ctx, "a"); err != nil {
			return err
		}
		_, err := tx.GetEntry(ctx, "a")
		assert.ErrorIs(t, err, engagement.ErrNotFound)
		return tx.DeleteEntry(ctx, "a")
	})
	assert.ErrorIs(t, err, engagement.ErrNotFound)
	assert.Equal(t, 1, s.EntryCount(1), "failed unit of work leaves the entry in place")
}

func TestListEntries_OrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.WithUserTx(ctx, 1, func(tx engagement.UserTx) error {
		for i, id := range []string{"a", "b", "c"} {
			if err := tx.InsertEntry(ctx, entryAt(id, 1, base.Add(time.Duration(i)*time.Hour))); err != nil {
				return err
			}
		}
		// Same instant as "c"; ties break on id descending.
		return tx.InsertEntry(ctx, entryAt("d", 1, base.Add(2*time.Hour)))
	}))

	got, err := s.ListEntries(ctx, 1, engagement.ListOptions{})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids)

	got, err = s.ListEntries(ctx, 1, engagement.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d", got[0].ID)

	got, err = s.ListEntries(ctx, 2, engagement.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
