package engagement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"journalledger/internal/models"
)

// Service applies journal entry changes to the per-user engagement ledger.
type Service struct {
	store   Store
	clock   Clock
	loc     *time.Location
	cache   StatsCache
	logger  *zap.Logger
	metrics *Metrics
	newID   func() string

	loads singleflight.Group
	gens  sync.Map // int64 -> *atomic.Uint64, bumped on every committed write
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithLocation sets the time zone that anchors calendar-day boundaries.
func WithLocation(loc *time.Location) Option { return func(s *Service) { s.loc = loc } }

func WithStatsCache(c StatsCache) Option { return func(s *Service) { s.cache = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

func WithMetrics(m *Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithIDGenerator(fn func() string) Option { return func(s *Service) { s.newID = fn } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  SystemClock{},
		loc:    time.UTC,
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

// Location is the zone used for calendar-day comparisons.
func (s *Service) Location() *time.Location { return s.loc }

type CreateResult struct {
	Entry           models.JournalEntry
	PointsEarned    int
	StreakIncreased bool
	Transition      Transition
	Ledger          models.EngagementLedger
}

// CreateEntry records a new entry at the clock's current instant.
func (s *Service) CreateEntry(ctx context.Context, userID int64, content string, mood *string) (CreateResult, error) {
	return s.CreateEntryAt(ctx, userID, content, mood, s.clock.Now())
}

// CreateEntryAt records a new entry created at now and folds it into the
// user's ledger in a single transaction.
func (s *Service) CreateEntryAt(ctx context.Context, userID int64, content string, mood *string, now time.Time) (CreateResult, error) {
	content, mood, err := normalizeEntry(content, mood)
	if err != nil {
		return CreateResult{}, err
	}
	// Stores keep microseconds; truncate so LastEntryDate round-trips equal to CreatedAt.
	now = now.UTC().Truncate(time.Microsecond)

	var res CreateResult
	start := time.Now()
	err = s.store.WithUserTx(ctx, userID, func(tx UserTx) error {
		ledger, err := tx.Ledger(ctx)
		if err != nil {
			return err
		}

		streak := NextStreak(ledger.LastEntryDate, ledger.CurrentStreak, now, s.loc)
		points := PointsFor(ContentLength(content), streak.StreakBonus)

		entry := models.JournalEntry{
			ID:           s.newID(),
			UserID:       userID,
			Content:      content,
			Mood:         mood,
			CreatedAt:    now,
			UpdatedAt:    now,
			PointsEarned: points,
		}
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}

		lastEntry := now
		ledger.UserID = userID
		ledger.CurrentStreak = streak.NewStreak
		ledger.LongestStreak = max(ledger.LongestStreak, streak.NewStreak)
		ledger.TotalEntries++
		ledger.TotalPoints += points
		ledger.LastEntryDate = &lastEntry
		ledger.UpdatedAt = now
		if err := tx.SaveLedger(ctx, ledger); err != nil {
			return err
		}

		res = CreateResult{
			Entry:           entry,
			PointsEarned:    points,
			StreakIncreased: streak.StreakIncreased,
			Transition:      streak.Transition,
			Ledger:          ledger,
		}
		return nil
	})
	s.metrics.observeCommit("create", start)
	if err != nil {
		return CreateResult{}, s.storageError("create entry", userID, err)
	}

	s.metrics.observeCreate(res.PointsEarned, res.Transition)
	s.invalidate(ctx, userID)
	return res, nil
}

// DeleteEntry removes an entry and subtracts its stored points from the ledger.
// Streak fields and LastEntryDate are left as they are.
func (s *Service) DeleteEntry(ctx context.Context, userID int64, entryID string) error {
	start := time.Now()
	var clamps []*ConsistencyError
	err := s.store.WithUserTx(ctx, userID, func(tx UserTx) error {
		clamps = clamps[:0]

		// Lock the ledger before reading the entry so concurrent deletes of the
		// same entry serialize on the ledger row.
		ledger, err := tx.Ledger(ctx)
		if err != nil {
			return err
		}
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, entry.ID); err != nil {
			return err
		}

		var clamp *ConsistencyError
		ledger.TotalEntries, clamp = decrementFloor(userID, "total_entries", ledger.TotalEntries, 1)
		if clamp != nil {
			clamps = append(clamps, clamp)
		}
		ledger.TotalPoints, clamp = decrementFloor(userID, "total_points", ledger.TotalPoints, entry.PointsEarned)
		if clamp != nil {
			clamps = append(clamps, clamp)
		}
		ledger.UpdatedAt = s.clock.Now().UTC().Truncate(time.Microsecond)
		return tx.SaveLedger(ctx, ledger)
	})
	s.metrics.observeCommit("delete", start)
	if err != nil {
		return s.storageError("delete entry", userID, err)
	}

	for _, c := range clamps {
		s.metrics.observeClamp(c.Field)
		s.logger.Warn("ledger counter clamped at zero",
			zap.Int64("user_id", c.UserID),
			zap.String("entry_id", entryID),
			zap.Error(c),
		)
	}
	s.metrics.observeDelete()
	s.invalidate(ctx, userID)
	return nil
}

// UpdateEntry replaces content and mood. CreatedAt, PointsEarned and the
// ledger are unchanged.
func (s *Service) UpdateEntry(ctx context.Context, userID int64, entryID, content string, mood *string) (models.JournalEntry, error) {
	content, mood, err := normalizeEntry(content, mood)
	if err != nil {
		return models.JournalEntry{}, err
	}

	var updated models.JournalEntry
	err = s.store.WithUserTx(ctx, userID, func(tx UserTx) error {
		entry, err := tx.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		entry.Content = content
		entry.Mood = mood
		entry.UpdatedAt = s.clock.Now().UTC().Truncate(time.Microsecond)
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return models.JournalEntry{}, s.storageError("update entry", userID, err)
	}
	return updated, nil
}

// ListEntries returns the user's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, userID int64, opts ListOptions) ([]models.JournalEntry, error) {
	entries, err := s.store.ListEntries(ctx, userID, opts.normalized())
	if err != nil {
		return nil, s.storageError("list entries", userID, err)
	}
	return entries, nil
}

func decrementFloor(userID int64, field string, have, by int) (int, *ConsistencyError) {
	if have-by >= 0 {
		return have - by, nil
	}
	return 0, &ConsistencyError{UserID: userID, Field: field, Have: have, Decrement: by}
}

// storageError passes domain errors through and wraps everything else.
func (s *Service) storageError(op string, userID int64, err error) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	s.metrics.observeStorageError(op)
	s.logger.Error("ledger store failure",
		zap.String("op", op),
		zap.Int64("user_id", userID),
		zap.Error(err),
	)
	return &StorageError{Op: op, Err: err}
}
