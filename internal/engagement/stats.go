package engagement

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"journalledger/internal/models"
)

// GetStats returns the user's ledger, creating a zeroed one on first read.
// Concurrent loads for the same user share one store round trip.
func (s *Service) GetStats(ctx context.Context, userID int64) (models.EngagementLedger, error) {
	if s.cache != nil {
		ledger, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if ok {
			return ledger, nil
		}
	}

	gen := s.generation(userID)
	seen := gen.Load()
	key := strconv.FormatInt(userID, 10) + ":" + strconv.FormatUint(seen, 10)
	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		// Shared by every caller in the flight; one caller leaving must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		ledger, err := s.store.EnsureLedger(loadCtx, userID)
		if err != nil {
			return nil, err
		}
		s.fill(loadCtx, gen, seen, ledger)
		return ledger, nil
	})
	if err != nil {
		return models.EngagementLedger{}, s.storageError("get stats", userID, err)
	}
	return v.(models.EngagementLedger), nil
}

// fill caches a ledger loaded at generation seen. A write that committed
// during the load has bumped the generation, so the load is dropped; a write
// that lands between the check and Set is undone by a second invalidation.
func (s *Service) fill(ctx context.Context, gen *atomic.Uint64, seen uint64, ledger models.EngagementLedger) {
	if s.cache == nil || gen.Load() != seen {
		return
	}
	if err := s.cache.Set(ctx, ledger); err != nil {
		s.logger.Warn("stats cache write failed", zap.Int64("user_id", ledger.UserID), zap.Error(err))
		return
	}
	if gen.Load() != seen {
		s.dropCached(ctx, ledger.UserID)
	}
}

func (s *Service) generation(userID int64) *atomic.Uint64 {
	g, _ := s.gens.LoadOrStore(userID, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// invalidate drops the cached ledger after a commit. The generation is bumped
// first so in-flight loads see the write. The commit already happened, so a
// cache failure here is logged and not returned.
func (s *Service) invalidate(ctx context.Context, userID int64) {
	s.generation(userID).Add(1)
	s.dropCached(ctx, userID)
}

func (s *Service) dropCached(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// StatsView is a ledger read at a given instant.
type StatsView struct {
	Ledger        models.EngagementLedger
	HasTodayEntry bool
	// StreakActive is false once a full calendar day has passed without an
	// entry; the stored CurrentStreak is only reset by the next entry.
	StreakActive bool
}

// Stats is GetStats projected at the clock's current instant.
func (s *Service) Stats(ctx context.Context, userID int64) (StatsView, error) {
	ledger, err := s.GetStats(ctx, userID)
	if err != nil {
		return StatsView{}, err
	}
	return ProjectStats(ledger, s.clock.Now(), s.loc), nil
}

func ProjectStats(ledger models.EngagementLedger, now time.Time, loc *time.Location) StatsView {
	v := StatsView{Ledger: ledger}
	if ledger.LastEntryDate == nil {
		return v
	}
	days := CalendarDaysBetween(*ledger.LastEntryDate, now, loc)
	v.HasTodayEntry = days == 0
	v.StreakActive = ledger.CurrentStreak > 0 && days >= 0 && days <= 1
	return v
}
