package handlers

import (
	"time"

	"journalledger/internal/engagement"
	"journalledger/internal/models"
)

type entryDTO struct {
	ID           string  `json:"id"`
	Content      string  `json:"content"`
	Mood         *string `json:"mood,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	PointsEarned int     `json:"points_earned"`
}

func toEntryDTO(e models.JournalEntry) entryDTO {
	return entryDTO{
		ID:           e.ID,
		Content:      e.Content,
		Mood:         e.Mood,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.Format(time.RFC3339),
		PointsEarned: e.PointsEarned,
	}
}

type createEntryResponse struct {
	Entry           entryDTO `json:"entry"`
	PointsEarned    int      `json:"points_earned"`
	StreakIncreased bool     `json:"streak_increased"`
	CurrentStreak   int      `json:"current_streak"`
	TotalPoints     int      `json:"total_points"`
}

type statsDTO struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	TotalEntries  int     `json:"total_entries"`
	TotalPoints   int     `json:"total_points"`
	LastEntryDate *string `json:"last_entry_date,omitempty"`
	HasTodayEntry bool    `json:"has_today_entry"`
	StreakActive  bool    `json:"streak_active"`
}

func toDateTimeStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toStatsDTO(v engagement.StatsView) statsDTO {
	return statsDTO{
		CurrentStreak: v.Ledger.CurrentStreak,
		LongestStreak: v.Ledger.LongestStreak,
		TotalEntries:  v.Ledger.TotalEntries,
		TotalPoints:   v.Ledger.TotalPoints,
		LastEntryDate: toDateTimeStringPtr(v.Ledger.LastEntryDate),
		HasTodayEntry: v.HasTodayEntry,
		StreakActive:  v.StreakActive,
	}
}
