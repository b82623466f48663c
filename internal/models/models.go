package models

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// JournalEntry is immutable after creation except for Content, Mood and UpdatedAt.
type JournalEntry struct {
	ID           string    `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Content      string    `db:"content" json:"content"` // Encrypted in DB when a key is configured
	Mood         *string   `db:"mood" json:"mood,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	PointsEarned int       `db:"points_earned" json:"points_earned"`
}

// EngagementLedger is the one-row-per-user running aggregate of entries, points and streak.
type EngagementLedger struct {
	UserID        int64      `db:"user_id" json:"user_id"`
	CurrentStreak int        `db:"current_streak" json:"current_streak"`
	LongestStreak int        `db:"longest_streak" json:"longest_streak"`
	TotalEntries  int        `db:"total_entries" json:"total_entries"`
	TotalPoints   int        `db:"total_points" json:"total_points"`
	LastEntryDate *time.Time `db:"last_entry_date" json:"last_entry_date,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
