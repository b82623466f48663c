package sqlstore

import (
	"context"
	"fmt"

	"journalledger/internal/engagement"
	"journalledger/internal/models"
)

// ListEntries returns the user's entries inside opts, newest first.
func (s *Store) ListEntries(ctx context.Context, userID int64, opts engagement.ListOptions) ([]models.JournalEntry, error) {
	where := "WHERE user_id = ?"
	args := []interface{}{userID}
	if !opts.Since.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if !opts.Until.IsZero() {
		where += " AND created_at < ?"
		args = append(args, opts.Until.UTC())
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = engagement.DefaultListLimit
	}
	args = append(args, limit)

	query := s.db.Rebind("SELECT " + entryColumns + " FROM journal_entries " + where +
		" ORDER BY created_at DESC, id DESC LIMIT ?")
	var rows []models.JournalEntry
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	out := make([]models.JournalEntry, 0, len(rows))
	for _, e := range rows {
		decoded, err := s.decodeEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func (s *Store) decodeEntry(e models.JournalEntry) (models.JournalEntry, error) {
	content, err := s.open(e.Content)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("open content of entry %s: %w", e.ID, err)
	}
	e.Content = content
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}
