// Package memory provides an in-process engagement.Store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"journalledger/internal/engagement"
	"journalledger/internal/models"
)

// Store keeps entries and ledgers in maps. Each user has its own mutex held
// for the length of WithUserTx; writes are staged and applied on commit.
type Store struct {
	mu      sync.RWMutex
	ledgers map[int64]models.EngagementLedger
	entries map[string]models.JournalEntry

	userLocks sync.Map // int64 -> *sync.Mutex
}

func New() *Store {
	return &Store{
		ledgers: make(map[int64]models.EngagementLedger),
		entries: make(map[string]models.JournalEntry),
	}
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *Store) WithUserTx(ctx context.Context, userID int64, fn func(engagement.UserTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	tx := &userTx{store: s, userID: userID}
	if err := fn(tx); err != nil {
		// Rollback: staged writes are dropped.
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) EnsureLedger(_ context.Context, userID int64) (models.EngagementLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		l = models.EngagementLedger{UserID: userID}
		s.ledgers[userID] = l
	}
	return copyLedger(l), nil
}

func (s *Store) ListEntries(_ context.Context, userID int64, opts engagement.ListOptions) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.UserID == userID && opts.Matches(e.CreatedAt) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// LedgerCount reports how many ledger rows exist.
func (s *Store) LedgerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ledgers)
}

// EntryCount reports how many entries the user owns.
func (s *Store) EntryCount(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

type userTx struct {
	store  *Store
	userID int64

	ledger  *models.EngagementLedger
	puts    map[string]models.JournalEntry
	deletes map[string]bool
}

func (tx *userTx) Ledger(context.Context) (models.EngagementLedger, error) {
	if tx.ledger != nil {
		return copyLedger(*tx.ledger), nil
	}
	tx.store.mu.RLock()
	l, ok := tx.store.ledgers[tx.userID]
	tx.store.mu.RUnlock()
	if !ok {
		l = models.EngagementLedger{UserID: tx.userID}
	}
	return copyLedger(l), nil
}

func (tx *userTx) SaveLedger(_ context.Context, l models.EngagementLedger) error {
	l = copyLedger(l)
	l.UserID = tx.userID
	tx.ledger = &l
	return nil
}

func (tx *userTx) GetEntry(_ context.Context, entryID string) (models.JournalEntry, error) {
	if tx.deletes[entryID] {
		return models.JournalEntry{}, engagement.ErrNotFound
	}
	if e, ok := tx.puts[entryID]; ok {
		return e, nil
	}
	tx.store.mu.RLock()
	e, ok := tx.store.entries[entryID]
	tx.store.mu.RUnlock()
	if !ok || e.UserID != tx.userID {
		return models.JournalEntry{}, engagement.ErrNotFound
	}
	return e, nil
}

func (tx *userTx) InsertEntry(_ context.Context, e models.JournalEntry) error {
	tx.stage(e)
	return nil
}

func (tx *userTx) UpdateEntry(ctx context.Context, e models.JournalEntry) error {
	if _, err := tx.GetEntry(ctx, e.ID); err != nil {
		return err
	}
	tx.stage(e)
	return nil
}

func (tx *userTx) DeleteEntry(ctx context.Context, entryID string) error {
	if _, err := tx.GetEntry(ctx, entryID); err != nil {
		return err
	}
	if tx.deletes == nil {
		tx.deletes = make(map[string]bool)
	}
	delete(tx.puts, entryID)
	tx.deletes[entryID] = true
	return nil
}

func (tx *userTx) stage(e models.JournalEntry) {
	if tx.puts == nil {
		tx.puts = make(map[string]models.JournalEntry)
	}
	e.UserID = tx.userID
	delete(tx.deletes, e.ID)
	tx.puts[e.ID] = e
}

func (tx *userTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range tx.deletes {
		delete(s.entries, id)
	}
	for id, e := range tx.puts {
		s.entries[id] = e
	}
	if tx.ledger != nil {
		s.ledgers[tx.userID] = *tx.ledger
	}
}

func copyLedger(l models.EngagementLedger) models.EngagementLedger {
	if l.LastEntryDate != nil {
		t := *l.LastEntryDate
		l.LastEntryDate = &t
	}
	return l
}
