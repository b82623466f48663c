package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"journalledger/internal/engagement"
)

type JournalHandler struct {
	svc *engagement.Service
}

func NewJournalHandler(svc *engagement.Service) *JournalHandler {
	return &JournalHandler{svc: svc}
}

type journalRequest struct {
	Content string  `json:"content"`
	Mood    *string `json:"mood"`
}

// Create records a new entry and returns the points it earned.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.CreateEntry(r.Context(), userID, req.Content, req.Mood)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createEntryResponse{
		Entry:           toEntryDTO(res.Entry),
		PointsEarned:    res.PointsEarned,
		StreakIncreased: res.StreakIncreased,
		CurrentStreak:   res.Ledger.CurrentStreak,
		TotalPoints:     res.Ledger.TotalPoints,
	})
}

// Update edits content and mood; points and the ledger are unchanged.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	entry, err := h.svc.UpdateEntry(r.Context(), userID, chi.URLParam(r, "id"), req.Content, req.Mood)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// Delete removes an entry owned by the authenticated user.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List accepts optional start_date, end_date (YYYY-MM-DD, inclusive, in the
// ledger's time zone) and limit.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	loc := h.svc.Location()

	var opts engagement.ListOptions
	if s := q.Get("start_date"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			http.Error(w, "invalid start_date format; expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		opts.Since = d
	}
	if s := q.Get("end_date"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			http.Error(w, "invalid end_date format; expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		opts.Until = d.AddDate(0, 0, 1)
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}

	entries, err := h.svc.ListEntries(r.Context(), userID, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}
