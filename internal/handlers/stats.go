package handlers

import (
	"net/http"

	"journalledger/internal/engagement"
)

type StatsHandler struct {
	svc *engagement.Service
}

func NewStatsHandler(svc *engagement.Service) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// Get returns the caller's ledger plus whether today already has an entry.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(view))
}
