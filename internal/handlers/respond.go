package handlers

import (
	"encoding/json"
	"net/http"

	"journalledger/internal/engagement"
	mw "journalledger/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps ledger errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case engagement.IsClientError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case engagement.IsNotFound(err):
		http.Error(w, "not found", http.StatusNotFound)
	case engagement.IsRetryable(err):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := mw.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}
