package service

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/pkg/api"
)

// JobsHandler lets an external scheduler trigger batch jobs over HTTP.
type JobsHandler struct {
	ledger *ledger.Ledger
	token  string
}

// NewJobsHandler creates a handler that accepts requests bearing token.
// An empty token disables the endpoints.
func NewJobsHandler(l *ledger.Ledger, token string) *JobsHandler {
	return &JobsHandler{ledger: l, token: token}
}

// Register adds the job routes to r.
func (h *JobsHandler) Register(r *mux.Router) {
	r.HandleFunc("/jobs/close-month", h.CloseMonth).Methods(http.MethodPost)
}

func (h *JobsHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

// CloseMonth closes ?month=YYYY-MM (default: the previous month) for every
// active user and reports the counts.
func (h *JobsHandler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	month, err := monthOr(r.URL.Query().Get("month"), h.ledger.CurrentMonth().Prev())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.ledger.CloseAll(r.Context(), month)
	if err != nil {
		slog.Error("Close-month job failed", "month", month.String(), "error", err)
		http.Error(w, "close month failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.CloseMonthJobResponse{
		Month:   month.String(),
		Created: stats.Created,
		Updated: stats.Updated,
		Skipped: stats.Skipped,
		Failed:  stats.Failed,
	})
}
