package votes

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// DefaultThreshold is the vote count at which the gate closes
const DefaultThreshold = 3

// Counter increments a document's vote counter
type Counter interface {
	IncrementVote(ctx context.Context, documentName, userID string) (int, error)
}

// CountResponse reports the vote total after the increment
type CountResponse struct {
	Count int `json:"count"`
}

// Handler serves the vote gate
type Handler struct {
	counter   Counter
	threshold int
}

// NewHandler creates a vote handler. A non-positive threshold uses DefaultThreshold.
func NewHandler(counter Counter, threshold int) *Handler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Handler{counter: counter, threshold: threshold}
}

// HandleVote handles /vote?document=...&user=...
// Below the threshold the vote is accepted (202); at or above it the gate refuses (401).
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	documentName := r.URL.Query().Get("document")
	userID := r.URL.Query().Get("user")
	if documentName == "" || userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document and user query parameters are required"})
		return
	}

	count, err := h.counter.IncrementVote(r.Context(), documentName, userID)
	if err != nil {
		log.Error().Err(err).Str("document", documentName).Str("user_id", userID).Msg("failed to record vote")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record vote"})
		return
	}

	status := http.StatusAccepted
	if count >= h.threshold {
		status = http.StatusUnauthorized
	}

	log.Debug().
		Str("document", documentName).
		Str("user_id", userID).
		Int("count", count).
		Int("status", status).
		Msg("vote recorded")

	writeJSON(w, status, CountResponse{Count: count})
}

// RegisterRoutes registers vote routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/vote", h.HandleVote)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
