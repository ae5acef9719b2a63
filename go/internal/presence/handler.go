package presence

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Lister lists the users of a document
type Lister interface {
	ListUsers(ctx context.Context, documentName string) ([]User, error)
}

// Handler serves the presence REST endpoint
type Handler struct {
	users Lister
}

// NewHandler creates a new presence handler
func NewHandler(users Lister) *Handler {
	return &Handler{users: users}
}

// HandleListUsers handles GET /api/users?documentName=...
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	documentName := r.URL.Query().Get("documentName")
	if documentName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documentName query parameter is required"})
		return
	}

	users, err := h.users.ListUsers(r.Context(), documentName)
	if err != nil {
		log.Error().Err(err).Str("document", documentName).Msg("failed to list users")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list users"})
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// RegisterRoutes registers presence routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/users", h.HandleListUsers)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
