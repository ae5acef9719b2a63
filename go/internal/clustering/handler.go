package clustering

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/corkboard/go/clients"
	"github.com/mcdev12/corkboard/go/clients/openrouter"
	"github.com/rs/zerolog/log"
)

// Handler serves the grouping endpoint
type Handler struct {
	service *Service
}

// NewHandler creates a new clustering handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type groupsResponse struct {
	Groups       [][]string `json:"groups"`
	Repositioned bool       `json:"repositioned"`
}

type upstreamErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// HandleSummarize handles /summarize?document=...
func (h *Handler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	documentName := r.URL.Query().Get("document")
	if documentName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document query parameter is required"})
		return
	}

	result, err := h.service.Summarize(r.Context(), documentName)
	if err != nil {
		h.writeError(w, documentName, err)
		return
	}

	switch {
	case result.Repositioned:
		writeJSON(w, http.StatusOK, groupsResponse{Groups: result.Groups, Repositioned: true})
	case result.Parsed != nil:
		writeJSON(w, http.StatusOK, result.Parsed)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"raw": result.Raw})
	}
}

func (h *Handler) writeError(w http.ResponseWriter, documentName string, err error) {
	var statusErr *clients.StatusError

	switch {
	case errors.Is(err, ErrBoardNotLoaded):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": ErrBoardNotLoaded.Error()})
	case errors.As(err, &statusErr):
		log.Error().Err(err).Str("document", documentName).Int("status", statusErr.StatusCode).Msg("OpenRouter request failed")
		writeJSON(w, http.StatusBadGateway, upstreamErrorResponse{Error: "OpenRouter request failed", Status: statusErr.StatusCode})
	case errors.Is(err, openrouter.ErrEmptyCompletion):
		log.Error().Err(err).Str("document", documentName).Msg("no content in OpenRouter response")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "No result found in LLM response"})
	default:
		log.Error().Err(err).Str("document", documentName).Msg("failed to summarize document")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to summarize document"})
	}
}

// RegisterRoutes registers clustering routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/summarize", h.HandleSummarize)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
