package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/corkboard/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// TimerPath serves both the timer socket and its status endpoint
const TimerPath = "/timer"

// StatusResponse is the body of the timer status endpoint
type StatusResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

// StateProvider exposes the current countdown
type StateProvider interface {
	Snapshot() timer.Snapshot
}

// WebSocketHandler handles timer socket upgrades and introspection requests
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stateProvider     StateProvider
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, stateProvider StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		stateProvider:     stateProvider,
	}
}

// HandleTimer upgrades socket requests and answers plain requests with the service status
func (h *WebSocketHandler) HandleTimer(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		// The upgrader has already written an error response on failure
		if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
			log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
		}
		return
	}

	h.HandleStatus(w, r)
}

// HandleStatus reports service health and the live connection count
func (h *WebSocketHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Clients: h.connectionManager.Count(),
	})
}

// HandleState returns the current countdown snapshot
func (h *WebSocketHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.stateProvider.Snapshot())
}

// RegisterRoutes registers timer routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(TimerPath, h.HandleTimer)
	mux.HandleFunc(TimerPath+"/state", h.HandleState)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
