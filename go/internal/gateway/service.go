package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/corkboard/go/internal/timer"
	"github.com/rs/zerolog/log"
)

// Service wires the connection registry to the countdown coordinator.
// State lives in process memory, so only one instance may serve a deployment.
type Service struct {
	connectionManager *ConnectionManager
	coordinator       *timer.Coordinator
	wsHandler         *WebSocketHandler
}

// Config holds configuration for the timer gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	TimerConfig      timer.Config
}

// DefaultConfig returns default configuration for the timer gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		TimerConfig:      timer.DefaultConfig(),
	}
}

// NewService creates a new timer gateway service
func NewService(config Config, clock clockwork.Clock) *Service {
	var handler relayHandler
	connectionManager := NewConnectionManager(config.ConnectionConfig, &handler)
	coordinator := timer.NewCoordinator(clock, connectionManager, config.TimerConfig)
	handler.target = coordinator

	return &Service{
		connectionManager: connectionManager,
		coordinator:       coordinator,
		wsHandler:         NewWebSocketHandler(connectionManager, coordinator),
	}
}

// Start runs the connection manager and coordinator until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting timer gateway service")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.connectionManager.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		s.coordinator.Run(ctx)
	}()
	wg.Wait()

	log.Info().Msg("timer gateway service stopped")
	return nil
}

// RegisterRoutes registers the timer HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("timer gateway routes registered")
}

// Clients returns the live connection count
func (s *Service) Clients() int {
	return s.connectionManager.Count()
}

// relayHandler breaks the construction cycle between the registry and the coordinator
type relayHandler struct {
	target MessageHandler
}

func (r *relayHandler) HandleMessage(message []byte) {
	r.target.HandleMessage(message)
}
