package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ReadyPath serves the readiness report
const ReadyPath = "/health/ready"

// Status is the readiness report
type Status struct {
	Healthy           bool     `json:"healthy"`
	DatabaseConnected bool     `json:"database_connected"`
	NATSConnected     bool     `json:"nats_connected"`
	NATSEnabled       bool     `json:"nats_enabled"`
	TimerClients      int      `json:"timer_clients"`
	Errors            []string `json:"errors"`
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type ConnectionStatus interface {
	IsConnected() bool
}

type ClientCounter interface {
	Clients() int
}

// Checker reports on the service's dependencies. A nil NATS status means
// the bridge is disabled, which does not make the service unhealthy.
type Checker struct {
	db      Pinger
	nats    ConnectionStatus
	timer   ClientCounter
	timeout time.Duration
}

func NewChecker(db Pinger, nats ConnectionStatus, timer ClientCounter) *Checker {
	return &Checker{
		db:      db,
		nats:    nats,
		timer:   timer,
		timeout: 5 * time.Second,
	}
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Errors:  []string{},
	}

	// Check database connection
	if err := c.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	// Check NATS connection
	if c.nats != nil {
		status.NATSEnabled = true
		status.NATSConnected = c.nats.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if c.timer != nil {
		status.TimerClients = c.timer.Clients()
	}

	return status
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	status := c.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
