package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	defaultTickInterval      = time.Second
	defaultCommandBufferSize = 64
)

var errInvalidTickInterval = errors.New("tick interval must be positive")

// Broadcaster fans a serialized event out to every connected client
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Config holds coordinator settings
type Config struct {
	TickInterval      time.Duration
	CommandBufferSize int
}

// DefaultConfig returns the production coordinator settings
func DefaultConfig() Config {
	return Config{
		TickInterval:      defaultTickInterval,
		CommandBufferSize: defaultCommandBufferSize,
	}
}

// State is the single shared countdown record.
// Active is true exactly while the coordinator owns a live ticker.
type State struct {
	Active         bool
	StartedAt      time.Time
	DurationMillis int64
}

// Snapshot is a point-in-time view of the countdown for introspection
type Snapshot struct {
	Active          bool       `json:"active"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	DurationMillis  int64      `json:"duration_ms"`
	RemainingMillis int64      `json:"remaining_ms"`
}

// Coordinator owns the countdown state machine. Commands and ticks are
// processed sequentially by Run, which is the only writer of the state.
type Coordinator struct {
	clock       clockwork.Clock
	broadcaster Broadcaster
	config      Config

	commands chan Command
	done     chan struct{}

	// mu guards state for readers outside the loop
	mu    sync.RWMutex
	state State

	// ticker is touched only by the loop goroutine
	ticker clockwork.Ticker
}

// NewCoordinator creates an idle coordinator. Zero config values fall back to defaults.
func NewCoordinator(clock clockwork.Clock, broadcaster Broadcaster, config Config) *Coordinator {
	if config.TickInterval == 0 {
		config.TickInterval = defaultTickInterval
	}
	if config.CommandBufferSize <= 0 {
		config.CommandBufferSize = defaultCommandBufferSize
	}

	return &Coordinator{
		clock:       clock,
		broadcaster: broadcaster,
		config:      config,
		commands:    make(chan Command, config.CommandBufferSize),
		done:        make(chan struct{}),
	}
}

// Run processes commands and ticks until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context) {
	log.Info().Dur("tick_interval", c.config.TickInterval).Msg("timer coordinator started")
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.cancelTick()
			log.Info().Msg("timer coordinator shutting down")
			return
		case cmd := <-c.commands:
			c.apply(cmd)
		case <-c.tickChan():
			c.tick()
		}
	}
}

// HandleMessage parses a raw client frame and queues it. Malformed frames are dropped.
func (c *Coordinator) HandleMessage(message []byte) {
	cmd, ok := ParseCommand(string(message))
	if !ok {
		log.Debug().Str("message", string(message)).Msg("ignoring unrecognized timer command")
		return
	}
	c.Submit(cmd)
}

// Submit queues a command for the loop. It returns without effect once Run has exited.
func (c *Coordinator) Submit(cmd Command) {
	select {
	case c.commands <- cmd:
	case <-c.done:
	}
}

// Snapshot returns the current countdown state
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Active:         c.state.Active,
		DurationMillis: c.state.DurationMillis,
	}
	if c.state.Active {
		startedAt := c.state.StartedAt
		snap.StartedAt = &startedAt
		// Between the deadline and the tick that reports done
		snap.RemainingMillis = max(c.remaining(c.state), 0)
	}
	return snap
}

func (c *Coordinator) apply(cmd Command) {
	switch cmd.Kind {
	case CommandStart:
		c.start(cmd.Duration)
	case CommandStop:
		c.stop()
	}
}

// start begins a countdown, superseding any running one
func (c *Coordinator) start(durationMillis int64) {
	restart := c.cancelTick()

	startedAt := c.clock.Now()
	ticker, err := c.schedule()
	if err != nil {
		log.Error().Err(err).Int64("duration_ms", durationMillis).Msg("failed to schedule countdown")
		return
	}
	c.ticker = ticker

	c.mu.Lock()
	c.state = State{Active: true, StartedAt: startedAt, DurationMillis: durationMillis}
	c.mu.Unlock()

	log.Info().
		Int64("duration_ms", durationMillis).
		Bool("restart", restart).
		Msg("countdown started")
}

// stop cancels any running countdown and always announces it
func (c *Coordinator) stop() {
	if c.cancelTick() {
		log.Info().Msg("countdown stopped")
	} else {
		log.Debug().Msg("stop received while idle")
	}
	c.broadcast(StopEvent())
}

func (c *Coordinator) tick() {
	c.mu.RLock()
	state := c.state
	c.mu.RUnlock()

	if !state.Active {
		return
	}

	remaining := c.remaining(state)
	if remaining > 0 {
		c.broadcast(ProgressEvent(remaining))
		return
	}

	c.cancelTick()
	log.Info().Int64("duration_ms", state.DurationMillis).Msg("countdown finished")
	c.broadcast(DoneEvent())
}

// remaining is recomputed from the wall clock so late ticks never accumulate drift
func (c *Coordinator) remaining(state State) int64 {
	elapsed := c.clock.Since(state.StartedAt).Milliseconds()
	return state.DurationMillis - elapsed
}

func (c *Coordinator) schedule() (clockwork.Ticker, error) {
	if c.config.TickInterval <= 0 {
		return nil, fmt.Errorf("schedule tick every %s: %w", c.config.TickInterval, errInvalidTickInterval)
	}
	return c.clock.NewTicker(c.config.TickInterval), nil
}

// cancelTick stops the live ticker, if any, and clears the active flag.
// It reports whether a countdown was running.
func (c *Coordinator) cancelTick() bool {
	if c.ticker == nil {
		return false
	}
	c.ticker.Stop()
	c.ticker = nil

	c.mu.Lock()
	c.state.Active = false
	c.mu.Unlock()
	return true
}

func (c *Coordinator) tickChan() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.Chan()
}

func (c *Coordinator) broadcast(event Event) {
	payload, err := event.Marshal()
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to marshal timer event")
		return
	}
	c.broadcaster.Broadcast(payload)
}
