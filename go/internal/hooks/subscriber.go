package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Request is the payload the CRDT host sends on every hook subject
type Request struct {
	DocumentName string `json:"document_name"`
	UserID       string `json:"user_id,omitempty"`
	State        []byte `json:"state,omitempty"` // base64 in JSON
}

// Reply is returned to the CRDT host
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Found bool   `json:"found,omitempty"`
	State []byte `json:"state,omitempty"`
}

// SubscriberConfig holds the hook subjects
type SubscriberConfig struct {
	SubjectPrefix  string
	QueueGroup     string
	RequestTimeout time.Duration
}

// DefaultSubscriberConfig returns default hook subjects
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		SubjectPrefix:  "collab.hooks",
		QueueGroup:     "corkboard-hooks",
		RequestTimeout: 10 * time.Second,
	}
}

type hookFunc func(ctx context.Context, req Request) Reply

// Subscriber serves hook requests over NATS request/reply
type Subscriber struct {
	nc     *nats.Conn
	hooks  *Hooks
	config SubscriberConfig
	routes map[string]hookFunc
	subs   []*nats.Subscription
}

// NewSubscriber creates a hook subscriber
func NewSubscriber(nc *nats.Conn, hooks *Hooks, config SubscriberConfig) *Subscriber {
	s := &Subscriber{nc: nc, hooks: hooks, config: config}
	s.routes = map[string]hookFunc{
		"connect":    s.connect,
		"disconnect": s.disconnect,
		"load":       s.load,
		"store":      s.store,
	}
	return s
}

// Start subscribes to every hook subject and blocks until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	for name := range s.routes {
		subject := fmt.Sprintf("%s.%s", s.config.SubjectPrefix, name)
		hook := name
		sub, err := s.nc.QueueSubscribe(subject, s.config.QueueGroup, func(msg *nats.Msg) {
			reqCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
			defer cancel()

			if err := msg.Respond(s.Dispatch(reqCtx, hook, msg.Data)); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to respond to hook request")
			}
		})
		if err != nil {
			s.unsubscribe()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}

	log.Info().Str("prefix", s.config.SubjectPrefix).Msg("hook subscriber started")

	<-ctx.Done()
	s.unsubscribe()
	log.Info().Msg("hook subscriber stopped")
	return nil
}

// Dispatch decodes a request for the named hook and encodes its reply
func (s *Subscriber) Dispatch(ctx context.Context, hook string, data []byte) []byte {
	reply := s.dispatch(ctx, hook, data)
	out, err := json.Marshal(reply)
	if err != nil {
		log.Error().Err(err).Str("hook", hook).Msg("failed to marshal hook reply")
		return []byte(`{"ok":false,"error":"internal error"}`)
	}
	return out
}

func (s *Subscriber) dispatch(ctx context.Context, hook string, data []byte) Reply {
	fn, ok := s.routes[hook]
	if !ok {
		return Reply{Error: fmt.Sprintf("unknown hook %q", hook)}
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Reply{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	return fn(ctx, req)
}

func (s *Subscriber) connect(ctx context.Context, req Request) Reply {
	return result(s.hooks.OnConnect(ctx, req.UserID, req.DocumentName))
}

func (s *Subscriber) disconnect(ctx context.Context, req Request) Reply {
	return result(s.hooks.OnDisconnect(ctx, req.UserID, req.DocumentName))
}

func (s *Subscriber) load(ctx context.Context, req Request) Reply {
	state, found, err := s.hooks.OnLoadDocument(ctx, req.DocumentName)
	if err != nil {
		return result(err)
	}
	return Reply{OK: true, Found: found, State: state}
}

func (s *Subscriber) store(ctx context.Context, req Request) Reply {
	return result(s.hooks.OnStoreDocument(ctx, req.DocumentName, req.State))
}

func (s *Subscriber) unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Str("subject", sub.Subject).Msg("failed to unsubscribe")
		}
	}
	s.subs = nil
}

func result(err error) Reply {
	if err != nil {
		log.Error().Err(err).Msg("hook failed")
		return Reply{Error: err.Error()}
	}
	return Reply{OK: true}
}
