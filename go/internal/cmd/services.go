package main

import (
	"context"
	"database/sql"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/corkboard/go/clients/openrouter"
	"github.com/mcdev12/corkboard/go/internal/clustering"
	"github.com/mcdev12/corkboard/go/internal/documents"
	"github.com/mcdev12/corkboard/go/internal/gateway"
	"github.com/mcdev12/corkboard/go/internal/health"
	"github.com/mcdev12/corkboard/go/internal/hooks"
	"github.com/mcdev12/corkboard/go/internal/messaging"
	"github.com/mcdev12/corkboard/go/internal/presence"
	"github.com/mcdev12/corkboard/go/internal/votes"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Timer      *gateway.Service
	Presence   *presence.Handler
	Votes      *votes.Handler
	Clustering *clustering.Handler // nil without NATS
	Hooks      *hooks.Subscriber   // nil without NATS
	Health     *health.Checker
	NATS       *nats.Conn
}

func setupServices(ctx context.Context, config *Config, database *sql.DB) *Services {
	// Database layer → Repository layer → Handler layer

	// Timer gateway
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.TimerConfig.TickInterval = config.Timer.TickInterval
	timerService := gateway.NewService(gatewayConfig, clockwork.NewRealClock())

	// Presence, documents and votes
	documentRepo := documents.NewRepository(database)
	presenceRepo := presence.NewRepository(database)
	voteRepo := votes.NewRepository(database)

	services := &Services{
		Timer:    timerService,
		Presence: presence.NewHandler(presenceRepo),
		Votes:    votes.NewHandler(voteRepo, config.Votes.Threshold),
		Health:   health.NewChecker(database, nil, timerService),
	}

	// CRDT host boundary
	natsConfig := messaging.DefaultConfig()
	if config.NATS.URL != "" {
		natsConfig.URL = config.NATS.URL
	}
	nc, err := messaging.Connect(natsConfig)
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, document hooks and summarize disabled")
		return services
	}
	services.NATS = nc
	services.Health = health.NewChecker(database, nc, timerService)

	services.Hooks = hooks.NewSubscriber(nc, hooks.NewHooks(documentRepo, presenceRepo), hooks.DefaultSubscriberConfig())

	board, err := clustering.NewNATSBoard(ctx, nc, clustering.DefaultBoardConfig())
	if err != nil {
		log.Warn().Err(err).Msg("board bridge unavailable, summarize disabled")
		return services
	}
	if config.Clustering.APIKey == "" {
		log.Warn().Msg("OPENROUTER_API_ACCESS_TOKEN not set, summarize requests will be rejected upstream")
	}
	completer := openrouter.NewClient(config.Clustering.BaseURL, config.Clustering.APIKey, config.Clustering.Model)
	services.Clustering = clustering.NewHandler(clustering.NewService(board, completer))

	return services
}
