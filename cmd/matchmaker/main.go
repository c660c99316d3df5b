package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/IdanG7/matchmaker-platform/internal/app/matchmaker"
	"github.com/IdanG7/matchmaker-platform/internal/matchmaking"
	"github.com/IdanG7/matchmaker-platform/internal/transport"
	"github.com/IdanG7/matchmaker-platform/pkg/logging"
)

func main() {
	defer logging.Sync()

	cfg, err := matchmaker.LoadConfig()
	if err != nil {
		logging.Fatal("failed to load config", zap.Error(err))
	}

	engine, err := matchmaking.NewEngine(cfg.Engine)
	if err != nil {
		logging.Fatal("invalid engine config", zap.Error(err))
	}

	client, err := transport.Connect(transport.Config{
		URL:               cfg.NatsURL,
		QueueSubject:      cfg.QueueSubject,
		MatchFoundSubject: cfg.MatchFoundSubject,
	})
	if err != nil {
		logging.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer client.Close()

	service := matchmaker.NewService(cfg, engine, client)
	if err := client.SubscribeQueueEvents(cfg.QueueSubject, service.HandleQueueEvent); err != nil {
		logging.Fatal("failed to subscribe to queue events", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("matchmaker service running",
		zap.String("queue_subject", cfg.QueueSubject),
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
	)
	if err := service.Run(ctx); err != nil {
		logging.Fatal("matchmaker service exited", zap.Error(err))
	}
	logging.Info("matchmaker service shutting down")
}
