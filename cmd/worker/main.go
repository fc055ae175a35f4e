package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/illegalcall/storefront-mailer/internal/bootstrap"
	"github.com/illegalcall/storefront-mailer/internal/config"
	"github.com/illegalcall/storefront-mailer/internal/worker"
	"github.com/illegalcall/storefront-mailer/pkg/kafka"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize subscriber storage
	store, clients, err := bootstrap.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize subscriber store", "error", err)
		os.Exit(1)
	}
	defer clients.Close()
	if store == nil {
		logger.Error("The subscriber worker needs a SUBSCRIBER_BACKEND other than none")
		os.Exit(1)
	}

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		logger.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	logger.Info("✅ Connected to Kafka")

	// Create and start worker
	w := worker.NewWorker(cfg.Kafka, store, consumer, logger)
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
