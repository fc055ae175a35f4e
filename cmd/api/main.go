package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/storefront-mailer/internal/api"
	"github.com/illegalcall/storefront-mailer/internal/bootstrap"
	"github.com/illegalcall/storefront-mailer/internal/config"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize mail transport
	mailer, err := bootstrap.NewTransport(cfg, logger)
	if err != nil {
		logger.Error("Failed to create mail transport", "error", err)
		os.Exit(1)
	}
	dispatcher, err := bootstrap.NewDispatcher(cfg, mailer, logger)
	if err != nil {
		logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}
	logger.Info("✅ Mail transport ready", "transport", cfg.Mail.Transport)

	// Initialize subscriber storage
	store, clients, err := bootstrap.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize subscriber store", "error", err)
		os.Exit(1)
	}
	defer clients.Close()

	recorder, closeRecorder, err := bootstrap.NewRecorder(cfg, store, logger)
	if err != nil {
		logger.Error("Failed to initialize subscriber recorder", "error", err)
		os.Exit(1)
	}
	defer closeRecorder()

	// Create and start server
	server := api.NewServer(cfg, dispatcher, store, recorder, logger)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
