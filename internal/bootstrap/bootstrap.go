// Package bootstrap builds the shared components of every binary from config.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/illegalcall/storefront-mailer/internal/config"
	"github.com/illegalcall/storefront-mailer/internal/email"
	"github.com/illegalcall/storefront-mailer/internal/pkg/supabase"
	"github.com/illegalcall/storefront-mailer/internal/storage"
	"github.com/illegalcall/storefront-mailer/internal/subscriber"
	"github.com/illegalcall/storefront-mailer/internal/transport"
	"github.com/illegalcall/storefront-mailer/pkg/database"
	"github.com/illegalcall/storefront-mailer/pkg/kafka"
)

// NewLogger writes text in development and JSON in production.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func NewTransport(cfg *config.Config, logger *slog.Logger) (transport.Transport, error) {
	switch cfg.Mail.Transport {
	case "smtp":
		return transport.NewSMTP(cfg.SMTP, transport.WithLogger(logger))
	case "resend":
		return transport.NewResend(cfg.Resend, logger)
	case "dev":
		outbox, err := storage.NewLocalStorage(cfg.Dev.OutboxDir)
		if err != nil {
			return nil, err
		}
		return transport.NewDev(outbox, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown MAIL_TRANSPORT %q", config.ErrInvalidConfig, cfg.Mail.Transport)
	}
}

func NewDispatcher(cfg *config.Config, t transport.Transport, logger *slog.Logger) (*email.Dispatcher, error) {
	brand, err := email.BrandFromConfig(cfg.Mail, cfg.Brand)
	if err != nil {
		return nil, err
	}
	renderer, err := email.NewRenderer(brand)
	if err != nil {
		return nil, err
	}
	return email.NewDispatcher(t, renderer, email.WithLogger(logger)), nil
}

// NewStore opens the configured subscriber backend. The store is nil for
// the "none" backend. The returned Clients hold whatever connections the
// backend opened and are never nil.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (subscriber.Store, *database.Clients, error) {
	clients := &database.Clients{}

	switch cfg.Subscribers.Backend {
	case "postgres":
		db, err := database.ConnectPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		clients.DB = db
		if err := database.CreateSubscribersTable(ctx, db); err != nil {
			clients.Close()
			return nil, nil, err
		}
		logger.Info("✅ Connected to Postgres")
		return subscriber.NewPostgres(db), clients, nil

	case "redis":
		client, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		clients.Redis = client
		logger.Info("✅ Connected to Redis")
		return subscriber.NewRedis(client), clients, nil

	case "supabase":
		client, err := supabase.NewRestClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey, logger)
		if err != nil {
			return nil, nil, err
		}
		return subscriber.NewSupabase(client, cfg.Supabase.Table), clients, nil

	case "none":
		logger.Warn("Subscriber storage disabled; newsletter signups will not be recorded")
		return nil, clients, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown SUBSCRIBER_BACKEND %q", config.ErrInvalidConfig, cfg.Subscribers.Backend)
	}
}

// NewRecorder picks how newsletter signups reach the store.
func NewRecorder(cfg *config.Config, store subscriber.Store, logger *slog.Logger) (subscriber.Recorder, func(), error) {
	switch cfg.Subscribers.Recorder {
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka producer: %w", err)
		}
		logger.Info("✅ Connected to Kafka")
		return subscriber.NewKafkaRecorder(producer, cfg.Kafka.Topic, logger), func() { producer.Close() }, nil

	case "direct":
		if store == nil {
			return subscriber.NopRecorder{}, func() {}, nil
		}
		return subscriber.NewStoreRecorder(store), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown SUBSCRIBER_RECORDER %q", config.ErrInvalidConfig, cfg.Subscribers.Recorder)
	}
}
