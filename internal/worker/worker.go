package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/storefront-mailer/internal/config"
	"github.com/illegalcall/storefront-mailer/internal/models"
	"github.com/illegalcall/storefront-mailer/internal/subscriber"
)

var errInvalidEvent = errors.New("invalid subscriber event")

// consumeRetryDelay spaces out Consume calls that fail immediately, e.g.
// while the broker is unreachable.
var consumeRetryDelay = 2 * time.Second

// Worker consumes subscriber events and upserts them into the Store.
type Worker struct {
	cfg       config.KafkaConfig
	store     subscriber.Store
	consumer  sarama.ConsumerGroup
	logger    *slog.Logger
	ready     chan bool
	readyOnce sync.Once
}

func NewWorker(cfg config.KafkaConfig, store subscriber.Store, consumer sarama.ConsumerGroup, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Initializing new Worker")
	return &Worker{
		cfg:      cfg,
		store:    store,
		consumer: consumer,
		logger:   logger,
		ready:    make(chan bool),
	}
}

// Start consumes until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	topics := []string{w.cfg.Topic}
	w.logger.Info("Starting worker", "topics", topics, "group", w.cfg.Group)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for err := range w.consumer.Errors() {
			w.logger.Error("Kafka consumer error received", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				w.logger.Error("Error from consumer.Consume", "error", err)
				select {
				case <-time.After(consumeRetryDelay):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	select {
	case <-w.ready:
		w.logger.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	select {
	case sig := <-sigChan:
		w.logger.Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		w.logger.Info("Context cancelled; shutting down worker")
	}

	cancel()
	<-done
	w.logger.Info("Worker shut down gracefully")
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	w.readyOnce.Do(func() { close(w.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	w.logger.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim marks malformed events and events that still fail after every
// retry. An event interrupted by the session ending is left unmarked so the
// next session redelivers it.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			err := w.processEvent(session.Context(), message)
			if err != nil && (session.Context().Err() != nil || errors.Is(err, context.Canceled)) {
				w.logger.Warn("Session ended before subscriber was recorded", "offset", message.Offset, "partition", message.Partition, "error", err)
				return nil
			}
			if err != nil {
				w.logger.Error("Failed to record subscriber", "offset", message.Offset, "partition", message.Partition, "error", err)
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.SubscriberEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errInvalidEvent, err)
	}
	if event.Email == "" {
		return fmt.Errorf("%w: missing email", errInvalidEvent)
	}
	if event.SubscribedAt.IsZero() {
		event.SubscribedAt = msg.Timestamp
	}

	attempts := max(w.cfg.RetryMax, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = w.store.Upsert(ctx, event.Subscriber()); err == nil {
			w.logger.Info("Subscriber recorded", "email", event.Email, "attempt", attempt)
			return nil
		}
		w.logger.Warn("Subscriber upsert failed", "email", event.Email, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(w.cfg.RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
