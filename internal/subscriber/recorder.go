package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

// Recorder hands a new subscriber over for persistence.
type Recorder interface {
	Record(ctx context.Context, sub models.Subscriber) error
}

// StoreRecorder writes straight to a Store.
type StoreRecorder struct {
	store Store
}

func NewStoreRecorder(store Store) *StoreRecorder {
	return &StoreRecorder{store: store}
}

func (r *StoreRecorder) Record(ctx context.Context, sub models.Subscriber) error {
	return r.store.Upsert(ctx, sub)
}

// KafkaRecorder publishes a SubscriberEvent keyed by email. The worker
// consumes the topic and upserts into the configured Store.
type KafkaRecorder struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaRecorder(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaRecorder{producer: producer, topic: topic, logger: logger}
}

func (r *KafkaRecorder) Record(ctx context.Context, sub models.Subscriber) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := NormalizeEmail(sub.Email)
	event, err := json.Marshal(models.SubscriberEvent{
		Email:        email,
		DiscountCode: sub.DiscountCode,
		SubscribedAt: sub.SubscribedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode subscriber event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: r.topic,
		Key:   sarama.StringEncoder(email),
		Value: sarama.ByteEncoder(event),
	}
	partition, offset, err := r.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish subscriber event: %w", err)
	}

	r.logger.Info("Subscriber event published", "email", email, "partition", partition, "offset", offset)
	return nil
}

// NopRecorder discards subscribers. Used when no backend is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.Subscriber) error { return nil }
