package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/illegalcall/storefront-mailer/internal/storage"
)

// Dev writes every message as an .eml file instead of delivering it.
type Dev struct {
	store  storage.Storage
	now    func() time.Time
	logger *slog.Logger
}

func NewDev(store storage.Storage, logger *slog.Logger) *Dev {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dev{store: store, now: time.Now, logger: logger}
}

func (d *Dev) Verify(ctx context.Context) error {
	if err := d.store.Writable(ctx); err != nil {
		return fmt.Errorf("dev: outbox not writable: %w", err)
	}
	return nil
}

func (d *Dev) Send(ctx context.Context, msg *Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}

	messageID := NewMessageID(msg.From)
	raw, err := buildMIME(msg, messageID, d.now())
	if err != nil {
		return "", err
	}

	path, err := d.store.StoreFromBytes(ctx, d.now().Format("20060102-150405")+"-*.eml", raw)
	if err != nil {
		return "", fmt.Errorf("dev: write message: %w", err)
	}

	d.logger.Info("📨 Email written to outbox", "to", msg.To, "subject", msg.Subject, "path", path)
	return messageID, nil
}
