package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/illegalcall/storefront-mailer/internal/config"
)

// Resend delivers mail through the Resend HTTP API.
type Resend struct {
	client *resend.Client
	logger *slog.Logger
}

func NewResend(cfg config.ResendConfig, logger *slog.Logger) (*Resend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("resend: api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("resend: invalid base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Resend{client: client, logger: logger}, nil
}

// Verify lists the account's domains, which fails on a bad key or an unreachable API.
func (r *Resend) Verify(ctx context.Context) error {
	if _, err := r.client.Domains.ListWithContext(ctx); err != nil {
		return fmt.Errorf("resend: verify: %w", err)
	}
	return nil
}

func (r *Resend) Send(ctx context.Context, msg *Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}

	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		ReplyTo: msg.ReplyTo,
		Html:    msg.HTML,
		Text:    msg.Text,
		Headers: msg.Headers,
		Tags:    resendTags(msg.Tags),
	}

	sent, err := r.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: send: %w", err)
	}

	r.logger.Info("Email sent via Resend", "to", msg.To, "messageId", sent.Id)
	return sent.Id, nil
}

func resendTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		out = append(out, resend.Tag{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
