package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/illegalcall/storefront-mailer/internal/config"
)

type SMTPOption func(*SMTP)

// WithTLSConfig overrides the TLS configuration used for STARTTLS and implicit TLS.
func WithTLSConfig(cfg *tls.Config) SMTPOption {
	return func(s *SMTP) {
		s.tlsConfig = cfg
	}
}

func WithHelloName(name string) SMTPOption {
	return func(s *SMTP) {
		if strings.TrimSpace(name) != "" {
			s.helloName = strings.TrimSpace(name)
		}
	}
}

func WithClock(now func() time.Time) SMTPOption {
	return func(s *SMTP) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) SMTPOption {
	return func(s *SMTP) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SMTP delivers mail through an SMTP relay using net/smtp.
type SMTP struct {
	host      string
	port      int
	secure    bool
	timeout   time.Duration
	auth      smtp.Auth
	tlsConfig *tls.Config
	helloName string
	now       func() time.Time
	logger    *slog.Logger
}

func NewSMTP(cfg config.SMTPConfig, opts ...SMTPOption) (*SMTP, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp: invalid port %d", cfg.Port)
	}
	if cfg.User != "" && cfg.Pass == "" {
		return nil, errors.New("smtp: password is required when a user is configured")
	}

	s := &SMTP{
		host:      cfg.Host,
		port:      cfg.Port,
		secure:    cfg.Secure,
		timeout:   cfg.Timeout,
		helloName: "localhost",
		now:       time.Now,
		logger:    slog.Default(),
		tlsConfig: &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		},
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if cfg.User != "" {
		s.auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SMTP) Verify(ctx context.Context) error {
	return s.session(ctx, func(*smtp.Client) error { return nil })
}

func (s *SMTP) Send(ctx context.Context, msg *Message) (string, error) {
	if err := msg.validate(); err != nil {
		return "", err
	}
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return "", fmt.Errorf("smtp: invalid from address: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return "", fmt.Errorf("smtp: invalid recipient: %w", err)
	}

	messageID := NewMessageID(msg.From)
	raw, err := buildMIME(msg, messageID, s.now())
	if err != nil {
		return "", err
	}

	err = s.session(ctx, func(client *smtp.Client) error {
		if err := client.Mail(from.Address); err != nil {
			return fmt.Errorf("smtp: mail from: %w", err)
		}
		if err := client.Rcpt(to.Address); err != nil {
			return fmt.Errorf("smtp: rcpt to %s: %w", to.Address, err)
		}
		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("smtp: data: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			_ = w.Close()
			return fmt.Errorf("smtp: data write: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("smtp: data close: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Email sent via SMTP", "to", to.Address, "messageId", messageID)
	return messageID, nil
}

// session dials, greets, upgrades to TLS, authenticates, runs fn and quits.
func (s *SMTP) session(ctx context.Context, fn func(*smtp.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp: dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(s.now().Add(s.timeout))
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp: greeting: %w", err)
	}
	defer client.Close()

	if err := client.Hello(s.helloName); err != nil {
		return fmt.Errorf("smtp: hello: %w", err)
	}

	if !s.secure && s.tlsConfig != nil {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig.Clone()); err != nil {
				return fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}

	if s.auth != nil {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("smtp: server does not support AUTH")
		}
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := fn(client); err != nil {
		return err
	}

	if err := client.Quit(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("smtp: quit: %w", err)
	}
	return ctx.Err()
}

func (s *SMTP) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	dialer := &net.Dialer{Timeout: s.timeout}
	if s.secure {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: s.tlsConfig.Clone()}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}
