package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoRecipient = errors.New("message has no recipient")
	ErrNoSender    = errors.New("message has no sender")
)

// Transport delivers fully rendered messages.
type Transport interface {
	// Verify checks connectivity and credentials without sending anything.
	Verify(ctx context.Context) error
	// Send delivers the message and returns the provider message id.
	Send(ctx context.Context, msg *Message) (string, error)
}

type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	// Text is optional. When set the message is multipart/alternative.
	Text    string
	Headers map[string]string
	// Tags are provider-side labels. Transports without tag support ignore them.
	Tags map[string]string
}

func (m *Message) validate() error {
	if strings.TrimSpace(m.From) == "" {
		return ErrNoSender
	}
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// NewMessageID returns an RFC 5322 message id scoped to the sender's domain.
func NewMessageID(from string) string {
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), SenderDomain(from))
}

// SenderDomain returns the domain part of an address such as
// "Shop <orders@shop.example>". It falls back to "localhost".
func SenderDomain(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "localhost"
	}
	if at := strings.LastIndex(addr.Address, "@"); at >= 0 && at < len(addr.Address)-1 {
		return addr.Address[at+1:]
	}
	return "localhost"
}

// buildMIME renders msg as an RFC 5322 message with CRLF line endings.
func buildMIME(msg *Message, messageID string, date time.Time) ([]byte, error) {
	headers := make(map[string]string, len(msg.Headers)+8)
	for key, value := range msg.Headers {
		canonical := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(key))
		if canonical == "" || strings.TrimSpace(value) == "" {
			continue
		}
		headers[canonical] = sanitizeHeaderValue(value)
	}

	headers["From"] = sanitizeHeaderValue(msg.From)
	headers["To"] = sanitizeHeaderValue(msg.To)
	if msg.ReplyTo != "" {
		headers["Reply-To"] = sanitizeHeaderValue(msg.ReplyTo)
	}
	headers["Subject"] = mime.QEncoding.Encode("utf-8", sanitizeHeaderValue(msg.Subject))
	headers["Date"] = date.Format(time.RFC1123Z)
	headers["Message-Id"] = messageID
	headers["Mime-Version"] = "1.0"

	var body bytes.Buffer
	if msg.Text == "" {
		headers["Content-Type"] = "text/html; charset=UTF-8"
		headers["Content-Transfer-Encoding"] = "quoted-printable"
		if err := writeQuotedPrintable(&body, msg.HTML); err != nil {
			return nil, err
		}
	} else {
		mw := multipart.NewWriter(&body)
		headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", mw.Boundary())
		for _, part := range []struct{ contentType, content string }{
			{"text/plain; charset=UTF-8", msg.Text},
			{"text/html; charset=UTF-8", msg.HTML},
		} {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Type", part.contentType)
			h.Set("Content-Transfer-Encoding", "quoted-printable")
			pw, err := mw.CreatePart(h)
			if err != nil {
				return nil, fmt.Errorf("failed to create body part: %w", err)
			}
			if err := writeQuotedPrintable(pw, part.content); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close multipart writer: %w", err)
		}
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(headers[key])
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func writeQuotedPrintable(w io.Writer, content string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(normalizeBody(content))); err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	return nil
}

func normalizeBody(body string) string {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func sanitizeHeaderValue(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}
