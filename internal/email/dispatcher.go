package email

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"github.com/illegalcall/storefront-mailer/internal/models"
	"github.com/illegalcall/storefront-mailer/internal/transport"
)

// Receipt is the outcome of a successful dispatch.
type Receipt struct {
	Action    Action
	MessageID string
	// Recipient is the address the message was delivered to.
	Recipient string
	// DiscountCode is only set for newsletter-subscribe.
	DiscountCode string
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithCodeGenerator(gen CodeGenerator) Option {
	return func(d *Dispatcher) {
		if gen != nil {
			d.codes = gen
		}
	}
}

// Dispatcher runs one validate, render, send pass per call. It keeps no
// state between calls, never retries and never queues.
type Dispatcher struct {
	transport transport.Transport
	renderer  *Renderer
	headers   HeaderPolicy
	codes     CodeGenerator
	logger    *slog.Logger
}

func NewDispatcher(t transport.Transport, r *Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		renderer:  r,
		headers:   NewHeaderPolicy(r.Brand()),
		codes:     NewDiscountCode,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle dispatches payload for the named action. Every returned error is an *Error.
func (d *Dispatcher) Handle(ctx context.Context, name string, payload []byte) (*Receipt, error) {
	action, err := ParseAction(name)
	if err != nil {
		d.logger.Warn("Rejected email dispatch", "action", name, "error", err)
		return nil, err
	}

	payload = normalizePayload(payload)
	if err := validateRequired(action, payload); err != nil {
		d.logFailure(action, err)
		return nil, err
	}

	msg, code, err := d.compose(action, payload)
	if err != nil {
		d.logFailure(action, err)
		return nil, err
	}

	id, err := d.transport.Send(ctx, msg)
	if err != nil {
		tErr := &Error{Kind: KindTransport, Message: err.Error(), Err: err}
		d.logFailure(action, tErr)
		return nil, tErr
	}

	d.logger.Info("Email dispatched", "action", action, "to", msg.To, "messageId", id)
	return &Receipt{
		Action:       action,
		MessageID:    id,
		Recipient:    msg.To,
		DiscountCode: code,
	}, nil
}

// TestConnection reports the transport's connectivity check.
func (d *Dispatcher) TestConnection(ctx context.Context) error {
	if err := d.transport.Verify(ctx); err != nil {
		d.logger.Error("Mail transport verification failed", "error", err)
		return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	d.logger.Info("Mail transport verified")
	return nil
}

// compose decodes the payload and builds the outgoing message. The second
// return value is the generated discount code, if any.
func (d *Dispatcher) compose(action Action, payload []byte) (*transport.Message, string, error) {
	brand := d.renderer.Brand()

	var (
		rendered Rendered
		to       string
		in       HeaderInput
		code     string
		err      error
	)

	switch action {
	case ActionContact:
		var p models.ContactPayload
		if err := decode(payload, &p); err != nil {
			return nil, "", err
		}
		rendered, err = d.renderer.Contact(p)
		to = brand.OperatorEmail
		in.CustomerEmail = p.Email

	case ActionTest:
		var p models.TestPayload
		if err := decode(payload, &p); err != nil {
			return nil, "", err
		}
		rendered, err = d.renderer.Test(p)
		to = p.To

	case ActionOrderConfirmation:
		var p models.OrderPayload
		if err := decode(payload, &p); err != nil {
			return nil, "", err
		}
		if err := validateItems(p.Items); err != nil {
			return nil, "", err
		}
		d.checkTotal(action, p)
		rendered, err = d.renderer.Order(p)
		to = p.CustomerEmail
		in.OrderNumber = p.OrderNumber.String()

	case ActionPaymentConfirmation:
		var p models.PaymentPayload
		if err := decode(payload, &p); err != nil {
			return nil, "", err
		}
		if err := validateItems(p.Items); err != nil {
			return nil, "", err
		}
		d.checkTotal(action, p.OrderPayload)
		rendered, err = d.renderer.Payment(p)
		to = p.CustomerEmail
		in.OrderNumber = p.OrderNumber.String()

	case ActionNewsletterSubscribe:
		var p models.NewsletterPayload
		if err := decode(payload, &p); err != nil {
			return nil, "", err
		}
		code, err = d.codes()
		if err != nil {
			return nil, "", &Error{Kind: KindInternal, Message: "Failed to generate discount code", Err: err}
		}
		rendered, err = d.renderer.Newsletter(p, code)
		to = p.Email
		in.SubscriberEmail = p.Email
	}
	if err != nil {
		return nil, "", &Error{Kind: KindInternal, Message: "Failed to render email", Err: err}
	}

	h := d.headers.For(action, in)
	return &transport.Message{
		From:    brand.From,
		To:      to,
		ReplyTo: h.ReplyTo,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
		Headers: h.Values,
		Tags:    map[string]string{"action": string(action)},
	}, code, nil
}

// checkTotal logs when the caller's total disagrees with the items. The
// caller's total is still the one rendered.
func (d *Dispatcher) checkTotal(action Action, p models.OrderPayload) {
	if sum := p.ItemsTotal(); math.Abs(sum-p.Total) > 0.005 {
		d.logger.Warn("Order total does not match item subtotals",
			"action", action, "orderNumber", p.OrderNumber, "total", p.Total, "itemsTotal", sum)
	}
}

func (d *Dispatcher) logFailure(action Action, err error) {
	d.logger.Error("Email dispatch failed", "action", action, "kind", KindOf(err), "error", err)
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return validationError(msgInvalidBody, err)
	}
	return nil
}
