package email

import (
	"fmt"

	"github.com/illegalcall/storefront-mailer/internal/transport"
)

// Headers are the transport-level fields attached to a message.
type Headers struct {
	ReplyTo string
	Values  map[string]string
}

// HeaderInput carries the payload fields some actions interpolate.
type HeaderInput struct {
	CustomerEmail   string
	OrderNumber     string
	SubscriberEmail string
}

// HeaderPolicy is a static per-action header table.
type HeaderPolicy struct {
	brand Brand
}

func NewHeaderPolicy(brand Brand) HeaderPolicy {
	return HeaderPolicy{brand: brand}
}

func (p HeaderPolicy) For(action Action, in HeaderInput) Headers {
	h := Headers{
		ReplyTo: p.brand.SupportEmail,
		Values: map[string]string{
			"X-Mailer":                    p.brand.Name + " Mailer",
			"X-Auto-Response-Suppression": "OOF, AutoReply",
			"X-Sender-Domain":             transport.SenderDomain(p.brand.From),
		},
	}

	switch action {
	case ActionContact:
		h.ReplyTo = in.CustomerEmail
		h.Values["X-Priority"] = "1"
		h.Values["Importance"] = "high"
		h.Values["X-Template-ID"] = "contact-form"
	case ActionTest:
		h.Values["X-Priority"] = "3"
		h.Values["X-Template-ID"] = "test-email"
	case ActionOrderConfirmation:
		h.Values["X-Priority"] = "1"
		h.Values["Importance"] = "high"
		h.Values["X-Template-ID"] = "order-confirmation"
		h.Values["X-Entity-Ref-ID"] = "order-" + in.OrderNumber
	case ActionPaymentConfirmation:
		h.Values["X-Priority"] = "1"
		h.Values["Importance"] = "high"
		h.Values["X-Template-ID"] = "payment-confirmation"
	case ActionNewsletterSubscribe:
		h.Values["Precedence"] = "bulk"
		h.Values["List-Unsubscribe"] = fmt.Sprintf("<%s>, <mailto:%s?subject=unsubscribe>",
			p.brand.UnsubscribeURL(in.SubscriberEmail), p.brand.SupportEmail)
		h.Values["List-Unsubscribe-Post"] = "List-Unsubscribe=One-Click"
		h.Values["X-Template-ID"] = "newsletter-welcome"
	}
	return h
}
