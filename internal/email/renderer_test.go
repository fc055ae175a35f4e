package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

func sampleOrder() models.OrderPayload {
	return models.OrderPayload{
		CustomerName:  "Jane Wanjiku",
		CustomerEmail: "jane@example.com",
		OrderNumber:   "LX-1001",
		Items: []models.OrderItem{
			{Name: "Luxury Handbag", Quantity: 1, Price: 15000},
			{Name: "Designer Shoes", Quantity: 2, Price: 8000},
		},
		Total: 31000,
	}
}

func TestRenderer_Order(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Order(sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, "Order Confirmation #LX-1001 - Luxe Atelier", out.Subject)
	assert.Contains(t, out.HTML, ">Luxury Handbag</td>")
	assert.Contains(t, out.HTML, ">Designer Shoes</td>")
	assert.Contains(t, out.HTML, ">1</td>")
	assert.Contains(t, out.HTML, ">2</td>")
	assert.Contains(t, out.HTML, "KES 15,000")
	assert.Contains(t, out.HTML, "KES 8,000")
	assert.Contains(t, out.HTML, "KES 31,000")
	assert.Contains(t, out.HTML, "https://luxeatelier.co.ke/track-order?order=LX-1001")
	assert.Contains(t, out.HTML, "14/03/2026", "order date in en-KE day-first form")

	assert.Contains(t, out.Text, "Order Number: #LX-1001")
	assert.Contains(t, out.Text, "- Designer Shoes x 2: KES 8,000")
	assert.Contains(t, out.Text, "Total: KES 31,000")
	assert.Contains(t, out.Text, "Customer: Jane Wanjiku <jane@example.com>")
}

func TestRenderer_IsDeterministic(t *testing.T) {
	r := newTestRenderer(t)

	first, err := r.Order(sampleOrder())
	require.NoError(t, err)
	second, err := r.Order(sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderer_Payment(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Payment(models.PaymentPayload{OrderPayload: sampleOrder()})
	require.NoError(t, err)

	assert.Equal(t, "Payment Confirmed - Order #LX-1001 - Luxe Atelier", out.Subject)
	assert.Contains(t, out.HTML, "&#10003;")
	assert.Contains(t, out.HTML, "#2e7d32")
	assert.Contains(t, out.HTML, ">M-Pesa</td>")
	assert.Contains(t, out.HTML, "KES 31,000")
	assert.Contains(t, out.HTML, "track-order?order=LX-1001")
	assert.Empty(t, out.Text, "payment confirmation has no text variant")
}

func TestRenderer_Contact(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Contact(models.ContactPayload{
		Name:    "Jane Wanjiku",
		Email:   "jane@example.com",
		Subject: "Bespoke fitting",
		Message: "First line\nSecond line\r\nThird line",
	})
	require.NoError(t, err)

	assert.Equal(t, "Contact Form: Bespoke fitting", out.Subject)
	assert.Contains(t, out.HTML, "First line<br>Second line<br>Third line")
	assert.Contains(t, out.HTML, "Not provided")
	assert.Contains(t, out.HTML, "14/03/2026, 09:05:09", "timestamp is local to the brand timezone")
	assert.Empty(t, out.Text)
}

func TestRenderer_EscapesCallerInput(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Contact(models.ContactPayload{
		Name:    `<script>alert("x")</script>`,
		Email:   "jane@example.com",
		Subject: "hi",
		Message: "<b>bold</b>\nnext",
		Phone:   `"><img src=x>`,
	})
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "<script>")
	assert.NotContains(t, out.HTML, "<b>bold</b>")
	assert.NotContains(t, out.HTML, "<img src=x>")
	assert.Contains(t, out.HTML, "&lt;script&gt;")
	assert.Contains(t, out.HTML, "&lt;b&gt;bold&lt;/b&gt;<br>next")

	order := sampleOrder()
	order.Items[0].Name = "<i>Handbag</i>"
	orderOut, err := r.Order(order)
	require.NoError(t, err)
	assert.Contains(t, orderOut.HTML, "&lt;i&gt;Handbag&lt;/i&gt;")
}

func TestRenderer_Newsletter(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Newsletter(models.NewsletterPayload{Email: "jane+vip@example.com"}, "WELCOMEAB12CD")
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Luxe Atelier - Enjoy 10% Off Your First Order", out.Subject)
	assert.Contains(t, out.HTML, "WELCOMEAB12CD")
	assert.Contains(t, out.HTML, "10% off your first order")
	assert.Contains(t, out.HTML, "unsubscribe?email=jane%2Bvip%40example.com")
	assert.Empty(t, out.Text)
}

func TestRenderer_Test(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Test(models.TestPayload{To: "ops@example.com", Subject: "SMTP check", Message: "ping"})
	require.NoError(t, err)

	assert.Equal(t, "SMTP check", out.Subject)
	assert.Contains(t, out.HTML, "ping")
	assert.Contains(t, out.HTML, "Luxe Atelier")
	assert.Contains(t, out.HTML, "Sent on 14/03/2026, 09:05:09")
}

func TestRenderer_Money(t *testing.T) {
	r := newTestRenderer(t)

	assert.Equal(t, "KES 0", r.Money(0))
	assert.Equal(t, "KES 999", r.Money(999))
	assert.Equal(t, "KES 1,250,000", r.Money(1250000))
	assert.True(t, strings.HasPrefix(r.Money(1500.5), "KES 1,500.5"))
}
