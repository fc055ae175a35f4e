package email

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/illegalcall/storefront-mailer/internal/transport"
)

// MockTransport simulates a mail transport for testing
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) Send(ctx context.Context, msg *transport.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func testBrand() Brand {
	nairobi := time.FixedZone("EAT", 3*60*60)
	return Brand{
		Name:            "Luxe Atelier",
		From:            "Luxe Atelier <orders@luxeatelier.co.ke>",
		OperatorEmail:   "hello@luxeatelier.co.ke",
		SupportEmail:    "support@luxeatelier.co.ke",
		SiteURL:         "https://luxeatelier.co.ke",
		Currency:        "KES",
		DiscountPercent: 10,
		Locale:          language.MustParse("en-KE"),
		Location:        nairobi,
	}
}

func testNow() time.Time {
	return time.Date(2026, 3, 14, 6, 5, 9, 0, time.UTC)
}

func newTestRenderer(t *testing.T) *Renderer {
	r, err := NewRenderer(testBrand(), WithNow(testNow))
	require.NoError(t, err)
	return r
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *MockTransport) {
	mt := &MockTransport{}
	return NewDispatcher(mt, newTestRenderer(t)), mt
}

func validPayloads() map[Action]map[string]any {
	items := []any{
		map[string]any{"name": "Luxury Handbag", "quantity": 1, "price": 15000},
		map[string]any{"name": "Designer Shoes", "quantity": 2, "price": 8000},
	}
	return map[Action]map[string]any{
		ActionContact: {
			"name": "Jane Wanjiku", "email": "jane@example.com",
			"subject": "Bespoke fitting", "message": "Hello", "phone": "+254700000000",
		},
		ActionTest: {
			"to": "ops@example.com", "subject": "SMTP check", "message": "ping",
		},
		ActionOrderConfirmation: {
			"customerName": "Jane Wanjiku", "customerEmail": "jane@example.com",
			"orderNumber": "LX-1001", "items": items, "total": 31000,
		},
		ActionPaymentConfirmation: {
			"customerName": "Jane Wanjiku", "customerEmail": "jane@example.com",
			"orderNumber": "LX-1001", "items": items, "total": 31000, "paymentMethod": "Card",
		},
		ActionNewsletterSubscribe: {
			"email": "jane@example.com",
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandle_MissingRequiredFields(t *testing.T) {
	for action, payload := range validPayloads() {
		for _, field := range requiredFields[action] {
			t.Run(string(action)+"/"+field, func(t *testing.T) {
				d, mt := newTestDispatcher(t)

				partial := map[string]any{}
				for k, v := range payload {
					if k != field {
						partial[k] = v
					}
				}

				receipt, err := d.Handle(context.Background(), string(action), mustJSON(t, partial))
				require.Error(t, err)
				assert.Nil(t, receipt)
				assert.ErrorIs(t, err, ErrValidation)

				want := "Missing required fields"
				if action == ActionNewsletterSubscribe {
					want = "Email is required"
				}
				assert.Equal(t, want, err.Error())
				mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
			})
		}
	}
}

func TestHandle_FalsyFieldsCountAsMissing(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		payload string
	}{
		{"empty string", ActionContact, `{"name":"","email":"a@b.co","subject":"s","message":"m"}`},
		{"null", ActionTest, `{"to":null,"subject":"s","message":"m"}`},
		{"zero total", ActionOrderConfirmation, `{"customerName":"a","customerEmail":"a@b.co","orderNumber":"1","items":[{"name":"x","quantity":1,"price":1}],"total":0}`},
		{"empty items", ActionOrderConfirmation, `{"customerName":"a","customerEmail":"a@b.co","orderNumber":"1","items":[],"total":5}`},
		{"false email", ActionNewsletterSubscribe, `{"email":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mt := newTestDispatcher(t)
			_, err := d.Handle(context.Background(), string(tt.action), []byte(tt.payload))
			assert.ErrorIs(t, err, ErrValidation)
			mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_InvalidBodies(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		payload string
		message string
	}{
		{"not json", ActionContact, `{"name":`, "Invalid request body"},
		{"array", ActionNewsletterSubscribe, `["a@b.co"]`, "Invalid request body"},
		{"wrong type", ActionOrderConfirmation, `{"customerName":"a","customerEmail":"a@b.co","orderNumber":"1","items":"many","total":5}`, "Invalid request body"},
		{"fractional quantity", ActionOrderConfirmation, `{"customerName":"a","customerEmail":"a@b.co","orderNumber":"1","items":[{"name":"x","quantity":1.5,"price":1}],"total":5}`, "Invalid order items"},
		{"zero quantity", ActionOrderConfirmation, `{"customerName":"a","customerEmail":"a@b.co","orderNumber":"1","items":[{"name":"x","quantity":0,"price":1}],"total":5}`, "Invalid order items"},
		{"negative price", ActionPaymentConfirmation, `{"customerName":"a","customerEmail":"a@b.co","orderNumber":"1","items":[{"name":"x","quantity":1,"price":-1}],"total":5}`, "Invalid order items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mt := newTestDispatcher(t)
			_, err := d.Handle(context.Background(), string(tt.action), []byte(tt.payload))
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, KindValidation, KindOf(err))
			mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_UnknownAction(t *testing.T) {
	d, mt := newTestDispatcher(t)

	receipt, err := d.Handle(context.Background(), "refund", []byte(`{}`))
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.NotErrorIs(t, err, ErrValidation)

	for _, a := range Actions {
		assert.Contains(t, err.Error(), string(a))
	}
	assert.True(t, strings.HasPrefix(err.Error(), "Invalid action"))
	mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandle_OrderConfirmation(t *testing.T) {
	d, mt := newTestDispatcher(t)

	var sent *transport.Message
	mt.On("Send", mock.Anything, mock.AnythingOfType("*transport.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*transport.Message) }).
		Return("<abc@luxeatelier.co.ke>", nil)

	receipt, err := d.Handle(context.Background(), "order-confirmation",
		mustJSON(t, validPayloads()[ActionOrderConfirmation]))
	require.NoError(t, err)
	assert.Equal(t, "<abc@luxeatelier.co.ke>", receipt.MessageID)
	assert.Equal(t, "jane@example.com", receipt.Recipient)
	assert.Empty(t, receipt.DiscountCode)

	require.NotNil(t, sent)
	assert.Equal(t, "Luxe Atelier <orders@luxeatelier.co.ke>", sent.From)
	assert.Equal(t, "jane@example.com", sent.To)
	assert.Equal(t, "support@luxeatelier.co.ke", sent.ReplyTo)
	assert.Equal(t, "Order Confirmation #LX-1001 - Luxe Atelier", sent.Subject)
	assert.Equal(t, "order-LX-1001", sent.Headers["X-Entity-Ref-ID"])
	assert.Equal(t, "order-confirmation", sent.Tags["action"])
	assert.NotEmpty(t, sent.Text)
	mt.AssertExpectations(t)
}

func TestHandle_ContactGoesToOperator(t *testing.T) {
	d, mt := newTestDispatcher(t)

	mt.On("Send", mock.Anything, mock.MatchedBy(func(m *transport.Message) bool {
		return m.To == "hello@luxeatelier.co.ke" &&
			m.ReplyTo == "jane@example.com" &&
			m.Subject == "Contact Form: Bespoke fitting" &&
			m.Text == ""
	})).Return("id-1", nil)

	_, err := d.Handle(context.Background(), "contact", mustJSON(t, validPayloads()[ActionContact]))
	require.NoError(t, err)
	mt.AssertExpectations(t)
}

func TestHandle_NewsletterCodesAreFresh(t *testing.T) {
	d, mt := newTestDispatcher(t)
	mt.On("Send", mock.Anything, mock.Anything).Return("id", nil)

	payload := mustJSON(t, validPayloads()[ActionNewsletterSubscribe])
	first, err := d.Handle(context.Background(), "newsletter-subscribe", payload)
	require.NoError(t, err)
	second, err := d.Handle(context.Background(), "newsletter-subscribe", payload)
	require.NoError(t, err)

	codeFormat := regexp.MustCompile(`^WELCOME[A-Z0-9]{6}$`)
	assert.Regexp(t, codeFormat, first.DiscountCode)
	assert.Regexp(t, codeFormat, second.DiscountCode)
	assert.NotEqual(t, first.DiscountCode, second.DiscountCode)

	msg := mt.Calls[0].Arguments.Get(1).(*transport.Message)
	assert.Contains(t, msg.HTML, first.DiscountCode)
	assert.Equal(t, "bulk", msg.Headers["Precedence"])
}

func TestHandle_CodeGeneratorFailure(t *testing.T) {
	mt := &MockTransport{}
	d := NewDispatcher(mt, newTestRenderer(t), WithCodeGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))

	_, err := d.Handle(context.Background(), "newsletter-subscribe", []byte(`{"email":"a@b.co"}`))
	assert.ErrorIs(t, err, ErrInternal)
	mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandle_TransportError(t *testing.T) {
	d, mt := newTestDispatcher(t)
	cause := errors.New("smtp: rcpt to jane@example.com: 550 mailbox unavailable")
	mt.On("Send", mock.Anything, mock.Anything).Return("", cause).Once()

	receipt, err := d.Handle(context.Background(), "test", mustJSON(t, validPayloads()[ActionTest]))
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause.Error(), err.Error())
	mt.AssertNumberOfCalls(t, "Send", 1)
}

func TestHandle_TotalMismatchIsRenderedAsGiven(t *testing.T) {
	d, mt := newTestDispatcher(t)
	mt.On("Send", mock.Anything, mock.Anything).Return("id", nil)

	payload := validPayloads()[ActionOrderConfirmation]
	payload["total"] = 99999
	_, err := d.Handle(context.Background(), "order-confirmation", mustJSON(t, payload))
	require.NoError(t, err)

	msg := mt.Calls[0].Arguments.Get(1).(*transport.Message)
	assert.Contains(t, msg.HTML, "KES 99,999")
}

func TestTestConnection(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		d, mt := newTestDispatcher(t)
		mt.On("Verify", mock.Anything).Return(nil)

		assert.NoError(t, d.TestConnection(context.Background()))
		mt.AssertExpectations(t)
	})

	t.Run("rejected", func(t *testing.T) {
		d, mt := newTestDispatcher(t)
		mt.On("Verify", mock.Anything).Return(errors.New("535 Authentication failed"))

		err := d.TestConnection(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
		assert.Equal(t, "535 Authentication failed", err.Error())
		mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestNewDiscountCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewDiscountCode()
		require.NoError(t, err)
		assert.Len(t, code, len("WELCOME")+6)
		assert.Regexp(t, `^WELCOME[A-Z0-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestHandle_BlankBodyIsAnEmptyObject(t *testing.T) {
	tests := []struct {
		action  Action
		payload string
		message string
	}{
		{ActionContact, "", "Missing required fields"},
		{ActionTest, "\n", "Missing required fields"},
		{ActionNewsletterSubscribe, "   ", "Email is required"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			d, mt := newTestDispatcher(t)
			_, err := d.Handle(context.Background(), string(tt.action), []byte(tt.payload))
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
			assert.ErrorIs(t, err, ErrValidation)
			mt.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestHandle_WholeNumberQuantityWithDecimalPoint(t *testing.T) {
	d, mt := newTestDispatcher(t)
	mt.On("Send", mock.Anything, mock.MatchedBy(func(msg *transport.Message) bool {
		return strings.Contains(msg.HTML, ">2</td>") && strings.Contains(msg.Text, "Designer Shoes x 2:")
	})).Return("<id@luxeatelier.co.ke>", nil).Once()

	payload := `{"customerName":"Jane Wanjiku","customerEmail":"jane@example.com","orderNumber":"LX-1001",` +
		`"items":[{"name":"Designer Shoes","quantity":2.0,"price":8000}],"total":16000}`
	receipt, err := d.Handle(context.Background(), string(ActionOrderConfirmation), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "<id@luxeatelier.co.ke>", receipt.MessageID)
	mt.AssertExpectations(t)
}
