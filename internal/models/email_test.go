package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPayload_ItemsTotal(t *testing.T) {
	order := OrderPayload{
		Items: []OrderItem{
			{Name: "Luxury Handbag", Quantity: 1, Price: 15000},
			{Name: "Designer Shoes", Quantity: 2, Price: 8000},
		},
		Total: 31000,
	}
	assert.Equal(t, float64(31000), order.ItemsTotal())
	assert.Equal(t, float64(16000), order.Items[1].Subtotal())
}

func TestPaymentPayload_Method(t *testing.T) {
	var p PaymentPayload
	require.NoError(t, json.Unmarshal([]byte(`{"orderNumber":"LX-1","total":10}`), &p))
	assert.Equal(t, OrderNumber("LX-1"), p.OrderNumber, "embedded order fields decode at the top level")
	assert.Equal(t, DefaultPaymentMethod, p.Method())

	p.PaymentMethod = "Card"
	assert.Equal(t, "Card", p.Method())
}

func TestSubscriberEvent_Subscriber(t *testing.T) {
	ev := SubscriberEvent{Email: "a@b.co", DiscountCode: "WELCOMEABC123"}
	sub := ev.Subscriber()
	assert.True(t, sub.IsActive)
	assert.Equal(t, "a@b.co", sub.Email)
	assert.Equal(t, "WELCOMEABC123", sub.DiscountCode)
}

func TestOrderNumber_UnmarshalJSON(t *testing.T) {
	var p OrderPayload
	require.NoError(t, json.Unmarshal([]byte(`{"orderNumber":1001}`), &p))
	assert.Equal(t, OrderNumber("1001"), p.OrderNumber)

	require.NoError(t, json.Unmarshal([]byte(`{"orderNumber":"LX-1001"}`), &p))
	assert.Equal(t, "LX-1001", p.OrderNumber.String())

	assert.Error(t, json.Unmarshal([]byte(`{"orderNumber":{"a":1}}`), &p))
}
