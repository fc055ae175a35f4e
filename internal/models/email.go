package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultPaymentMethod is used when a payment confirmation omits paymentMethod.
const DefaultPaymentMethod = "M-Pesa"

// OrderNumber accepts both "LX-1001" and 1001 on the wire.
type OrderNumber string

func (n *OrderNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = OrderNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("orderNumber must be a string or number: %w", err)
	}
	*n = OrderNumber(num.String())
	return nil
}

func (n OrderNumber) String() string { return string(n) }

type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Phone   string `json:"phone,omitempty"`
}

type TestPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	// Quantity is a whole number; JSON clients may send it as 2 or 2.0.
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// Subtotal is price times quantity for a single line.
func (i OrderItem) Subtotal() float64 {
	return i.Price * i.Quantity
}

type OrderPayload struct {
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
	OrderNumber   OrderNumber `json:"orderNumber"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
}

// ItemsTotal sums the line subtotals. The rendered total is always Total;
// this is only used to detect a mismatch.
func (o OrderPayload) ItemsTotal() float64 {
	var sum float64
	for _, item := range o.Items {
		sum += item.Subtotal()
	}
	return sum
}

type PaymentPayload struct {
	OrderPayload
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

func (p PaymentPayload) Method() string {
	if p.PaymentMethod == "" {
		return DefaultPaymentMethod
	}
	return p.PaymentMethod
}

type NewsletterPayload struct {
	Email string `json:"email"`
}
