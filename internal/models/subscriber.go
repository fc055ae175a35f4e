package models

import "time"

// Subscriber is one newsletter opt-in, keyed by email.
type Subscriber struct {
	Email        string    `json:"email" db:"email"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	DiscountCode string    `json:"discount_code" db:"discount_code"`
	SubscribedAt time.Time `json:"subscribed_at" db:"subscribed_at"`
}

// SubscriberEvent is the Kafka message published for a new subscriber.
type SubscriberEvent struct {
	Email        string    `json:"email"`
	DiscountCode string    `json:"discount_code"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

func (e SubscriberEvent) Subscriber() Subscriber {
	return Subscriber{
		Email:        e.Email,
		IsActive:     true,
		DiscountCode: e.DiscountCode,
		SubscribedAt: e.SubscribedAt,
	}
}
