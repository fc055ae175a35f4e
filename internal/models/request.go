package models

// DispatchResult is the response body of the email endpoint
type DispatchResult struct {
	// true when the transport accepted the message
	Success bool `json:"success" example:"true"`
	// Provider message identifier
	MessageID string `json:"messageId,omitempty" example:"<0b6e...@example.co.ke>"`
	// Only set for newsletter-subscribe
	DiscountCode string `json:"discountCode,omitempty" example:"WELCOMEX7K2QD"`
	// Informational message, used by test-connection
	Message string `json:"message,omitempty"`
	// Failure reason
	Error string `json:"error,omitempty" example:"Missing required fields"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status    string `json:"status" example:"OK"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// UnsubscribeRequest represents a newsletter opt-out
type UnsubscribeRequest struct {
	Email string `json:"email" example:"user@example.com"`
}
