package subscriber

import (
	"context"
	"errors"
	"strings"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

var ErrNotFound = errors.New("subscriber not found")

// Store persists newsletter subscribers keyed by email.
type Store interface {
	// Upsert inserts the subscriber or replaces the record with the same email.
	Upsert(ctx context.Context, sub models.Subscriber) error
	// Deactivate clears is_active. It returns ErrNotFound for unknown emails.
	Deactivate(ctx context.Context, email string) error
	// List returns all subscribers, newest first.
	List(ctx context.Context) ([]models.Subscriber, error)
}

// NormalizeEmail lowercases and trims an address so one person maps to one key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
