package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

// Supabase stores subscribers in a table exposed through PostgREST.
// The client library has no context support, so ctx is only checked
// before each request.
type Supabase struct {
	client *postgrest.Client
	table  string
}

type supabaseRow struct {
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	DiscountCode string    `json:"discount_code"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

func NewSupabase(client *postgrest.Client, table string) *Supabase {
	if table == "" {
		table = "subscribers"
	}
	return &Supabase{client: client, table: table}
}

func (s *Supabase) Upsert(ctx context.Context, sub models.Subscriber) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := supabaseRow{
		Email:        NormalizeEmail(sub.Email),
		IsActive:     sub.IsActive,
		DiscountCode: sub.DiscountCode,
		SubscribedAt: sub.SubscribedAt.UTC(),
	}
	if _, _, err := s.client.From(s.table).Upsert(row, "email", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

func (s *Supabase) Deactivate(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, _, err := s.client.From(s.table).
		Update(map[string]any{"is_active": false}, "representation", "").
		Eq("email", NormalizeEmail(email)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}

	var updated []supabaseRow
	if err := json.Unmarshal(body, &updated); err != nil {
		return fmt.Errorf("failed to decode deactivate response: %w", err)
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Supabase) List(ctx context.Context) ([]models.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []supabaseRow
	_, err := s.client.From(s.table).
		Select("email,is_active,discount_code,subscribed_at", "", false).
		Order("subscribed_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	subs := make([]models.Subscriber, len(rows))
	for i, r := range rows {
		subs[i] = models.Subscriber(r)
	}
	return subs, nil
}
