package subscriber

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/storefront-mailer/internal/models"
)

const (
	upsertSubscriberQuery = `INSERT INTO subscribers (email, is_active, discount_code, subscribed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			discount_code = EXCLUDED.discount_code,
			subscribed_at = EXCLUDED.subscribed_at`
	deactivateSubscriberQuery = "UPDATE subscribers SET is_active = false WHERE email = $1"
	listSubscribersQuery      = "SELECT email, is_active, discount_code, subscribed_at FROM subscribers ORDER BY subscribed_at DESC"
)

// Postgres stores subscribers in the subscribers table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Upsert(ctx context.Context, sub models.Subscriber) error {
	_, err := p.db.ExecContext(ctx, upsertSubscriberQuery,
		NormalizeEmail(sub.Email), sub.IsActive, sub.DiscountCode, sub.SubscribedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

func (p *Postgres) Deactivate(ctx context.Context, email string) error {
	res, err := p.db.ExecContext(ctx, deactivateSubscriberQuery, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]models.Subscriber, error) {
	subs := []models.Subscriber{}
	if err := p.db.SelectContext(ctx, &subs, listSubscribersQuery); err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subs, nil
}
