package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const subscribersSchema = `CREATE TABLE IF NOT EXISTS subscribers (
		email TEXT PRIMARY KEY,
		is_active BOOLEAN NOT NULL DEFAULT true,
		discount_code TEXT NOT NULL DEFAULT '',
		subscribed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

// Clients holds whichever backing stores the process was configured with.
// Either field may be nil.
type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

func (c *Clients) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
}

func ConnectPostgres(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return redisClient, nil
}

func CreateSubscribersTable(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, subscribersSchema); err != nil {
		return fmt.Errorf("failed to create subscribers table: %w", err)
	}

	slog.Info("✅ Subscribers table is ready!")
	return nil
}
