package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// PublishBatchNotification emits the intake→dispatch handoff envelope on
// a Postgres notification channel. Delivery is at-most-once to currently
// connected listeners; the pending batch status is the durable fallback.
func (db *DB) PublishBatchNotification(ctx context.Context, channel string, n domain.BatchNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal batch notification: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, `SELECT pg_notify($1, $2)`, channel, string(payload)); err != nil {
		return fmt.Errorf("publish batch notification: %w", err)
	}

	return nil
}

// BatchListener holds a dedicated connection subscribed to the batch
// notification channel.
type BatchListener struct {
	conn   *pgxpool.Conn
	logger *zerolog.Logger
}

// ListenForBatches subscribes a pooled connection to channel.
func (db *DB) ListenForBatches(ctx context.Context, channel string) (*BatchListener, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()

		return nil, fmt.Errorf("listen on %s: %w", channel, err)
	}

	return &BatchListener{conn: conn, logger: db.Logger}, nil
}

// Wait blocks until a notification arrives or timeout elapses. A timeout
// returns (nil, nil) so callers can interleave poll work.
func (l *BatchListener) Wait(ctx context.Context, timeout time.Duration) (*domain.BatchNotification, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pgNotification, err := l.conn.Conn().WaitForNotification(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil
		}

		return nil, fmt.Errorf("wait for notification: %w", err)
	}

	n := &domain.BatchNotification{}
	if err := json.Unmarshal([]byte(pgNotification.Payload), n); err != nil {
		return nil, fmt.Errorf("decode batch notification: %w", err)
	}

	return n, nil
}

// Close releases the listener's connection back to the pool.
func (l *BatchListener) Close() {
	l.conn.Release()
}
