package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Upload batch lifecycle states.
const (
	BatchStatusPending    = "pending"
	BatchStatusProcessing = "processing"
	BatchStatusProcessed  = "processed"
)

// SaveUploadBatch stores the raw payload of an accepted batch under key.
// Batches start pending; the dispatcher claims and eventually marks them
// processed.
func (db *DB) SaveUploadBatch(ctx context.Context, key string, payload []byte) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO upload_batches (key, payload, status) VALUES ($1, $2, $3)`,
		key, payload, BatchStatusPending,
	); err != nil {
		return fmt.Errorf("save upload batch: %w", err)
	}

	return nil
}

// GetUploadBatch returns the raw payload stored under key.
func (db *DB) GetUploadBatch(ctx context.Context, key string) ([]byte, error) {
	var payload []byte

	err := db.Pool.QueryRow(ctx,
		`SELECT payload FROM upload_batches WHERE key = $1`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get upload batch %s: %w", key, ErrNotFound)
		}

		return nil, fmt.Errorf("get upload batch: %w", err)
	}

	return payload, nil
}

// ClaimUploadBatch atomically moves a pending batch to processing and
// reports whether this caller won the claim. Duplicate notifications for
// the same key lose the race here.
func (db *DB) ClaimUploadBatch(ctx context.Context, key string) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE upload_batches SET status = $1 WHERE key = $2 AND status = $3`,
		BatchStatusProcessing, key, BatchStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim upload batch: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ReleaseUploadBatch returns a claimed batch to pending so a later poll
// can retry it.
func (db *DB) ReleaseUploadBatch(ctx context.Context, key string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE upload_batches SET status = $1 WHERE key = $2 AND status = $3`,
		BatchStatusPending, key, BatchStatusProcessing,
	); err != nil {
		return fmt.Errorf("release upload batch: %w", err)
	}

	return nil
}

// MarkBatchProcessed finalizes a claimed batch.
func (db *DB) MarkBatchProcessed(ctx context.Context, key string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE upload_batches SET status = $1, processed_at = now() WHERE key = $2`,
		BatchStatusProcessed, key,
	); err != nil {
		return fmt.Errorf("mark batch processed: %w", err)
	}

	return nil
}

// ListPendingBatchKeys returns keys of batches awaiting dispatch, oldest
// first.
func (db *DB) ListPendingBatchKeys(ctx context.Context, limit int) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT key FROM upload_batches WHERE status = $1 ORDER BY created_at LIMIT $2`,
		BatchStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending batches: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan pending batch key: %w", err)
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending batches: %w", err)
	}

	return keys, nil
}
