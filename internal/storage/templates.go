package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carelane/reply-engine/internal/core/domain"
)

// TemplateFallback is returned for any (intent, channel) pair with no
// seeded template. A miss is never an error.
const TemplateFallback = "Response not found"

// GetTemplate looks up the canned reply for an intent on a channel.
func (db *DB) GetTemplate(ctx context.Context, intent string, channel domain.Channel) (string, error) {
	var response string

	err := db.Pool.QueryRow(ctx,
		`SELECT response FROM response_templates WHERE intent = $1 AND channel = $2`,
		intent, string(channel),
	).Scan(&response)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TemplateFallback, nil
		}

		return "", fmt.Errorf("get template: %w", err)
	}

	return response, nil
}
