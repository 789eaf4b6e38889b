package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carelane/reply-engine/internal/core/domain"
)

const defaultListLimit = 10

// InsertConversation persists a new conversation record. The store
// assigns the id; a single attempt is made and failures surface verbatim.
func (db *DB) InsertConversation(ctx context.Context, rec *domain.ConversationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO conversations (id, sender_username, receiver_username, message, channel, intents, response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Sender, rec.Receiver, rec.Message, string(rec.Channel), rec.Intents, rec.Response,
	); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	return nil
}

// ListConversations returns a page of conversation summaries using keyset
// pagination. startKey is the opaque continuation token from a previous
// page (the last seen id); the returned token is empty on the final page.
func (db *DB) ListConversations(ctx context.Context, limit int, startKey string) ([]domain.ConversationSummary, string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, sender_username, receiver_username, message, channel
		 FROM conversations
		 WHERE $1 = '' OR id > $1
		 ORDER BY id
		 LIMIT $2`,
		startKey, limit,
	)
	if err != nil {
		return nil, "", fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.ConversationSummary

	for rows.Next() {
		var c domain.ConversationSummary

		var channel string

		if err := rows.Scan(&c.ID, &c.Sender, &c.Receiver, &c.Message, &channel); err != nil {
			return nil, "", fmt.Errorf("scan conversation: %w", err)
		}

		c.Channel = domain.Channel(channel)
		conversations = append(conversations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate conversations: %w", err)
	}

	lastKey := ""
	if len(conversations) == limit {
		lastKey = conversations[len(conversations)-1].ID
	}

	return conversations, lastKey, nil
}

// GetConversation fetches one record by id. A miss returns ErrNotFound.
func (db *DB) GetConversation(ctx context.Context, id string) (*domain.ConversationRecord, error) {
	rec := &domain.ConversationRecord{}

	var channel string

	err := db.Pool.QueryRow(ctx,
		`SELECT id, sender_username, receiver_username, message, channel, intents, response, created_at
		 FROM conversations WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Sender, &rec.Receiver, &rec.Message, &channel, &rec.Intents, &rec.Response, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get conversation %s: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("get conversation: %w", err)
	}

	rec.Channel = domain.Channel(channel)

	return rec, nil
}
