// Package dispatch drives accepted upload batches through the per-message
// pipeline: classify → validate → template → enhance → store.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carelane/reply-engine/internal/core/domain"
	"github.com/carelane/reply-engine/internal/core/llm"
	"github.com/carelane/reply-engine/internal/storage"
)

// Repository is the storage surface the dispatcher depends on.
type Repository interface {
	GetUploadBatch(ctx context.Context, key string) ([]byte, error)
	GetTemplate(ctx context.Context, intent string, channel domain.Channel) (string, error)
	InsertConversation(ctx context.Context, rec *domain.ConversationRecord) error
}

// Compile-time assertion that *storage.DB implements Repository.
var _ Repository = (*storage.DB)(nil)

// Summary reports the outcome of one batch dispatch. Per-row failures
// are data, not errors: the invocation as a whole still succeeds.
type Summary struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

type Dispatcher struct {
	repo      Repository
	llmClient llm.Client
	rowLimit  int
	logger    *zerolog.Logger
}

func New(repo Repository, llmClient llm.Client, rowLimit int, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		llmClient: llmClient,
		rowLimit:  rowLimit,
		logger:    logger,
	}
}

// ProcessBatch streams the batch referenced by the notification and runs
// the per-row pipeline over a bounded prefix of its rows. A batch that
// cannot be fetched or parsed is fatal for the invocation; everything
// after that is isolated per row.
//
// Each successful row mints a fresh record id, so replaying the same
// notification produces duplicate conversation records.
func (d *Dispatcher) ProcessBatch(ctx context.Context, n domain.BatchNotification) (*Summary, error) {
	raw, err := d.repo.GetUploadBatch(ctx, n.BucketKey)
	if err != nil {
		return nil, fmt.Errorf("fetch batch %s: %w", n.BucketKey, err)
	}

	batch, err := domain.DecodeBatch(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", n.BucketKey, err)
	}

	records := batch.Records
	if d.rowLimit > 0 && len(records) > d.rowLimit {
		records = records[:d.rowLimit]
	}

	summary := &Summary{}

	for i, record := range records {
		stored, err := d.processRecord(ctx, record)

		switch {
		case err != nil:
			rowFailures.Inc()
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", i+2, err))
			d.logger.Error().Err(err).Int("line", i+2).Str("bucket_key", n.BucketKey).Msg("row processing failed")
		case stored:
			rowsProcessed.Inc()
			summary.Processed++
		default:
			summary.Skipped++
		}
	}

	d.logger.Info().
		Str("bucket_key", n.BucketKey).
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Errors)).
		Msg("batch dispatched")

	return summary, nil
}

// processRecord runs one message through the pipeline. It reports
// (false, nil) when the row is skipped: failed validation or an empty
// intent list stores nothing and is not an error.
func (d *Dispatcher) processRecord(ctx context.Context, record domain.MessageRecord) (bool, error) {
	intents, err := d.llmClient.ClassifyIntent(ctx, record.Message)
	if err != nil {
		return false, err
	}

	valid, err := d.llmClient.ValidateIntent(ctx, record.Message, intents)
	if err != nil {
		return false, err
	}

	if !valid || len(intents) == 0 {
		return false, nil
	}

	channel, _ := domain.ParseChannel(record.Channel)

	replies := make([]string, 0, len(intents))

	for _, intent := range intents {
		template, err := d.repo.GetTemplate(ctx, intent.Label, channel)
		if err != nil {
			return false, err
		}

		replies = append(replies, personalize(template, record))
	}

	response, err := d.llmClient.EnhanceResponse(ctx, strings.Join(replies, "\n"), record.Sender)
	if err != nil {
		return false, err
	}

	rec := &domain.ConversationRecord{
		Sender:   record.Sender,
		Receiver: record.Receiver,
		Message:  record.Message,
		Channel:  channel,
		Intents:  domain.IntentLabels(intents),
		Response: response,
	}

	if err := d.repo.InsertConversation(ctx, rec); err != nil {
		return false, err
	}

	return true, nil
}

// personalize substitutes the sender and receiver identifiers into a
// template's placeholder tokens.
func personalize(template string, record domain.MessageRecord) string {
	return strings.NewReplacer(
		domain.SenderPlaceholder, record.Sender,
		domain.ReceiverPlaceholder, record.Receiver,
	).Replace(template)
}
