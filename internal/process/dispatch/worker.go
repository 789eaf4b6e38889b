package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelane/reply-engine/internal/core/domain"
	"github.com/carelane/reply-engine/internal/storage"
)

const pendingDrainLimit = 50

// BatchQueue is the claim/ack surface over stored batches.
type BatchQueue interface {
	ClaimUploadBatch(ctx context.Context, key string) (bool, error)
	ReleaseUploadBatch(ctx context.Context, key string) error
	MarkBatchProcessed(ctx context.Context, key string) error
	ListPendingBatchKeys(ctx context.Context, limit int) ([]string, error)
}

var _ BatchQueue = (*storage.DB)(nil)

// Listener delivers batch notifications; a nil notification with nil
// error means the wait timed out.
type Listener interface {
	Wait(ctx context.Context, timeout time.Duration) (*domain.BatchNotification, error)
}

// Worker consumes batch notifications and falls back to polling pending
// batches, so a lost notification delays a batch instead of losing it.
type Worker struct {
	dispatcher   *Dispatcher
	queue        BatchQueue
	listener     Listener
	bucket       string
	pollInterval time.Duration
	logger       *zerolog.Logger
}

func NewWorker(dispatcher *Dispatcher, queue BatchQueue, listener Listener, bucket string, pollInterval time.Duration, logger *zerolog.Logger) *Worker {
	return &Worker{
		dispatcher:   dispatcher,
		queue:        queue,
		listener:     listener,
		bucket:       bucket,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run blocks until ctx is canceled, handling notifications as they
// arrive and draining pending batches on start and on every poll tick.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("dispatch worker starting")

	w.drainPending(ctx)

	for {
		if ctx.Err() != nil {
			return fmt.Errorf("dispatch worker: %w", ctx.Err())
		}

		notification, err := w.listener.Wait(ctx, w.pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("dispatch worker: %w", ctx.Err())
			}

			w.logger.Error().Err(err).Msg("notification wait failed")
			time.Sleep(time.Second)

			continue
		}

		if notification == nil {
			// Poll tick: pick up batches whose notification was lost.
			w.drainPending(ctx)

			continue
		}

		w.handle(ctx, *notification)
	}
}

func (w *Worker) drainPending(ctx context.Context) {
	keys, err := w.queue.ListPendingBatchKeys(ctx, pendingDrainLimit)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to list pending batches")

		return
	}

	for _, key := range keys {
		w.handle(ctx, domain.BatchNotification{BucketName: w.bucket, BucketKey: key})
	}
}

// handle claims the batch, dispatches it, and acks or releases it.
func (w *Worker) handle(ctx context.Context, n domain.BatchNotification) {
	claimed, err := w.queue.ClaimUploadBatch(ctx, n.BucketKey)
	if err != nil {
		w.logger.Error().Err(err).Str("bucket_key", n.BucketKey).Msg("failed to claim batch")

		return
	}

	if !claimed {
		w.logger.Debug().Str("bucket_key", n.BucketKey).Msg("batch already claimed, skipping")

		return
	}

	summary, err := w.dispatcher.ProcessBatch(ctx, n)
	if err != nil {
		w.logger.Error().Err(err).Str("bucket_key", n.BucketKey).Msg("batch dispatch failed, releasing for retry")

		if releaseErr := w.queue.ReleaseUploadBatch(ctx, n.BucketKey); releaseErr != nil {
			w.logger.Error().Err(releaseErr).Str("bucket_key", n.BucketKey).Msg("failed to release batch")
		}

		return
	}

	if err := w.queue.MarkBatchProcessed(ctx, n.BucketKey); err != nil {
		w.logger.Error().Err(err).Str("bucket_key", n.BucketKey).Msg("failed to mark batch processed")

		return
	}

	if len(summary.Errors) > 0 {
		w.logger.Warn().Strs("errors", summary.Errors).Str("bucket_key", n.BucketKey).Msg("batch processed with row failures")
	}
}
