package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelane/reply-engine/internal/core/domain"
	"github.com/carelane/reply-engine/internal/storage"
)

// AcceptedMessage is echoed to the client and carried in the
// notification envelope.
const AcceptedMessage = "CSV uploaded successfully"

// Repository is the storage surface the intake service depends on.
type Repository interface {
	SaveUploadBatch(ctx context.Context, key string, payload []byte) error
	PublishBatchNotification(ctx context.Context, channel string, n domain.BatchNotification) error
}

// Compile-time assertion that *storage.DB implements Repository.
var _ Repository = (*storage.DB)(nil)

// Service validates uploads, persists accepted batches and notifies the
// dispatcher.
type Service struct {
	bucket        string
	notifyChannel string
	repo          Repository
	logger        *zerolog.Logger
}

func NewService(bucket, notifyChannel string, repo Repository, logger *zerolog.Logger) *Service {
	return &Service{
		bucket:        bucket,
		notifyChannel: notifyChannel,
		repo:          repo,
		logger:        logger,
	}
}

// Accept validates the upload and, on success, stores the raw payload
// under a fresh key and publishes a notification referencing it. The
// notification is best-effort: a publish failure is logged and counted
// but does not fail the request, because the batch is already durably
// stored in pending state and the dispatcher's poll loop will find it.
func (s *Service) Accept(ctx context.Context, req Request) (string, error) {
	_, payload, err := ValidateBatch(req)
	if err != nil {
		batchesRejected.Inc()

		return "", err
	}

	key := fmt.Sprintf("uploads/%d-%s.csv", time.Now().UnixMilli(), uuid.New())

	if err := s.repo.SaveUploadBatch(ctx, key, payload); err != nil {
		return "", fmt.Errorf("save upload batch: %w", err)
	}

	notification := domain.BatchNotification{
		Message:    AcceptedMessage,
		BucketName: s.bucket,
		BucketKey:  key,
	}

	if err := s.repo.PublishBatchNotification(ctx, s.notifyChannel, notification); err != nil {
		notifyFailures.Inc()
		s.logger.Warn().Err(err).Str("bucket_key", key).
			Msg("batch notification publish failed, dispatcher poll will pick the batch up")
	}

	batchesAccepted.Inc()
	s.logger.Info().Str("bucket_key", key).Msg("batch accepted")

	return key, nil
}
