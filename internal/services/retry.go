package services

import (
	"context"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

const RetryBatchSize = 50

// RetryService re-enqueues indexing for public listings that still have no
// embedding, typically because the provider was down when they were saved.
type RetryService struct {
	db       *gorm.DB
	queue    queue.TaskQueue
	embedder Embedder
}

func NewRetryService(db *gorm.DB, q queue.TaskQueue, embedder Embedder) *RetryService {
	return &RetryService{db: db, queue: q, embedder: embedder}
}

// missingEmbedding matches rows never embedded. A nil slice is stored as
// JSON null by some drivers and as SQL NULL by others.
func missingEmbedding(db *gorm.DB) *gorm.DB {
	return db.Where("embedding IS NULL OR embedding = ?", "null")
}

// ProcessUnindexed enqueues up to RetryBatchSize jobs and profiles each and
// returns how many were enqueued.
func (s *RetryService) ProcessUnindexed(ctx context.Context) (int, error) {
	if s.embedder == nil || s.queue == nil {
		return 0, nil
	}
	db := s.db.WithContext(ctx)

	var jobIDs []string
	err := missingEmbedding(db.Model(&models.Job{}).Where("is_public = ?", true)).
		Order("created_at DESC").Limit(RetryBatchSize).Pluck("id", &jobIDs).Error
	if err != nil {
		return 0, err
	}

	var profileIDs []string
	err = missingEmbedding(db.Model(&models.ProfessionalProfile{})).
		Order("created_at DESC").Limit(RetryBatchSize).Pluck("id", &profileIDs).Error
	if err != nil {
		return 0, err
	}

	for _, id := range jobIDs {
		enqueueIndex(s.queue, IndexKindJob, id)
	}
	for _, id := range profileIDs {
		enqueueIndex(s.queue, IndexKindProfile, id)
	}

	n := len(jobIDs) + len(profileIDs)
	if n > 0 {
		logger.Info().Int("jobs", len(jobIDs)).Int("profiles", len(profileIDs)).Msg("[Retry] Re-enqueued unindexed listings")
	}
	return n, nil
}
