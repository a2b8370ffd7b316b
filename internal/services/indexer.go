package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	TaskTypeIndexListing      = "listing:index"
	TaskTypeNotificationEmail = "notify:email"

	IndexKindJob     = "job"
	IndexKindProfile = "profile"
	IndexKindService = "service"
)

// IndexTask asks for a listing's translations and embedding to be refreshed.
type IndexTask struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type EmailTask struct {
	NotificationID string `json:"notificationId"`
}

// Indexer fills missing translations of listings and stores the
// embeddings used by matching.
type Indexer struct {
	db         *gorm.DB
	embedder   Embedder
	translator Translator
}

func NewIndexer(db *gorm.DB, embedder Embedder, translator Translator) *Indexer {
	return &Indexer{db: db, embedder: embedder, translator: translator}
}

// RegisterTasks wires the background task handlers into mux.
func RegisterTasks(mux *queue.Mux, indexer *Indexer, delivery *EmailDelivery) {
	mux.Handle(TaskTypeIndexListing, func(ctx context.Context, payload []byte) error {
		var task IndexTask
		if err := json.Unmarshal(payload, &task); err != nil {
			return err
		}
		return indexer.Index(ctx, &task)
	})
	mux.Handle(TaskTypeNotificationEmail, func(ctx context.Context, payload []byte) error {
		var task EmailTask
		if err := json.Unmarshal(payload, &task); err != nil {
			return err
		}
		return delivery.Deliver(ctx, task.NotificationID)
	})
}

type embeddable interface {
	EmbeddingText() string
}

func (ix *Indexer) Index(ctx context.Context, task *IndexTask) error {
	var entity models.Translatable
	var localizedColumns []string

	switch task.Kind {
	case IndexKindJob:
		entity = &models.Job{}
		localizedColumns = []string{"title_en", "title_ar", "description_en", "description_ar"}
	case IndexKindProfile:
		entity = &models.ProfessionalProfile{}
		localizedColumns = []string{"bio_en", "bio_ar"}
	case IndexKindService:
		entity = &models.Service{}
		localizedColumns = []string{"title_en", "title_ar", "description_en", "description_ar"}
	default:
		return fmt.Errorf("unknown index kind %q", task.Kind)
	}

	db := ix.db.WithContext(ctx)
	if err := db.First(entity, "id = ?", task.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deleted before the task ran
			return nil
		}
		return err
	}

	translated, err := FillTranslations(ctx, ix.translator, entity)
	if err != nil {
		logger.Warn().Err(err).Str("kind", task.Kind).Str("id", task.ID).Msg("[Index] Translation skipped")
	}
	if translated {
		if err := db.Model(entity).Select(localizedColumns).Updates(entity).Error; err != nil {
			return err
		}
	}

	e, ok := entity.(embeddable)
	if !ok || ix.embedder == nil {
		return nil
	}

	pctx, cancel := providerContext(ctx)
	vec, err := ix.embedder.Embed(pctx, e.EmbeddingText())
	cancel()
	if err != nil {
		return fmt.Errorf("embed %s %s: %w", task.Kind, task.ID, err)
	}
	if err := db.Model(entity).UpdateColumn("embedding", models.Vector(vec)).Error; err != nil {
		return err
	}

	logger.Debug().Str("kind", task.Kind).Str("id", task.ID).Int("dims", len(vec)).Msg("[Index] Listing indexed")
	return nil
}
