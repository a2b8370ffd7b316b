package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
)

type ReviewService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewReviewService(db *gorm.DB, notifier Notifier) *ReviewService {
	return &ReviewService{db: db, notifier: notifier}
}

type CreateReviewRequest struct {
	ProjectID       string `json:"projectId" binding:"required"`
	Rating          int    `json:"rating" binding:"required,min=1,max=5"`
	PublicFeedback  string `json:"publicFeedback" binding:"max=5000"`
	PrivateFeedback string `json:"privateFeedback" binding:"max=5000"`
}

type ModerationRequest struct {
	Moderated *bool `json:"moderated" binding:"required"`
}

// Create records the reviewer's review of the other party of a completed
// project. When the reviewee is a professional, their rating is
// recomputed in the same transaction.
func (s *ReviewService) Create(ctx context.Context, reviewerID string, req *CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalid("rating", "must be between 1 and 5")
	}

	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Preload("Company").Preload("Professional").First(&project, "id = ?", req.ProjectID).Error; err != nil {
			return lookupErr(err, "project")
		}
		if _, ok := projectRole(&project, reviewerID); !ok {
			return fmt.Errorf("not a participant of this project: %w", ErrForbidden)
		}
		if project.Status != models.ProjectCompleted {
			return fmt.Errorf("project is %s, reviews need a completed project: %w", project.Status, ErrConflict)
		}

		review = models.Review{
			ProjectID:       project.ID,
			ReviewerID:      reviewerID,
			RevieweeID:      counterpart(&project, reviewerID),
			Rating:          req.Rating,
			PublicFeedback:  strings.TrimSpace(req.PublicFeedback),
			PrivateFeedback: strings.TrimSpace(req.PrivateFeedback),
			IsVerified:      true,
			IsModerated:     false,
		}
		if err := tx.Create(&review).Error; err != nil {
			return writeErr(err, "review for this project")
		}

		if review.RevieweeID == project.Professional.UserID {
			return recomputeProfessionalAggregates(tx, project.ProfessionalID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, &NotifyInput{
		UserID:  review.RevieweeID,
		Type:    NotificationReview,
		Title:   models.LocalizedText{En: "You received a review", Ar: "لقد تلقيت تقييماً"},
		Message: models.LocalizedText{En: fmt.Sprintf("%d/5", review.Rating)},
		Link:    "/projects/" + review.ProjectID,
	})
	return &review, nil
}

// ListForUser returns visible reviews about userID. Private feedback is
// only for the platform and is stripped.
func (s *ReviewService) ListForUser(ctx context.Context, userID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).
		Where("reviewee_id = ? AND is_moderated = ?", userID, false).
		Order("created_at DESC").Find(&reviews).Error
	for i := range reviews {
		reviews[i].PrivateFeedback = ""
	}
	return reviews, err
}

func (s *ReviewService) ListByProject(ctx context.Context, projectID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).Where("project_id = ? AND is_moderated = ?", projectID, false).
		Order("created_at ASC").Find(&reviews).Error
	for i := range reviews {
		reviews[i].PrivateFeedback = ""
	}
	return reviews, err
}

// Moderate hides or restores a review and refreshes the reviewee's rating.
func (s *ReviewService) Moderate(ctx context.Context, id string, moderated bool) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return lookupErr(err, "review")
		}
		if err := tx.Model(&review).UpdateColumn("is_moderated", moderated).Error; err != nil {
			return err
		}
		review.IsModerated = moderated
		return recomputeAggregatesForUser(tx, review.RevieweeID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}
