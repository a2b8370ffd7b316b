package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"gorm.io/gorm"
)

type JobService struct {
	db       *gorm.DB
	queue    queue.TaskQueue
	notifier Notifier
}

func NewJobService(db *gorm.DB, q queue.TaskQueue, notifier Notifier) *JobService {
	return &JobService{db: db, queue: q, notifier: notifier}
}

type CreateJobRequest struct {
	Title                models.LocalizedText  `json:"title"`
	TitleAr              *string               `json:"titleAr"`
	Description          models.LocalizedText  `json:"description"`
	DescriptionAr        *string               `json:"descriptionAr"`
	JobType              models.JobType        `json:"jobType" binding:"required,oneof=training coaching elearning facilitation consulting"`
	SkillsRequired       []string              `json:"skillsRequired" binding:"omitempty,max=50"`
	Duration             string                `json:"duration" binding:"max=100"`
	Budget               *string               `json:"budget" binding:"omitempty,money"`
	Currency             string                `json:"currency" binding:"omitempty,len=3"`
	DeliveryFormat       models.DeliveryFormat `json:"deliveryFormat" binding:"omitempty,oneof=onsite remote hybrid"`
	Location             string                `json:"location" binding:"max=255"`
	StartDate            *time.Time            `json:"startDate"`
	Deadline             *time.Time            `json:"deadline"`
	LanguageRequirements []string              `json:"languageRequirements"`
	IsPublic             *bool                 `json:"isPublic"`
	IsFeatured           bool                  `json:"isFeatured"`
	IsUrgent             bool                  `json:"isUrgent"`
}

type UpdateJobRequest struct {
	Title                *models.LocalizedText  `json:"title"`
	TitleAr              *string                `json:"titleAr"`
	Description          *models.LocalizedText  `json:"description"`
	DescriptionAr        *string                `json:"descriptionAr"`
	JobType              *models.JobType        `json:"jobType" binding:"omitempty,oneof=training coaching elearning facilitation consulting"`
	SkillsRequired       []string               `json:"skillsRequired" binding:"omitempty,max=50"`
	Duration             *string                `json:"duration" binding:"omitempty,max=100"`
	Budget               *string                `json:"budget" binding:"omitempty,money"`
	Currency             *string                `json:"currency" binding:"omitempty,len=3"`
	DeliveryFormat       *models.DeliveryFormat `json:"deliveryFormat" binding:"omitempty,oneof=onsite remote hybrid"`
	Location             *string                `json:"location" binding:"omitempty,max=255"`
	StartDate            *time.Time             `json:"startDate"`
	Deadline             *time.Time             `json:"deadline"`
	LanguageRequirements []string               `json:"languageRequirements"`
	IsPublic             *bool                  `json:"isPublic"`
	IsFeatured           *bool                  `json:"isFeatured"`
	IsUrgent             *bool                  `json:"isUrgent"`
}

type JobListRequest struct {
	PageRequest
	JobType  models.JobType `form:"jobType" binding:"omitempty,oneof=training coaching elearning facilitation consulting"`
	Featured bool           `form:"featured"`
	Urgent   bool           `form:"urgent"`
}

type InvitationRequest struct {
	ProfileID string `json:"profileId" binding:"required"`
	Message   string `json:"message" binding:"max=2000"`
}

type InvitationResponseRequest struct {
	Status models.InvitationStatus `json:"status" binding:"required,oneof=accepted declined"`
}

func (s *JobService) Create(ctx context.Context, companyID, postedBy string, req *CreateJobRequest) (*models.Job, error) {
	v := &validator{}
	title := localized(req.Title, req.TitleAr)
	v.check(!title.IsZero(), "title", "is required")
	budget := parseMoneyField(v, "budget", req.Budget)
	if req.StartDate != nil && req.Deadline != nil {
		v.check(!req.Deadline.Before(*req.StartDate), "deadline", "must not be before startDate")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	job := models.Job{
		CompanyID:            companyID,
		PostedBy:             postedBy,
		Title:                title,
		Description:          localized(req.Description, req.DescriptionAr),
		JobType:              req.JobType,
		SkillsRequired:       models.Strings(req.SkillsRequired),
		Duration:             req.Duration,
		Budget:               budget,
		Currency:             currencyOr(req.Currency, "USD"),
		DeliveryFormat:       req.DeliveryFormat,
		Location:             strings.TrimSpace(req.Location),
		StartDate:            req.StartDate,
		Deadline:             req.Deadline,
		LanguageRequirements: models.Strings(req.LanguageRequirements),
		IsPublic:             req.IsPublic == nil || *req.IsPublic,
		IsFeatured:           req.IsFeatured,
		IsUrgent:             req.IsUrgent,
	}
	if job.DeliveryFormat == "" {
		job.DeliveryFormat = models.DeliveryRemote
	}

	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, writeErr(err, "job")
	}
	enqueueIndex(s.queue, IndexKindJob, job.ID)
	return &job, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).Preload("Company").First(&job, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "job")
	}
	return &job, nil
}

// RecordView increments the view counter without touching updatedAt.
func (s *JobService) RecordView(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (s *JobService) owned(ctx context.Context, companyID, id string) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
		return nil, lookupErr(err, "job")
	}
	return &job, nil
}

func (s *JobService) Update(ctx context.Context, companyID, id string, req *UpdateJobRequest) (*models.Job, error) {
	job, err := s.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	v := &validator{}
	if req.Title != nil || req.TitleAr != nil {
		title := job.Title
		if req.Title != nil {
			title = *req.Title
		}
		job.Title = localized(title, req.TitleAr)
		v.check(!job.Title.IsZero(), "title", "must not be empty")
	}
	if req.Description != nil || req.DescriptionAr != nil {
		description := job.Description
		if req.Description != nil {
			description = *req.Description
		}
		job.Description = localized(description, req.DescriptionAr)
	}
	if req.JobType != nil {
		job.JobType = *req.JobType
	}
	if req.SkillsRequired != nil {
		job.SkillsRequired = models.Strings(req.SkillsRequired)
	}
	if req.Duration != nil {
		job.Duration = *req.Duration
	}
	if req.Budget != nil {
		job.Budget = parseMoneyField(v, "budget", req.Budget)
	}
	if req.Currency != nil {
		job.Currency = currencyOr(*req.Currency, job.Currency)
	}
	if req.DeliveryFormat != nil {
		job.DeliveryFormat = *req.DeliveryFormat
	}
	if req.Location != nil {
		job.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartDate != nil {
		job.StartDate = req.StartDate
	}
	if req.Deadline != nil {
		job.Deadline = req.Deadline
	}
	if job.StartDate != nil && job.Deadline != nil {
		v.check(!job.Deadline.Before(*job.StartDate), "deadline", "must not be before startDate")
	}
	if req.LanguageRequirements != nil {
		job.LanguageRequirements = models.Strings(req.LanguageRequirements)
	}
	if req.IsPublic != nil {
		job.IsPublic = *req.IsPublic
	}
	if req.IsFeatured != nil {
		job.IsFeatured = *req.IsFeatured
	}
	if req.IsUrgent != nil {
		job.IsUrgent = *req.IsUrgent
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(job).Select(
		"title_en", "title_ar", "description_en", "description_ar", "job_type", "skills_required",
		"duration", "budget", "currency", "delivery_format", "location", "start_date", "deadline",
		"language_requirements", "is_public", "is_featured", "is_urgent", "updated_at",
	).Updates(job).Error
	if err != nil {
		return nil, err
	}
	enqueueIndex(s.queue, IndexKindJob, job.ID)
	return job, nil
}

// Delete removes a job and its invitations. Jobs that became projects
// are kept.
func (s *JobService) Delete(ctx context.Context, companyID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.First(&job, "id = ? AND company_id = ?", id, companyID).Error; err != nil {
			return lookupErr(err, "job")
		}

		var projects int64
		if err := tx.Model(&models.Project{}).Where("job_id = ?", id).Count(&projects).Error; err != nil {
			return err
		}
		if projects > 0 {
			return fmt.Errorf("job has %d projects: %w", projects, ErrConflict)
		}

		if err := tx.Where("job_id = ?", id).Delete(&models.JobInvitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&job).Error
	})
}

// ListPublic returns public jobs, newest first.
func (s *JobService) ListPublic(ctx context.Context, req *JobListRequest) ([]models.Job, error) {
	query := s.db.WithContext(ctx).Model(&models.Job{}).Where("is_public = ?", true)
	if req.JobType != "" {
		query = query.Where("job_type = ?", req.JobType)
	}
	if req.Featured {
		query = query.Where("is_featured = ?", true)
	}
	if req.Urgent {
		query = query.Where("is_urgent = ?", true)
	}

	jobs := []models.Job{}
	err := query.Order("created_at DESC").
		Limit(req.limit()).Offset(req.Offset).Find(&jobs).Error
	return jobs, err
}

// Invite asks a professional to apply for one of the company's jobs.
func (s *JobService) Invite(ctx context.Context, companyID, jobID string, req *InvitationRequest) (*models.JobInvitation, error) {
	job, err := s.owned(ctx, companyID, jobID)
	if err != nil {
		return nil, err
	}

	var profile models.ProfessionalProfile
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&profile, "id = ?", req.ProfileID).Error; err != nil {
		return nil, lookupErr(err, "professional profile")
	}

	invitation := models.JobInvitation{
		JobID:     job.ID,
		ProfileID: profile.ID,
		Message:   strings.TrimSpace(req.Message),
		Status:    models.InvitationPending,
	}
	if err := s.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		return nil, writeErr(err, "invitation")
	}

	notify(ctx, s.notifier, &NotifyInput{
		UserID:  profile.UserID,
		Type:    NotificationJobInvitation,
		Title:   models.LocalizedText{En: "New job invitation", Ar: "دعوة عمل جديدة"},
		Message: job.Title,
		Link:    "/jobs/" + job.ID,
	})
	return &invitation, nil
}

// ListInvitations returns the invitations addressed to a professional.
func (s *JobService) ListInvitations(ctx context.Context, profileID string) ([]models.JobInvitation, error) {
	invitations := []models.JobInvitation{}
	err := s.db.WithContext(ctx).Preload("Job").
		Where("profile_id = ?", profileID).
		Order("created_at DESC").Find(&invitations).Error
	return invitations, err
}

// RespondInvitation accepts or declines a pending invitation. Accepting
// counts as an application on the job.
func (s *JobService) RespondInvitation(ctx context.Context, profileID, id string, status models.InvitationStatus) (*models.JobInvitation, error) {
	var invitation models.JobInvitation
	var companyUserID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Job.Company").First(&invitation, "id = ? AND profile_id = ?", id, profileID).Error; err != nil {
			return lookupErr(err, "invitation")
		}
		if !invitation.Status.CanTransitionTo(status) {
			return transitionErr("invitation", invitation.Status, status)
		}

		now := time.Now()
		result := tx.Model(&models.JobInvitation{}).
			Where("id = ? AND status = ?", invitation.ID, invitation.Status).
			Updates(map[string]interface{}{"status": status, "responded_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return transitionErr("invitation", "a concurrent update", status)
		}

		if status == models.InvitationAccepted {
			if err := tx.Model(&models.Job{}).Where("id = ?", invitation.JobID).
				UpdateColumn("application_count", gorm.Expr("application_count + ?", 1)).Error; err != nil {
				return err
			}
		}

		invitation.Status = status
		invitation.RespondedAt = &now
		if invitation.Job != nil && invitation.Job.Company != nil {
			companyUserID = invitation.Job.Company.UserID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if companyUserID != "" {
		title := models.LocalizedText{En: "Invitation accepted", Ar: "تم قبول الدعوة"}
		if status == models.InvitationDeclined {
			title = models.LocalizedText{En: "Invitation declined", Ar: "تم رفض الدعوة"}
		}
		notify(ctx, s.notifier, &NotifyInput{
			UserID:  companyUserID,
			Type:    NotificationInvitationResponse,
			Title:   title,
			Message: invitation.Job.Title,
			Link:    "/jobs/" + invitation.JobID,
		})
	}
	return &invitation, nil
}
