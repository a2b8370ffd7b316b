package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewProjectService(db *gorm.DB, notifier Notifier) *ProjectService {
	return &ProjectService{db: db, notifier: notifier}
}

// ProjectRole is the side a user takes in a project.
type ProjectRole string

const (
	RoleCompany      ProjectRole = "company"
	RoleProfessional ProjectRole = "professional"
	RoleAdmin        ProjectRole = "admin"
)

type CreateProjectRequest struct {
	JobID          *string    `json:"jobId"`
	ServiceID      *string    `json:"serviceId"`
	ProfessionalID string     `json:"professionalId" binding:"required"`
	Title          string     `json:"title" binding:"required,max=255"`
	Description    string     `json:"description"`
	TotalAmount    string     `json:"totalAmount" binding:"required,money"`
	Currency       string     `json:"currency" binding:"omitempty,len=3"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
}

type UpdateProjectRequest struct {
	Title       *string               `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status" binding:"omitempty,oneof=pending active in_review completed cancelled"`
	StartDate   *time.Time            `json:"startDate"`
	EndDate     *time.Time            `json:"endDate"`
}

type MilestoneRequest struct {
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	Amount      string     `json:"amount" binding:"required,money"`
	DueDate     *time.Time `json:"dueDate"`
}

type MilestoneStatusRequest struct {
	Status models.MilestoneStatus `json:"status" binding:"required,oneof=pending in_progress completed"`
}

// Create opens a project between the company and a professional. A job,
// when given, must belong to the company.
func (s *ProjectService) Create(ctx context.Context, companyID string, req *CreateProjectRequest) (*models.Project, error) {
	v := &validator{}
	amount, err := models.ParseMoney(req.TotalAmount)
	v.check(err == nil, "totalAmount", "must be a decimal amount with at most 2 fractional digits")
	v.check(strings.TrimSpace(req.Title) != "", "title", "is required")
	if req.StartDate != nil && req.EndDate != nil {
		v.check(!req.EndDate.Before(*req.StartDate), "endDate", "must not be before startDate")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	project := models.Project{
		JobID:          req.JobID,
		CompanyID:      companyID,
		ProfessionalID: req.ProfessionalID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Status:         models.ProjectPending,
		TotalAmount:    amount,
		Currency:       currencyOr(req.Currency, "USD"),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}

	var professionalUserID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var professional models.ProfessionalProfile
		if err := tx.Select("id", "user_id").First(&professional, "id = ?", req.ProfessionalID).Error; err != nil {
			return lookupErr(err, "professional profile")
		}
		professionalUserID = professional.UserID

		if req.JobID != nil && *req.JobID != "" {
			var job models.Job
			if err := tx.Select("id", "company_id").First(&job, "id = ?", *req.JobID).Error; err != nil {
				return lookupErr(err, "job")
			}
			if job.CompanyID != companyID {
				return invalid("jobId", "must belong to the company")
			}
		} else {
			project.JobID = nil
		}

		if req.ServiceID != nil && *req.ServiceID != "" {
			result := tx.Model(&models.Service{}).
				Where("id = ? AND profile_id = ?", *req.ServiceID, req.ProfessionalID).
				UpdateColumn("conversion_count", gorm.Expr("conversion_count + ?", 1))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return invalid("serviceId", "must belong to the professional")
			}
		}

		if err := tx.Create(&project).Error; err != nil {
			return writeErr(err, "project")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, &NotifyInput{
		UserID:  professionalUserID,
		Type:    NotificationProjectCreated,
		Title:   models.LocalizedText{En: "New project", Ar: "مشروع جديد"},
		Message: models.LocalizedText{En: project.Title},
		Link:    "/projects/" + project.ID,
	})
	return &project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Professional").
		Preload("Professional.User", publicUserColumns).
		Preload("Job").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, "project")
	}
	return &project, nil
}

// Access returns the project and the side userID takes in it. Users who
// are neither party get ErrForbidden; admins see every project.
func (s *ProjectService) Access(ctx context.Context, id string, user *models.User) (*models.Project, ProjectRole, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	role, ok := projectRole(project, user.ID)
	if !ok {
		if user.UserType == models.UserTypeAdmin {
			return project, RoleAdmin, nil
		}
		return nil, "", fmt.Errorf("not a participant of this project: %w", ErrForbidden)
	}
	return project, role, nil
}

func projectRole(p *models.Project, userID string) (ProjectRole, bool) {
	switch {
	case p.Company != nil && p.Company.UserID == userID:
		return RoleCompany, true
	case p.Professional != nil && p.Professional.UserID == userID:
		return RoleProfessional, true
	}
	return "", false
}

// counterpart returns the user on the other side of the project.
func counterpart(p *models.Project, userID string) string {
	if p.Company == nil || p.Professional == nil {
		return ""
	}
	if p.Company.UserID == userID {
		return p.Professional.UserID
	}
	return p.Company.UserID
}

// Update edits project details and moves its status along the project
// lifecycle. Completing a project refreshes the professional's totals in
// the same transaction.
func (s *ProjectService) Update(ctx context.Context, id, actorID string, req *UpdateProjectRequest) (*models.Project, error) {
	var statusChanged bool
	var project models.Project

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Company").Preload("Professional").First(&project, "id = ?", id).Error; err != nil {
			return lookupErr(err, "project")
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.StartDate != nil {
			updates["start_date"] = *req.StartDate
		}
		if req.EndDate != nil {
			updates["end_date"] = *req.EndDate
		}

		if req.Status != nil && *req.Status != project.Status {
			if !project.Status.CanTransitionTo(*req.Status) {
				return transitionErr("project", project.Status, *req.Status)
			}
			updates["status"] = *req.Status
			if *req.Status == models.ProjectCompleted {
				updates["completed_at"] = time.Now()
			}
			statusChanged = true
		}

		if len(updates) == 0 {
			return nil
		}

		query := tx.Model(&models.Project{}).Where("id = ?", project.ID)
		if statusChanged {
			query = query.Where("status = ?", project.Status)
		}
		result := query.Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if statusChanged && result.RowsAffected == 0 {
			return transitionErr("project", "a concurrent update", *req.Status)
		}

		if statusChanged && *req.Status == models.ProjectCompleted {
			return recomputeProfessionalAggregates(tx, project.ProfessionalID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusChanged {
		notify(ctx, s.notifier, &NotifyInput{
			UserID:  counterpart(&project, actorID),
			Type:    NotificationProjectStatus,
			Title:   models.LocalizedText{En: "Project status changed", Ar: "تغيرت حالة المشروع"},
			Message: models.LocalizedText{En: fmt.Sprintf("%s is now %s", project.Title, *req.Status)},
			Link:    "/projects/" + project.ID,
		})
	}
	return s.Get(ctx, id)
}

func (s *ProjectService) AddMilestone(ctx context.Context, projectID string, req *MilestoneRequest) (*models.Milestone, error) {
	amount, err := models.ParseMoney(req.Amount)
	if err != nil {
		return nil, invalid("amount", "must be a decimal amount with at most 2 fractional digits")
	}

	milestone := models.Milestone{
		ProjectID:   projectID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Amount:      amount,
		DueDate:     req.DueDate,
		Status:      models.MilestonePending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Select("id", "status").First(&project, "id = ?", projectID).Error; err != nil {
			return lookupErr(err, "project")
		}
		if project.Status.Terminal() {
			return fmt.Errorf("project is %s: %w", project.Status, ErrConflict)
		}

		var count int64
		if err := tx.Model(&models.Milestone{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
			return err
		}
		milestone.Position = int(count)
		return tx.Create(&milestone).Error
	})
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (s *ProjectService) ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error) {
	milestones := []models.Milestone{}
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("position ASC").Find(&milestones).Error
	return milestones, err
}

// GetMilestone returns the milestone; callers check access through its
// project.
func (s *ProjectService) GetMilestone(ctx context.Context, id string) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := s.db.WithContext(ctx).First(&milestone, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "milestone")
	}
	return &milestone, nil
}

func (s *ProjectService) UpdateMilestoneStatus(ctx context.Context, id, actorID string, status models.MilestoneStatus) (*models.Milestone, error) {
	var milestone models.Milestone
	var project models.Project
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&milestone, "id = ?", id).Error; err != nil {
			return lookupErr(err, "milestone")
		}
		if err := tx.Preload("Company").Preload("Professional").First(&project, "id = ?", milestone.ProjectID).Error; err != nil {
			return lookupErr(err, "project")
		}
		if milestone.Status == status {
			return nil
		}
		if !milestone.Status.CanTransitionTo(status) {
			return transitionErr("milestone", milestone.Status, status)
		}

		updates := map[string]interface{}{"status": status}
		if status == models.MilestoneCompleted {
			now := time.Now()
			updates["completed_at"] = now
			milestone.CompletedAt = &now
		}
		result := tx.Model(&models.Milestone{}).Where("id = ? AND status = ?", id, milestone.Status).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return transitionErr("milestone", "a concurrent update", status)
		}
		milestone.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed && status == models.MilestoneCompleted {
		notify(ctx, s.notifier, &NotifyInput{
			UserID:  counterpart(&project, actorID),
			Type:    NotificationMilestone,
			Title:   models.LocalizedText{En: "Milestone completed", Ar: "اكتملت مرحلة"},
			Message: models.LocalizedText{En: milestone.Title},
			Link:    "/projects/" + project.ID,
		})
	}
	return &milestone, nil
}
