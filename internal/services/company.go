package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
)

type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// CompanyProfileRequest creates or partially updates a company profile.
type CompanyProfileRequest struct {
	CompanyName   *models.LocalizedText `json:"companyName"`
	CompanyNameAr *string               `json:"companyNameAr"`
	LogoURL       *string               `json:"logoUrl" binding:"omitempty,url,max=500"`
	Industry      *string               `json:"industry" binding:"omitempty,max=100"`
	CompanySize   *string               `json:"companySize" binding:"omitempty,max=50"`
	Country       *string               `json:"country" binding:"omitempty,max=100"`
	Website       *string               `json:"website" binding:"omitempty,url,max=500"`
	BillingEmail  *string               `json:"billingEmail" binding:"omitempty,email,max=255"`
	VATNumber     *string               `json:"vatNumber" binding:"omitempty,max=64"`
}

type TeamMemberRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Role   models.TeamRole `json:"role" binding:"omitempty,oneof=admin recruiter viewer"`
}

func applyCompanyRequest(c *models.CompanyProfile, req *CompanyProfileRequest) {
	if req.CompanyName != nil || req.CompanyNameAr != nil {
		name := c.CompanyName
		if req.CompanyName != nil {
			name = *req.CompanyName
		}
		c.CompanyName = localized(name, req.CompanyNameAr)
	}
	if req.LogoURL != nil {
		c.LogoURL = *req.LogoURL
	}
	if req.Industry != nil {
		c.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.CompanySize != nil {
		c.CompanySize = *req.CompanySize
	}
	if req.Country != nil {
		c.Country = strings.TrimSpace(*req.Country)
	}
	if req.Website != nil {
		c.Website = *req.Website
	}
	if req.BillingEmail != nil {
		c.BillingEmail = strings.ToLower(strings.TrimSpace(*req.BillingEmail))
	}
	if req.VATNumber != nil {
		c.VATNumber = *req.VATNumber
	}
}

func (s *CompanyService) Create(ctx context.Context, userID string, req *CompanyProfileRequest) (*models.CompanyProfile, error) {
	company := models.CompanyProfile{UserID: userID}
	applyCompanyRequest(&company, req)
	if company.CompanyName.IsZero() {
		return nil, invalid("companyName", "is required")
	}

	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, writeErr(err, "company profile")
	}
	return &company, nil
}

func (s *CompanyService) GetByID(ctx context.Context, id string) (*models.CompanyProfile, error) {
	var company models.CompanyProfile
	if err := s.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "company profile")
	}
	return &company, nil
}

func (s *CompanyService) GetByUser(ctx context.Context, userID string) (*models.CompanyProfile, error) {
	var company models.CompanyProfile
	if err := s.db.WithContext(ctx).First(&company, "user_id = ?", userID).Error; err != nil {
		return nil, lookupErr(err, "company profile")
	}
	return &company, nil
}

func (s *CompanyService) Update(ctx context.Context, userID string, req *CompanyProfileRequest) (*models.CompanyProfile, error) {
	company, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyCompanyRequest(company, req)
	if company.CompanyName.IsZero() {
		return nil, invalid("companyName", "must not be empty")
	}

	err = s.db.WithContext(ctx).Model(company).Select(
		"company_name_en", "company_name_ar", "logo_url", "industry", "company_size",
		"country", "website", "billing_email", "vat_number", "updated_at",
	).Updates(company).Error
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, company.ID)
}

// Delete removes the company with its team, jobs and their invitations.
// Companies with projects are kept for the payment trail.
func (s *CompanyService) Delete(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var company models.CompanyProfile
		if err := tx.First(&company, "user_id = ?", userID).Error; err != nil {
			return lookupErr(err, "company profile")
		}

		var projects int64
		if err := tx.Model(&models.Project{}).Where("company_id = ?", company.ID).Count(&projects).Error; err != nil {
			return err
		}
		if projects > 0 {
			return fmt.Errorf("company profile has %d projects: %w", projects, ErrConflict)
		}

		jobIDs := tx.Model(&models.Job{}).Select("id").Where("company_id = ?", company.ID)
		if err := tx.Where("job_id IN (?)", jobIDs).Delete(&models.JobInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", company.ID).Delete(&models.Job{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", company.ID).Delete(&models.CompanyTeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&company).Error
	})
}

// ListJobs returns every job of the company, private ones included.
func (s *CompanyService) ListJobs(ctx context.Context, companyID string) ([]models.Job, error) {
	jobs := []models.Job{}
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (s *CompanyService) ListProjects(ctx context.Context, companyID string) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.WithContext(ctx).Preload("Professional.User", publicUserColumns).
		Where("company_id = ?", companyID).
		Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (s *CompanyService) AddTeamMember(ctx context.Context, companyID string, req *TeamMemberRequest) (*models.CompanyTeamMember, error) {
	role := req.Role
	if role == "" {
		role = models.TeamRoleViewer
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id").First(&user, "id = ?", req.UserID).Error; err != nil {
		return nil, lookupErr(err, "user")
	}

	member := models.CompanyTeamMember{CompanyID: companyID, UserID: req.UserID, Role: role}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, writeErr(err, "team member")
	}
	return &member, nil
}

func (s *CompanyService) ListTeamMembers(ctx context.Context, companyID string) ([]models.CompanyTeamMember, error) {
	members := []models.CompanyTeamMember{}
	err := s.db.WithContext(ctx).Preload("User", publicUserColumns).
		Where("company_id = ?", companyID).Order("created_at ASC").Find(&members).Error
	return members, err
}

func (s *CompanyService) RemoveTeamMember(ctx context.Context, companyID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&models.CompanyTeamMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lookupErr(gorm.ErrRecordNotFound, "team member")
	}
	return nil
}
