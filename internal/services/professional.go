package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"gorm.io/gorm"
)

type ProfessionalService struct {
	db    *gorm.DB
	queue queue.TaskQueue
}

func NewProfessionalService(db *gorm.DB, q queue.TaskQueue) *ProfessionalService {
	return &ProfessionalService{db: db, queue: q}
}

// ProfessionalProfileRequest creates or partially updates a profile.
// Absent fields are left unchanged.
type ProfessionalProfileRequest struct {
	Bio               *models.LocalizedText `json:"bio"`
	BioAr             *string               `json:"bioAr"`
	Location          *string               `json:"location" binding:"omitempty,max=255"`
	Timezone          *string               `json:"timezone" binding:"omitempty,max=64"`
	Languages         []string              `json:"languages" binding:"omitempty,max=20,dive,max=50"`
	IntroVideoURL     *string               `json:"introVideoUrl" binding:"omitempty,url,max=500"`
	LinkedinURL       *string               `json:"linkedinUrl" binding:"omitempty,url,max=500"`
	PortfolioURL      *string               `json:"portfolioUrl" binding:"omitempty,url,max=500"`
	HourlyRate        *string               `json:"hourlyRate" binding:"omitempty,money"`
	Currency          *string               `json:"currency" binding:"omitempty,len=3"`
	ResponseTimeHours *int                  `json:"responseTime" binding:"omitempty,min=1,max=720"`
}

type ProfessionalListRequest struct {
	PageRequest
	Verified bool   `form:"verified"`
	Location string `form:"location"`
}

type CertificationRequest struct {
	Name          models.LocalizedText `json:"name"`
	NameAr        *string              `json:"nameAr"`
	Issuer        string               `json:"issuer" binding:"max=255"`
	IssueDate     *time.Time           `json:"issueDate"`
	ExpiryDate    *time.Time           `json:"expiryDate"`
	CredentialURL string               `json:"credentialUrl" binding:"omitempty,url,max=500"`
}

type PortfolioItemRequest struct {
	Title         models.LocalizedText `json:"title"`
	TitleAr       *string              `json:"titleAr"`
	Description   models.LocalizedText `json:"description"`
	DescriptionAr *string              `json:"descriptionAr"`
	FileURL       string               `json:"fileUrl" binding:"required,url,max=500"`
	FileType      string               `json:"fileType" binding:"max=100"`
	ThumbnailURL  string               `json:"thumbnailUrl" binding:"omitempty,url,max=500"`
}

type VerificationRequest struct {
	Status models.VerificationStatus `json:"status" binding:"required,oneof=pending verified rejected"`
}

// ProfessionalStats summarizes a professional's dashboard. Earnings are net
// of the platform fee.
type ProfessionalStats struct {
	TotalEarnings     models.Money `json:"totalEarnings"`
	PendingEarnings   models.Money `json:"pendingEarnings"`
	MonthlyEarnings   models.Money `json:"monthlyEarnings"`
	ActiveProjects    int64        `json:"activeProjects"`
	CompletedProjects int64        `json:"completedProjects"`
	AverageRating     float64      `json:"averageRating"`
	TotalReviews      int64        `json:"totalReviews"`
	ProfileViews      int64        `json:"profileViews"`
}

func publicUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "first_name", "last_name", "profile_image_url", "user_type")
}

func (s *ProfessionalService) Create(ctx context.Context, userID string, req *ProfessionalProfileRequest) (*models.ProfessionalProfile, error) {
	profile := models.ProfessionalProfile{
		UserID:             userID,
		Currency:           "USD",
		VerificationStatus: models.VerificationPending,
		ResponseTimeHours:  24,
		Languages:          models.Strings(nil),
	}
	if err := applyProfessionalRequest(&profile, req); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, writeErr(err, "professional profile")
	}
	enqueueIndex(s.queue, IndexKindProfile, profile.ID)
	return s.GetByID(ctx, profile.ID)
}

func applyProfessionalRequest(p *models.ProfessionalProfile, req *ProfessionalProfileRequest) error {
	v := &validator{}
	if req.Bio != nil || req.BioAr != nil {
		bio := p.Bio
		if req.Bio != nil {
			bio = *req.Bio
		}
		p.Bio = localized(bio, req.BioAr)
	}
	if req.Location != nil {
		p.Location = strings.TrimSpace(*req.Location)
	}
	if req.Timezone != nil {
		p.Timezone = *req.Timezone
	}
	if req.Languages != nil {
		p.Languages = models.Strings(req.Languages)
	}
	if req.IntroVideoURL != nil {
		p.IntroVideoURL = *req.IntroVideoURL
	}
	if req.LinkedinURL != nil {
		p.LinkedinURL = *req.LinkedinURL
	}
	if req.PortfolioURL != nil {
		p.PortfolioURL = *req.PortfolioURL
	}
	if req.HourlyRate != nil {
		p.HourlyRate = parseMoneyField(v, "hourlyRate", req.HourlyRate)
	}
	if req.Currency != nil {
		p.Currency = currencyOr(*req.Currency, p.Currency)
	}
	if req.ResponseTimeHours != nil {
		p.ResponseTimeHours = *req.ResponseTimeHours
	}
	return v.err()
}

func (s *ProfessionalService) GetByID(ctx context.Context, id string) (*models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	err := s.db.WithContext(ctx).
		Preload("User", publicUserColumns).
		Preload("Certifications", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Portfolio", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_public = ?", true).Order("created_at DESC")
		}).
		First(&profile, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, "professional profile")
	}
	return &profile, nil
}

// GetByUser returns the profile owned by userID.
func (s *ProfessionalService) GetByUser(ctx context.Context, userID string) (*models.ProfessionalProfile, error) {
	var profile models.ProfessionalProfile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, lookupErr(err, "professional profile")
	}
	return &profile, nil
}

func (s *ProfessionalService) Update(ctx context.Context, userID string, req *ProfessionalProfileRequest) (*models.ProfessionalProfile, error) {
	profile, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyProfessionalRequest(profile, req); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(profile).Select(
		"bio_en", "bio_ar", "location", "timezone", "languages", "intro_video_url",
		"linkedin_url", "portfolio_url", "hourly_rate", "currency", "response_time_hours", "updated_at",
	).Updates(profile).Error
	if err != nil {
		return nil, err
	}
	enqueueIndex(s.queue, IndexKindProfile, profile.ID)
	return s.GetByID(ctx, profile.ID)
}

// Delete removes the profile with its services, certifications, portfolio
// and invitations. Profiles with projects are kept for the payment trail.
func (s *ProfessionalService) Delete(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.ProfessionalProfile
		if err := tx.First(&profile, "user_id = ?", userID).Error; err != nil {
			return lookupErr(err, "professional profile")
		}

		var projects int64
		if err := tx.Model(&models.Project{}).Where("professional_id = ?", profile.ID).Count(&projects).Error; err != nil {
			return err
		}
		if projects > 0 {
			return fmt.Errorf("professional profile has %d projects: %w", projects, ErrConflict)
		}

		for _, model := range []interface{}{
			&models.JobInvitation{}, &models.Service{}, &models.Certification{}, &models.PortfolioItem{},
		} {
			if err := tx.Where("profile_id = ?", profile.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&profile).Error
	})
}

// ListPublic returns profiles ordered by rating, best first.
func (s *ProfessionalService) ListPublic(ctx context.Context, req *ProfessionalListRequest) ([]models.ProfessionalProfile, error) {
	query := s.db.WithContext(ctx).Model(&models.ProfessionalProfile{}).Preload("User", publicUserColumns)
	if req.Verified {
		query = query.Where("verification_status = ?", models.VerificationVerified)
	}
	if req.Location != "" {
		query = query.Where("location LIKE ?", "%"+req.Location+"%")
	}

	profiles := []models.ProfessionalProfile{}
	err := query.Order("average_rating DESC").Order("created_at DESC").
		Limit(req.limit()).Offset(req.Offset).Find(&profiles).Error
	return profiles, err
}

func (s *ProfessionalService) ListProjects(ctx context.Context, profileID string) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.WithContext(ctx).Preload("Company").
		Where("professional_id = ?", profileID).
		Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (s *ProfessionalService) Stats(ctx context.Context, profileID string) (*ProfessionalStats, error) {
	profile := models.ProfessionalProfile{}
	db := s.db.WithContext(ctx)
	if err := db.First(&profile, "id = ?", profileID).Error; err != nil {
		return nil, lookupErr(err, "professional profile")
	}

	stats := &ProfessionalStats{AverageRating: profile.AverageRating}

	var payments []models.Payment
	err := db.Model(&models.Payment{}).
		Joins("JOIN projects ON projects.id = payments.project_id").
		Where("projects.professional_id = ?", profileID).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	var total, pending, monthly int64
	for _, p := range payments {
		net, err := netAmount(&p)
		if err != nil {
			return nil, err
		}
		switch p.Status {
		case models.PaymentReleased:
			total += net
			if p.ReleasedAt != nil && !p.ReleasedAt.Before(monthStart) {
				monthly += net
			}
		case models.PaymentPending, models.PaymentHeld:
			pending += net
		}
	}
	stats.TotalEarnings = models.MoneyFromMinor(total)
	stats.PendingEarnings = models.MoneyFromMinor(pending)
	stats.MonthlyEarnings = models.MoneyFromMinor(monthly)

	if err := db.Model(&models.Project{}).Where("professional_id = ? AND status IN ?", profileID,
		[]models.ProjectStatus{models.ProjectActive, models.ProjectInReview}).Count(&stats.ActiveProjects).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Project{}).Where("professional_id = ? AND status = ?", profileID,
		models.ProjectCompleted).Count(&stats.CompletedProjects).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Review{}).Where("reviewee_id = ? AND is_moderated = ?", profile.UserID, false).
		Count(&stats.TotalReviews).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Service{}).Select("COALESCE(SUM(view_count), 0)").
		Where("profile_id = ?", profileID).Scan(&stats.ProfileViews).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func netAmount(p *models.Payment) (int64, error) {
	amount, err := p.Amount.MinorUnits()
	if err != nil {
		return 0, err
	}
	fee, err := p.PlatformFee.MinorUnits()
	if err != nil {
		return 0, err
	}
	return amount - fee, nil
}

func (s *ProfessionalService) AddCertification(ctx context.Context, profileID string, req *CertificationRequest) (*models.Certification, error) {
	name := localized(req.Name, req.NameAr)
	if name.IsZero() {
		return nil, invalid("name", "is required")
	}
	if req.IssueDate != nil && req.ExpiryDate != nil && req.ExpiryDate.Before(*req.IssueDate) {
		return nil, invalid("expiryDate", "must not be before issueDate")
	}

	cert := models.Certification{
		ProfileID:     profileID,
		Name:          name,
		Issuer:        req.Issuer,
		IssueDate:     req.IssueDate,
		ExpiryDate:    req.ExpiryDate,
		CredentialURL: req.CredentialURL,
	}
	if err := s.db.WithContext(ctx).Create(&cert).Error; err != nil {
		return nil, writeErr(err, "certification")
	}
	return &cert, nil
}

func (s *ProfessionalService) ListCertifications(ctx context.Context, profileID string) ([]models.Certification, error) {
	certs := []models.Certification{}
	err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at DESC").Find(&certs).Error
	return certs, err
}

func (s *ProfessionalService) DeleteCertification(ctx context.Context, profileID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND profile_id = ?", id, profileID).Delete(&models.Certification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lookupErr(gorm.ErrRecordNotFound, "certification")
	}
	return nil
}

func (s *ProfessionalService) AddPortfolioItem(ctx context.Context, profileID string, req *PortfolioItemRequest) (*models.PortfolioItem, error) {
	title := localized(req.Title, req.TitleAr)
	if title.IsZero() {
		return nil, invalid("title", "is required")
	}

	item := models.PortfolioItem{
		ProfileID:    profileID,
		Title:        title,
		Description:  localized(req.Description, req.DescriptionAr),
		FileURL:      req.FileURL,
		FileType:     req.FileType,
		ThumbnailURL: req.ThumbnailURL,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, writeErr(err, "portfolio item")
	}
	return &item, nil
}

func (s *ProfessionalService) ListPortfolio(ctx context.Context, profileID string) ([]models.PortfolioItem, error) {
	items := []models.PortfolioItem{}
	err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s *ProfessionalService) DeletePortfolioItem(ctx context.Context, profileID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND profile_id = ?", id, profileID).Delete(&models.PortfolioItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lookupErr(gorm.ErrRecordNotFound, "portfolio item")
	}
	return nil
}

// SetVerification records an admin's verification decision.
func (s *ProfessionalService) SetVerification(ctx context.Context, profileID string, status models.VerificationStatus) (*models.ProfessionalProfile, error) {
	result := s.db.WithContext(ctx).Model(&models.ProfessionalProfile{}).Where("id = ?", profileID).
		Updates(map[string]interface{}{"verification_status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, lookupErr(gorm.ErrRecordNotFound, "professional profile")
	}
	return s.GetByID(ctx, profileID)
}

// recomputeProfessionalAggregates refreshes averageRating and totalProjects
// from reviews and projects. It must run inside the transaction that
// changed them.
func recomputeProfessionalAggregates(tx *gorm.DB, profileID string) error {
	var profile models.ProfessionalProfile
	if err := tx.Select("id", "user_id").First(&profile, "id = ?", profileID).Error; err != nil {
		return lookupErr(err, "professional profile")
	}

	var avg sql.NullFloat64
	err := tx.Model(&models.Review{}).Select("AVG(rating)").
		Where("reviewee_id = ? AND is_moderated = ?", profile.UserID, false).
		Row().Scan(&avg)
	if err != nil {
		return err
	}

	var completed int64
	if err := tx.Model(&models.Project{}).
		Where("professional_id = ? AND status = ?", profileID, models.ProjectCompleted).
		Count(&completed).Error; err != nil {
		return err
	}

	rating := 0.0
	if avg.Valid {
		rating = math.Round(avg.Float64*100) / 100
	}
	return tx.Model(&models.ProfessionalProfile{}).Where("id = ?", profileID).
		UpdateColumns(map[string]interface{}{"average_rating": rating, "total_projects": completed}).Error
}

// recomputeAggregatesForUser is recomputeProfessionalAggregates keyed by
// the profile owner; users without a professional profile are skipped.
func recomputeAggregatesForUser(tx *gorm.DB, userID string) error {
	var profile models.ProfessionalProfile
	err := tx.Select("id").Where("user_id = ?", userID).Limit(1).Find(&profile).Error
	if err != nil || profile.ID == "" {
		return err
	}
	return recomputeProfessionalAggregates(tx, profile.ID)
}
