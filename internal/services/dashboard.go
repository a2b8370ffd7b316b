package services

import (
	"context"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

type DashboardStatsRequest struct {
	StartDate         string `form:"startDate"`
	EndDate           string `form:"endDate"`
	ProfessionalLimit int    `form:"professionalLimit" binding:"omitempty,min=1,max=50"`
	CategoryLimit     int    `form:"categoryLimit" binding:"omitempty,min=1,max=50"`
}

type DashboardStats struct {
	NewUsers          int64        `json:"newUsers"`
	NewJobs           int64        `json:"newJobs"`
	NewProjects       int64        `json:"newProjects"`
	CompletedProjects int64        `json:"completedProjects"`
	PaymentVolume     models.Money `json:"paymentVolume"`
	PlatformFees      models.Money `json:"platformFees"`
}

type ProfessionalStat struct {
	ProfileID         string  `json:"profileId"`
	Name              string  `json:"name"`
	CompletedProjects int64   `json:"completedProjects"`
	AverageRating     float64 `json:"averageRating"`
}

type CategoryStat struct {
	Category     string `json:"category"`
	ServiceCount int64  `json:"serviceCount"`
	Views        int64  `json:"views"`
}

type DashboardResponse struct {
	From          time.Time          `json:"from"`
	To            time.Time          `json:"to"`
	Stats         DashboardStats     `json:"stats"`
	Professionals []ProfessionalStat `json:"professionals"`
	Categories    []CategoryStat     `json:"categories"`
}

// window resolves the requested date range, defaulting to the last 7 days.
// The end date is inclusive.
func (s *DashboardService) window(req *DashboardStatsRequest) (time.Time, time.Time, error) {
	now := s.now()
	start := now.AddDate(0, 0, -7)
	end := now

	if req.StartDate != "" {
		t, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return start, end, invalid("startDate", "must be a date (YYYY-MM-DD)")
		}
		start = t
	}
	if req.EndDate != "" {
		t, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return start, end, invalid("endDate", "must be a date (YYYY-MM-DD)")
		}
		end = t.Add(24*time.Hour - time.Second)
	}
	if end.Before(start) {
		return start, end, invalid("endDate", "must not be before startDate")
	}
	return start, end, nil
}

// GetStats summarizes marketplace activity for the admin dashboard.
func (s *DashboardService) GetStats(ctx context.Context, req *DashboardStatsRequest) (*DashboardResponse, error) {
	start, end, err := s.window(req)
	if err != nil {
		return nil, err
	}
	if req.ProfessionalLimit == 0 {
		req.ProfessionalLimit = 10
	}
	if req.CategoryLimit == 0 {
		req.CategoryLimit = 10
	}

	db := s.db.WithContext(ctx)
	between := "created_at BETWEEN ? AND ?"
	var stats DashboardStats

	if err := db.Model(&models.User{}).Where(between, start, end).Count(&stats.NewUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Job{}).Where(between, start, end).Count(&stats.NewJobs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Project{}).Where(between, start, end).Count(&stats.NewProjects).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Project{}).
		Where("status = ? AND completed_at BETWEEN ? AND ?", models.ProjectCompleted, start, end).
		Count(&stats.CompletedProjects).Error; err != nil {
		return nil, err
	}

	// sum in minor units so decimals never pass through floats
	var payments []models.Payment
	if err := db.Select("amount", "platform_fee").
		Where("status = ? AND released_at BETWEEN ? AND ?", models.PaymentReleased, start, end).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	var volume, fees int64
	for _, p := range payments {
		amount, err := p.Amount.MinorUnits()
		if err != nil {
			return nil, err
		}
		fee, err := p.PlatformFee.MinorUnits()
		if err != nil {
			return nil, err
		}
		volume += amount
		fees += fee
	}
	stats.PaymentVolume = models.MoneyFromMinor(volume)
	stats.PlatformFees = models.MoneyFromMinor(fees)

	var professionals []ProfessionalStat
	err = db.Model(&models.Project{}).
		Select("professional_id AS profile_id, COUNT(*) AS completed_projects").
		Where("status = ? AND completed_at BETWEEN ? AND ?", models.ProjectCompleted, start, end).
		Group("professional_id").
		Order("completed_projects DESC").
		Limit(req.ProfessionalLimit).
		Scan(&professionals).Error
	if err != nil {
		return nil, err
	}
	for i := range professionals {
		var profile models.ProfessionalProfile
		if err := db.Preload("User", publicUserColumns).First(&profile, "id = ?", professionals[i].ProfileID).Error; err == nil {
			professionals[i].AverageRating = profile.AverageRating
			if profile.User != nil {
				professionals[i].Name = profile.User.DisplayName()
			}
		}
	}

	var categories []CategoryStat
	err = db.Model(&models.Service{}).
		Select("category, COUNT(*) AS service_count, COALESCE(SUM(view_count), 0) AS views").
		Where("is_public = ?", true).
		Group("category").
		Order("views DESC").
		Limit(req.CategoryLimit).
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}

	if professionals == nil {
		professionals = []ProfessionalStat{}
	}
	if categories == nil {
		categories = []CategoryStat{}
	}
	return &DashboardResponse{
		From:          start,
		To:            end,
		Stats:         stats,
		Professionals: professionals,
		Categories:    categories,
	}, nil
}
