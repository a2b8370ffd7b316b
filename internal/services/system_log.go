package services

import (
	"context"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

// SystemLogService keeps the audit trail of write requests and background
// jobs.
type SystemLogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db, now: time.Now}
}

type SystemLogListRequest struct {
	PageRequest
	Level     string `form:"level" binding:"omitempty,oneof=info warning error"`
	Module    string `form:"module"`
	UserID    string `form:"userId"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

type SystemLogList struct {
	Total int64              `json:"total"`
	Items []models.SystemLog `json:"items"`
}

// Record stores entry. Failures are logged and swallowed: the audit trail
// must never fail the request it describes.
func (s *SystemLogService) Record(ctx context.Context, entry *models.SystemLog) {
	if entry.Level == "" {
		entry.Level = "info"
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", entry.Module).Str("action", entry.Action).Msg("[Audit] Failed to record entry")
	}
}

func (s *SystemLogService) List(ctx context.Context, req *SystemLogListRequest) (*SystemLogList, error) {
	query := s.db.WithContext(ctx).Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.UserID != "" {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return nil, invalid("startDate", "must be a date (YYYY-MM-DD)")
		}
		query = query.Where("created_at >= ?", start)
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return nil, invalid("endDate", "must be a date (YYYY-MM-DD)")
		}
		query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
	}

	var out SystemLogList
	if err := query.Count(&out.Total).Error; err != nil {
		return nil, err
	}
	err := query.Order("created_at DESC").Limit(req.limit()).Offset(req.Offset).Find(&out.Items).Error
	if err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []models.SystemLog{}
	}
	return &out, nil
}

// Modules lists the distinct modules present in the trail.
func (s *SystemLogService) Modules(ctx context.Context) ([]string, error) {
	var modules []string
	err := s.db.WithContext(ctx).Model(&models.SystemLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error
	return modules, err
}

// CleanupOld deletes entries older than retentionDays. Zero or less keeps
// everything.
func (s *SystemLogService) CleanupOld(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
