package services

import (
	"context"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

// AIUsageService tracks calls to the embedding and translation providers.
type AIUsageService struct {
	db *gorm.DB
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// Record saves a usage entry. It runs detached from ctx's cancellation so a
// request that times out still leaves a trace of the failed call.
func (s *AIUsageService) Record(ctx context.Context, entry *models.AIUsageLog) {
	if s == nil {
		return
	}
	if len(entry.ErrorMessage) > 500 {
		entry.ErrorMessage = entry.ErrorMessage[:500]
	}
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.Warn().Err(err).Msg("[AIUsage] Failed to record usage")
	}
}

type AIUsageRequest struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Operation string `form:"operation" binding:"omitempty,oneof=embed translate"`
}

// UsageStats holds aggregated AI usage statistics.
type UsageStats struct {
	TotalCalls   int64   `json:"totalCalls"`
	InputChars   int64   `json:"inputChars"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	SuccessRate  float64 `json:"successRate"`
	SuccessCount int64   `json:"successCount"`
	FailureCount int64   `json:"failureCount"`
}

// DailyUsage holds usage data for a single day.
type DailyUsage struct {
	Date         string `json:"date"`
	Calls        int    `json:"calls"`
	InputChars   int    `json:"inputChars"`
	AvgLatencyMs int    `json:"avgLatencyMs"`
}

// ProviderUsage holds usage data grouped by provider.
type ProviderUsage struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Operation    string  `json:"operation"`
	Calls        int     `json:"calls"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	SuccessRate  float64 `json:"successRate"`
}

type AIUsageReport struct {
	Stats     UsageStats      `json:"stats"`
	Daily     []DailyUsage    `json:"daily"`
	Providers []ProviderUsage `json:"providers"`
}

func (s *AIUsageService) filtered(ctx context.Context, req *AIUsageRequest) (*gorm.DB, error) {
	query := s.db.WithContext(ctx).Model(&models.AIUsageLog{})
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
	if req.Operation != "" {
		query = query.Where("operation = ?", req.Operation)
	}
	return query, nil
}

// Report aggregates usage for the admin view.
func (s *AIUsageService) Report(ctx context.Context, req *AIUsageRequest) (*AIUsageReport, error) {
	var report AIUsageReport

	query, err := s.filtered(ctx, req)
	if err != nil {
		return nil, err
	}
	err = query.Select(
		"COUNT(*) as total_calls, " +
			"COALESCE(SUM(input_chars), 0) as input_chars, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) as failure_count",
	).Scan(&report.Stats).Error
	if err != nil {
		return nil, err
	}
	if report.Stats.TotalCalls > 0 {
		report.Stats.SuccessRate = float64(report.Stats.SuccessCount) / float64(report.Stats.TotalCalls) * 100
	}

	query, _ = s.filtered(ctx, req)
	err = query.Select(
		"DATE(created_at) as date, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(input_chars), 0) as input_chars, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms",
	).Group("DATE(created_at)").Order("date ASC").Scan(&report.Daily).Error
	if err != nil {
		return nil, err
	}

	query, _ = s.filtered(ctx, req)
	err = query.Select(
		"provider, model, operation, " +
			"COUNT(*) as calls, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(AVG(CASE WHEN success THEN 100.0 ELSE 0.0 END), 0) as success_rate",
	).Group("provider, model, operation").Order("calls DESC").Scan(&report.Providers).Error
	if err != nil {
		return nil, err
	}

	if report.Daily == nil {
		report.Daily = []DailyUsage{}
	}
	if report.Providers == nil {
		report.Providers = []ProviderUsage{}
	}
	return &report, nil
}

// CleanupBefore deletes usage logs older than before.
func (s *AIUsageService) CleanupBefore(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&models.AIUsageLog{})
	return result.RowsAffected, result.Error
}
