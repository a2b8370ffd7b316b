package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIUsageLog records one call to an embedding or translation provider.
type AIUsageLog struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Operation    string    `gorm:"size:20;index" json:"operation"` // embed, translate
	Provider     string    `gorm:"size:50" json:"provider"`
	Model        string    `gorm:"size:100" json:"model"`
	InputChars   int       `json:"inputChars"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `gorm:"size:500" json:"errorMessage,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

func (AIUsageLog) TableName() string { return "ai_usage_logs" }

func (l *AIUsageLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
