package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SystemLog is an audit entry for a write request or a background job.
type SystemLog struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	Level     string            `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string            `gorm:"size:100;index" json:"module"`
	Action    string            `gorm:"size:200;index" json:"action"`
	Message   string            `gorm:"type:text" json:"message"`
	UserID    *string           `gorm:"size:36;index" json:"userId"`
	IP        string            `gorm:"size:50" json:"ip"`
	UserAgent string            `gorm:"size:500" json:"userAgent"`
	Status    int               `json:"status"`
	Extra     datatypes.JSONMap `json:"extra"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
}

func (SystemLog) TableName() string { return "system_logs" }

func (l *SystemLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
