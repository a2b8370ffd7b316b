package models

import "time"

// SchedulerLock lets one instance of a multi-replica deployment claim a
// periodic job run. A row is held until ExpiresAt.
type SchedulerLock struct {
	LockName  string    `gorm:"primaryKey;size:100" json:"lockName"`
	LockedBy  string    `gorm:"size:100" json:"lockedBy"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
}

func (SchedulerLock) TableName() string { return "scheduler_locks" }
