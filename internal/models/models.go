package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base carries the server-assigned identity of every row.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// BeforeCreate assigns a fresh identifier when none is set.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// StringList is an ordered list of strings persisted as a JSON array.
type StringList = datatypes.JSONSlice[string]

// Vector is an embedding persisted as a JSON array of floats.
type Vector = datatypes.JSONSlice[float32]

// Strings returns xs as a non-nil StringList so empty lists serialize as [].
func Strings(xs []string) StringList {
	if xs == nil {
		return StringList{}
	}
	return StringList(xs)
}
