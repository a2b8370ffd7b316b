package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// User is an account. Ordinary users are created from the identity
// provider's subject; the bootstrap admin logs in with a local password.
type User struct {
	Base
	Email             *string    `gorm:"uniqueIndex;size:255" json:"email"`
	FirstName         string     `gorm:"size:100" json:"firstName"`
	LastName          string     `gorm:"size:100" json:"lastName"`
	ProfileImageURL   string     `gorm:"size:500" json:"profileImageUrl"`
	UserType          UserType   `gorm:"size:20;not null;default:professional" json:"userType"`
	PreferredLanguage Language   `gorm:"size:2;default:en" json:"preferredLanguage"`
	PasswordHash      string     `gorm:"size:255" json:"-"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// DisplayName joins first and last name, falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Email != nil {
		return *u.Email
	}
	return name
}

// Session is a server-side login. Sid is the SHA-256 of the token held by
// the client, so a leaked table cannot be replayed.
type Session struct {
	Sid    string         `gorm:"primaryKey;size:64" json:"-"`
	UserID string         `gorm:"index;size:36;not null" json:"userId"`
	Data   datatypes.JSON `json:"-"`
	Expire time.Time      `gorm:"index:idx_session_expire;not null" json:"expire"`
}

func (Session) TableName() string { return "sessions" }

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expire.After(now)
}
