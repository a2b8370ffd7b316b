package services

import (
	"context"
	"errors"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/utils"
	"gorm.io/gorm"
)

// SessionService stores server-side sessions keyed by the hash of the
// client's token.
type SessionService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionService(db *gorm.DB, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionService{db: db, ttl: ttl, now: time.Now}
}

func (s *SessionService) TTL() time.Duration { return s.ttl }

// Create starts a session for userID and returns the client token.
func (s *SessionService) Create(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}

	session := models.Session{
		Sid:    utils.HashToken(token),
		UserID: userID,
		Expire: s.now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", time.Time{}, writeErr(err, "session")
	}
	return token, session.Expire, nil
}

// Resolve returns the user owning token. Unknown or expired sessions yield
// ErrUnauthenticated; an expired row is removed on the way out.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	db := s.db.WithContext(ctx)
	var session models.Session
	if err := db.First(&session, "sid = ?", utils.HashToken(token)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if session.Expired(s.now()) {
		db.Delete(&models.Session{}, "sid = ?", session.Sid)
		return nil, ErrUnauthenticated
	}

	var user models.User
	if err := db.First(&user, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return &user, nil
}

func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.Session{}, "sid = ?", utils.HashToken(token)).Error
}

// RevokeAll ends every session of userID.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "user_id = ?", userID).Error
}

// PurgeExpired deletes sessions past their expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expire <= ?", s.now()).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
