package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/utils"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

// AuthService turns identity-provider tokens and admin passwords into
// sessions.
type AuthService struct {
	db       *gorm.DB
	users    *UserService
	sessions *SessionService
	verifier *utils.IdentityVerifier
	admin    config.AdminConfig
}

func NewAuthService(db *gorm.DB, sessions *SessionService, identity *config.IdentityConfig, admin *config.AdminConfig) *AuthService {
	return &AuthService{
		db:       db,
		users:    NewUserService(db),
		sessions: sessions,
		verifier: utils.NewIdentityVerifier(identity.Secret, identity.Issuer, identity.Audience),
		admin:    *admin,
	}
}

// SessionExchangeRequest carries an ID token from the identity provider.
type SessionExchangeRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token    string
	ExpireAt time.Time
	User     *models.User
}

// ExchangeIdentity verifies an ID token, upserts its user and opens a
// session.
func (s *AuthService) ExchangeIdentity(ctx context.Context, idToken string) (*LoginResult, error) {
	claims, err := s.verifier.Verify(idToken)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrUnauthenticated)
	}

	user, err := s.users.Upsert(ctx, &UpsertUserInput{
		ID:              claims.Subject,
		Email:           claims.Email,
		FirstName:       claims.FirstName,
		LastName:        claims.LastName,
		ProfileImageURL: claims.ProfileImageURL,
	})
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Login authenticates a local password account.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthenticated)
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthenticated)
	}

	return s.openSession(ctx, &user)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*LoginResult, error) {
	token, expireAt, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("last_login_at", now)
	user.LastLoginAt = &now

	return &LoginResult{Token: token, ExpireAt: expireAt, User: user}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// CreateAdminIfNotExists seeds the local admin account when a password is
// configured and no admin exists yet.
func (s *AuthService) CreateAdminIfNotExists(ctx context.Context) error {
	if s.admin.Password == "" {
		return nil
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword(s.admin.Password)
	if err != nil {
		return err
	}

	email := strings.ToLower(s.admin.Email)
	admin := models.User{
		Email:        &email,
		FirstName:    "Administrator",
		UserType:     models.UserTypeAdmin,
		PasswordHash: hashedPassword,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return writeErr(err, "admin user")
	}
	logger.Infof("[Auth] Created admin user %s", email)
	return nil
}
