package services

import (
	"context"
	"strings"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// UpsertUserInput carries the identity provider's view of a user.
type UpsertUserInput struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

type SetUserTypeRequest struct {
	UserType models.UserType `json:"userType" binding:"required,oneof=professional company"`
}

type UpdatePreferencesRequest struct {
	PreferredLanguage *models.Language `json:"preferredLanguage" binding:"omitempty,oneof=en ar"`
	FirstName         *string          `json:"firstName" binding:"omitempty,max=100"`
	LastName          *string          `json:"lastName" binding:"omitempty,max=100"`
	ProfileImageURL   *string          `json:"profileImageUrl" binding:"omitempty,url,max=500"`
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "user")
	}
	return &user, nil
}

// Upsert inserts the user or refreshes its identity fields, keeping the
// chosen user type and preferences.
func (s *UserService) Upsert(ctx context.Context, in *UpsertUserInput) (*models.User, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, invalid("id", "is required")
	}

	user := models.User{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		ProfileImageURL: in.ProfileImageURL,
		UserType:        models.UserTypeProfessional,
	}
	user.ID = in.ID
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		user.Email = &email
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, writeErr(err, "user email")
	}
	return s.Get(ctx, in.ID)
}

// SetUserType fixes whether the account acts as a professional or a company.
func (s *UserService) SetUserType(ctx context.Context, id string, userType models.UserType) (*models.User, error) {
	if userType != models.UserTypeProfessional && userType != models.UserTypeCompany {
		return nil, invalid("userType", "must be one of: professional company")
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"user_type": userType, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, lookupErr(gorm.ErrRecordNotFound, "user")
	}
	return s.Get(ctx, id)
}

func (s *UserService) UpdatePreferences(ctx context.Context, id string, req *UpdatePreferencesRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.PreferredLanguage != nil {
		if !req.PreferredLanguage.Valid() {
			return nil, invalid("preferredLanguage", "must be one of: en ar")
		}
		updates["preferred_language"] = *req.PreferredLanguage
	}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.ProfileImageURL != nil {
		updates["profile_image_url"] = *req.ProfileImageURL
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
