package services

import (
	"context"
	"strings"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"gorm.io/gorm"
)

// CatalogService manages the services professionals offer.
type CatalogService struct {
	db    *gorm.DB
	queue queue.TaskQueue
}

func NewCatalogService(db *gorm.DB, q queue.TaskQueue) *CatalogService {
	return &CatalogService{db: db, queue: q}
}

type CreateServiceRequest struct {
	Title            models.LocalizedText `json:"title"`
	TitleAr          *string              `json:"titleAr"`
	Description      models.LocalizedText `json:"description"`
	DescriptionAr    *string              `json:"descriptionAr"`
	Category         string               `json:"category" binding:"required,max=100"`
	DurationHours    *int                 `json:"duration" binding:"omitempty,min=1"`
	Format           models.ServiceFormat `json:"format" binding:"omitempty,oneof=in-person virtual hybrid"`
	PricingModel     models.PricingModel  `json:"pricingModel" binding:"omitempty,oneof=hourly fixed custom"`
	Price            *string              `json:"price" binding:"omitempty,money"`
	Currency         string               `json:"currency" binding:"omitempty,len=3"`
	DeliveryTimeline string               `json:"deliveryTimeline" binding:"max=255"`
	Deliverables     []string             `json:"deliverables"`
	Outcomes         []string             `json:"outcomes"`
	MediaURLs        []string             `json:"mediaUrls" binding:"omitempty,dive,url"`
	IsPublic         *bool                `json:"isPublic"`
}

type UpdateServiceRequest struct {
	Title            *models.LocalizedText `json:"title"`
	TitleAr          *string               `json:"titleAr"`
	Description      *models.LocalizedText `json:"description"`
	DescriptionAr    *string               `json:"descriptionAr"`
	Category         *string               `json:"category" binding:"omitempty,min=1,max=100"`
	DurationHours    *int                  `json:"duration" binding:"omitempty,min=1"`
	Format           *models.ServiceFormat `json:"format" binding:"omitempty,oneof=in-person virtual hybrid"`
	PricingModel     *models.PricingModel  `json:"pricingModel" binding:"omitempty,oneof=hourly fixed custom"`
	Price            *string               `json:"price" binding:"omitempty,money"`
	Currency         *string               `json:"currency" binding:"omitempty,len=3"`
	DeliveryTimeline *string               `json:"deliveryTimeline" binding:"omitempty,max=255"`
	Deliverables     []string              `json:"deliverables"`
	Outcomes         []string              `json:"outcomes"`
	MediaURLs        []string              `json:"mediaUrls" binding:"omitempty,dive,url"`
	IsPublic         *bool                 `json:"isPublic"`
}

type ServiceListRequest struct {
	PageRequest
	Category string               `form:"category"`
	Format   models.ServiceFormat `form:"format" binding:"omitempty,oneof=in-person virtual hybrid"`
}

func (s *CatalogService) Create(ctx context.Context, profileID string, req *CreateServiceRequest) (*models.Service, error) {
	v := &validator{}
	title := localized(req.Title, req.TitleAr)
	description := localized(req.Description, req.DescriptionAr)
	v.check(!title.IsZero(), "title", "is required")
	v.check(!description.IsZero(), "description", "is required")
	price := parseMoneyField(v, "price", req.Price)
	if err := v.err(); err != nil {
		return nil, err
	}

	service := models.Service{
		ProfileID:        profileID,
		Title:            title,
		Description:      description,
		Category:         strings.TrimSpace(req.Category),
		DurationHours:    req.DurationHours,
		Format:           req.Format,
		PricingModel:     req.PricingModel,
		Price:            price,
		Currency:         currencyOr(req.Currency, "USD"),
		DeliveryTimeline: req.DeliveryTimeline,
		Deliverables:     models.Strings(req.Deliverables),
		Outcomes:         models.Strings(req.Outcomes),
		MediaURLs:        models.Strings(req.MediaURLs),
		IsPublic:         req.IsPublic == nil || *req.IsPublic,
	}
	if service.Format == "" {
		service.Format = models.FormatVirtual
	}
	if service.PricingModel == "" {
		service.PricingModel = models.PricingFixed
	}

	if err := s.db.WithContext(ctx).Create(&service).Error; err != nil {
		return nil, writeErr(err, "service")
	}
	enqueueIndex(s.queue, IndexKindService, service.ID)
	return &service, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Preload("Profile.User", publicUserColumns).
		First(&service, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr(err, "service")
	}
	return &service, nil
}

// RecordView increments the view counter without touching updatedAt.
func (s *CatalogService) RecordView(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// RecordConversion counts a service that led to a project.
func (s *CatalogService) RecordConversion(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", id).
		UpdateColumn("conversion_count", gorm.Expr("conversion_count + ?", 1)).Error
}

func (s *CatalogService) owned(ctx context.Context, profileID, id string) (*models.Service, error) {
	var service models.Service
	if err := s.db.WithContext(ctx).First(&service, "id = ? AND profile_id = ?", id, profileID).Error; err != nil {
		return nil, lookupErr(err, "service")
	}
	return &service, nil
}

func (s *CatalogService) Update(ctx context.Context, profileID, id string, req *UpdateServiceRequest) (*models.Service, error) {
	service, err := s.owned(ctx, profileID, id)
	if err != nil {
		return nil, err
	}

	v := &validator{}
	if req.Title != nil || req.TitleAr != nil {
		title := service.Title
		if req.Title != nil {
			title = *req.Title
		}
		service.Title = localized(title, req.TitleAr)
		v.check(!service.Title.IsZero(), "title", "must not be empty")
	}
	if req.Description != nil || req.DescriptionAr != nil {
		description := service.Description
		if req.Description != nil {
			description = *req.Description
		}
		service.Description = localized(description, req.DescriptionAr)
		v.check(!service.Description.IsZero(), "description", "must not be empty")
	}
	if req.Category != nil {
		service.Category = strings.TrimSpace(*req.Category)
	}
	if req.DurationHours != nil {
		service.DurationHours = req.DurationHours
	}
	if req.Format != nil {
		service.Format = *req.Format
	}
	if req.PricingModel != nil {
		service.PricingModel = *req.PricingModel
	}
	if req.Price != nil {
		service.Price = parseMoneyField(v, "price", req.Price)
	}
	if req.Currency != nil {
		service.Currency = currencyOr(*req.Currency, service.Currency)
	}
	if req.DeliveryTimeline != nil {
		service.DeliveryTimeline = *req.DeliveryTimeline
	}
	if req.Deliverables != nil {
		service.Deliverables = models.Strings(req.Deliverables)
	}
	if req.Outcomes != nil {
		service.Outcomes = models.Strings(req.Outcomes)
	}
	if req.MediaURLs != nil {
		service.MediaURLs = models.Strings(req.MediaURLs)
	}
	if req.IsPublic != nil {
		service.IsPublic = *req.IsPublic
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(service).Select(
		"title_en", "title_ar", "description_en", "description_ar", "category", "duration_hours",
		"format", "pricing_model", "price", "currency", "delivery_timeline", "deliverables",
		"outcomes", "media_urls", "is_public", "updated_at",
	).Updates(service).Error
	if err != nil {
		return nil, err
	}
	enqueueIndex(s.queue, IndexKindService, service.ID)
	return service, nil
}

func (s *CatalogService) Delete(ctx context.Context, profileID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND profile_id = ?", id, profileID).Delete(&models.Service{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lookupErr(gorm.ErrRecordNotFound, "service")
	}
	return nil
}

// ListByProfile returns all services of a profile, private ones included.
func (s *CatalogService) ListByProfile(ctx context.Context, profileID string) ([]models.Service, error) {
	services := []models.Service{}
	err := s.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("created_at DESC").Find(&services).Error
	return services, err
}

// ListPublic returns public services, newest first.
func (s *CatalogService) ListPublic(ctx context.Context, req *ServiceListRequest) ([]models.Service, error) {
	query := s.db.WithContext(ctx).Model(&models.Service{}).Where("is_public = ?", true)
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Format != "" {
		query = query.Where("format = ?", req.Format)
	}

	services := []models.Service{}
	err := query.Order("created_at DESC").Limit(req.limit()).Offset(req.Offset).Find(&services).Error
	return services, err
}
