package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

// ServiceHandler serves the professionals' service catalog.
type ServiceHandler struct {
	catalogService      *services.CatalogService
	professionalService *services.ProfessionalService
}

func NewServiceHandler(catalogService *services.CatalogService, professionalService *services.ProfessionalService) *ServiceHandler {
	return &ServiceHandler{catalogService: catalogService, professionalService: professionalService}
}

// List returns public services
// GET /api/services
func (h *ServiceHandler) List(c *gin.Context) {
	var req services.ServiceListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, err := h.catalogService.ListPublic(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// Get returns a public service, or a private one to its owner, and counts
// the view
// GET /api/services/:id
func (h *ServiceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	service, err := h.catalogService.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	owner := service.Profile != nil && service.Profile.UserID == middleware.GetUserID(c)
	if !service.IsPublic && !owner {
		response.NotFound(c, "service not found")
		return
	}
	if !owner {
		if err := h.catalogService.RecordView(ctx, service.ID); err != nil {
			logger.Warn().Err(err).Str("service_id", service.ID).Msg("[Catalog] Failed to record view")
		}
	}
	response.Success(c, service)
}

// Create publishes a service under the caller's profile
// POST /api/services
func (h *ServiceHandler) Create(c *gin.Context) {
	var req services.CreateServiceRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.professionalService.GetByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	service, err := h.catalogService.Create(c.Request.Context(), profile.ID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, service)
}

// Update edits one of the caller's services
// PATCH /api/services/:id
func (h *ServiceHandler) Update(c *gin.Context) {
	var req services.UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.professionalService.GetByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	service, err := h.catalogService.Update(c.Request.Context(), profile.ID, c.Param("id"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, service)
}

// Delete removes one of the caller's services
// DELETE /api/services/:id
func (h *ServiceHandler) Delete(c *gin.Context) {
	profile, err := h.professionalService.GetByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.catalogService.Delete(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}
