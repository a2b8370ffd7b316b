package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type ProfessionalHandler struct {
	professionalService *services.ProfessionalService
	catalogService      *services.CatalogService
	jobService          *services.JobService
}

func NewProfessionalHandler(professionalService *services.ProfessionalService, catalogService *services.CatalogService, jobService *services.JobService) *ProfessionalHandler {
	return &ProfessionalHandler{
		professionalService: professionalService,
		catalogService:      catalogService,
		jobService:          jobService,
	}
}

// ownProfile loads the caller's profile, answering 404 when they have none.
func (h *ProfessionalHandler) ownProfile(c *gin.Context) (*models.ProfessionalProfile, bool) {
	profile, err := h.professionalService.GetByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return profile, true
}

// List returns public professionals, best rated first
// GET /api/professionals
func (h *ProfessionalHandler) List(c *gin.Context) {
	var req services.ProfessionalListRequest
	if !bindQuery(c, &req) {
		return
	}

	profiles, err := h.professionalService.ListPublic(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profiles)
}

// Get returns a profile with its certifications, portfolio and public services
// GET /api/professionals/:id
func (h *ProfessionalHandler) Get(c *gin.Context) {
	profile, err := h.professionalService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profile)
}

// GetOwn returns the caller's profile
// GET /api/professional/profile
func (h *ProfessionalHandler) GetOwn(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	full, err := h.professionalService.GetByID(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, full)
}

// Create creates the caller's profile
// POST /api/professional/profile
func (h *ProfessionalHandler) Create(c *gin.Context) {
	var req services.ProfessionalProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.professionalService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, profile)
}

// Update edits the caller's profile
// PATCH /api/professional/profile
func (h *ProfessionalHandler) Update(c *gin.Context) {
	var req services.ProfessionalProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.professionalService.Update(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profile)
}

// Delete removes the caller's profile
// DELETE /api/professional/profile
func (h *ProfessionalHandler) Delete(c *gin.Context) {
	if err := h.professionalService.Delete(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Projects lists the caller's projects
// GET /api/professional/projects
func (h *ProfessionalHandler) Projects(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	projects, err := h.professionalService.ListProjects(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, projects)
}

// Services lists every service of the caller, public or not
// GET /api/professional/services
func (h *ProfessionalHandler) Services(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	list, err := h.catalogService.ListByProfile(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// Stats returns the caller's earnings and project counters
// GET /api/professional/stats
func (h *ProfessionalHandler) Stats(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	stats, err := h.professionalService.Stats(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, stats)
}

// Invitations lists job invitations sent to the caller
// GET /api/professional/invitations
func (h *ProfessionalHandler) Invitations(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	invitations, err := h.jobService.ListInvitations(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, invitations)
}

// RespondInvitation accepts or declines an invitation
// PATCH /api/invitations/:id
func (h *ProfessionalHandler) RespondInvitation(c *gin.Context) {
	var req services.InvitationResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	invitation, err := h.jobService.RespondInvitation(c.Request.Context(), profile.ID, c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, invitation)
}

// ListCertifications
// GET /api/professional/certifications
func (h *ProfessionalHandler) ListCertifications(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	certs, err := h.professionalService.ListCertifications(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, certs)
}

// AddCertification
// POST /api/professional/certifications
func (h *ProfessionalHandler) AddCertification(c *gin.Context) {
	var req services.CertificationRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	cert, err := h.professionalService.AddCertification(c.Request.Context(), profile.ID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, cert)
}

// DeleteCertification
// DELETE /api/professional/certifications/:id
func (h *ProfessionalHandler) DeleteCertification(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	if err := h.professionalService.DeleteCertification(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// ListPortfolio
// GET /api/professional/portfolio
func (h *ProfessionalHandler) ListPortfolio(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	items, err := h.professionalService.ListPortfolio(c.Request.Context(), profile.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, items)
}

// AddPortfolioItem
// POST /api/professional/portfolio
func (h *ProfessionalHandler) AddPortfolioItem(c *gin.Context) {
	var req services.PortfolioItemRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}

	item, err := h.professionalService.AddPortfolioItem(c.Request.Context(), profile.ID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, item)
}

// DeletePortfolioItem
// DELETE /api/professional/portfolio/:id
func (h *ProfessionalHandler) DeletePortfolioItem(c *gin.Context) {
	profile, ok := h.ownProfile(c)
	if !ok {
		return
	}
	if err := h.professionalService.DeletePortfolioItem(c.Request.Context(), profile.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// SetVerification records an admin's verification decision
// PATCH /api/admin/professionals/:id/verification
func (h *ProfessionalHandler) SetVerification(c *gin.Context) {
	var req services.VerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.professionalService.SetVerification(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, profile)
}
