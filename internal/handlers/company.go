package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type CompanyHandler struct {
	companyService *services.CompanyService
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// callerCompany loads the caller's company profile or answers 404.
func callerCompany(c *gin.Context, companies *services.CompanyService) (*models.CompanyProfile, bool) {
	company, err := companies.GetByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return company, true
}

// Get returns the caller's company profile
// GET /api/company/profile
func (h *CompanyHandler) Get(c *gin.Context) {
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}
	response.Success(c, company)
}

// Create creates the caller's company profile
// POST /api/company/profile
func (h *CompanyHandler) Create(c *gin.Context) {
	var req services.CompanyProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companyService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, company)
}

// Update edits the caller's company profile
// PATCH /api/company/profile
func (h *CompanyHandler) Update(c *gin.Context) {
	var req services.CompanyProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companyService.Update(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, company)
}

// Delete removes the caller's company profile
// DELETE /api/company/profile
func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.companyService.Delete(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Jobs lists the caller's jobs, public or not
// GET /api/company/jobs
func (h *CompanyHandler) Jobs(c *gin.Context) {
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}
	jobs, err := h.companyService.ListJobs(c.Request.Context(), company.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, jobs)
}

// Projects lists the caller's projects
// GET /api/company/projects
func (h *CompanyHandler) Projects(c *gin.Context) {
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}
	projects, err := h.companyService.ListProjects(c.Request.Context(), company.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, projects)
}

// ListTeam
// GET /api/company/team
func (h *CompanyHandler) ListTeam(c *gin.Context) {
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}
	members, err := h.companyService.ListTeamMembers(c.Request.Context(), company.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, members)
}

// AddTeamMember
// POST /api/company/team
func (h *CompanyHandler) AddTeamMember(c *gin.Context) {
	var req services.TeamMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}

	member, err := h.companyService.AddTeamMember(c.Request.Context(), company.ID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, member)
}

// RemoveTeamMember
// DELETE /api/company/team/:id
func (h *CompanyHandler) RemoveTeamMember(c *gin.Context) {
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}
	if err := h.companyService.RemoveTeamMember(c.Request.Context(), company.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}
