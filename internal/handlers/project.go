package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	companyService *services.CompanyService
	paymentService *services.PaymentService
	reviewService  *services.ReviewService
}

func NewProjectHandler(projectService *services.ProjectService, companyService *services.CompanyService, paymentService *services.PaymentService, reviewService *services.ReviewService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		companyService: companyService,
		paymentService: paymentService,
		reviewService:  reviewService,
	}
}

// access loads the project for the caller. Admins may read; writes need
// one of the two parties.
func (h *ProjectHandler) access(c *gin.Context, projectID string, write bool) (*models.Project, services.ProjectRole, bool) {
	project, role, err := h.projectService.Access(c.Request.Context(), projectID, middleware.GetUser(c))
	if err != nil {
		fail(c, err)
		return nil, "", false
	}
	if write && role == services.RoleAdmin {
		response.Forbidden(c, "only project participants can change a project")
		return nil, "", false
	}
	return project, role, true
}

// Get returns a project with its milestones
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, _, ok := h.access(c, c.Param("id"), false)
	if !ok {
		return
	}
	response.Success(c, project)
}

// Create opens a project between the caller's company and a professional
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), company.ID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, project)
}

// Update edits a project and moves its status
// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, _, ok := h.access(c, c.Param("id"), true)
	if !ok {
		return
	}

	updated, err := h.projectService.Update(c.Request.Context(), project.ID, middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, updated)
}

// ListMilestones
// GET /api/projects/:id/milestones
func (h *ProjectHandler) ListMilestones(c *gin.Context) {
	project, _, ok := h.access(c, c.Param("id"), false)
	if !ok {
		return
	}
	milestones, err := h.projectService.ListMilestones(c.Request.Context(), project.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, milestones)
}

// AddMilestone appends a milestone; only the company side plans them
// POST /api/projects/:id/milestones
func (h *ProjectHandler) AddMilestone(c *gin.Context) {
	var req services.MilestoneRequest
	if !bindJSON(c, &req) {
		return
	}
	project, role, ok := h.access(c, c.Param("id"), true)
	if !ok {
		return
	}
	if role != services.RoleCompany {
		response.Forbidden(c, "only the company can add milestones")
		return
	}

	milestone, err := h.projectService.AddMilestone(c.Request.Context(), project.ID, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, milestone)
}

// UpdateMilestone moves a milestone along its lifecycle
// PATCH /api/milestones/:id
func (h *ProjectHandler) UpdateMilestone(c *gin.Context) {
	var req services.MilestoneStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	milestone, err := h.projectService.GetMilestone(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if _, _, ok := h.access(c, milestone.ProjectID, true); !ok {
		return
	}

	updated, err := h.projectService.UpdateMilestoneStatus(c.Request.Context(), milestone.ID, middleware.GetUserID(c), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, updated)
}

// ListPayments
// GET /api/projects/:id/payments
func (h *ProjectHandler) ListPayments(c *gin.Context) {
	project, _, ok := h.access(c, c.Param("id"), false)
	if !ok {
		return
	}
	payments, err := h.paymentService.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, payments)
}

// ListReviews
// GET /api/projects/:id/reviews
func (h *ProjectHandler) ListReviews(c *gin.Context) {
	project, _, ok := h.access(c, c.Param("id"), false)
	if !ok {
		return
	}
	reviews, err := h.reviewService.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, reviews)
}
