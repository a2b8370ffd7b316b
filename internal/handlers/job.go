package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type JobHandler struct {
	jobService     *services.JobService
	companyService *services.CompanyService
}

func NewJobHandler(jobService *services.JobService, companyService *services.CompanyService) *JobHandler {
	return &JobHandler{jobService: jobService, companyService: companyService}
}

// List returns public jobs
// GET /api/jobs
func (h *JobHandler) List(c *gin.Context) {
	var req services.JobListRequest
	if !bindQuery(c, &req) {
		return
	}

	jobs, err := h.jobService.ListPublic(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, jobs)
}

// Get returns a public job, or a private one to its company, and counts
// the view
// GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	job, err := h.jobService.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	owner := job.Company != nil && job.Company.UserID == middleware.GetUserID(c)
	if !job.IsPublic && !owner {
		response.NotFound(c, "job not found")
		return
	}
	if !owner {
		if err := h.jobService.RecordView(ctx, job.ID); err != nil {
			logger.Warn().Err(err).Str("job_id", job.ID).Msg("[Job] Failed to record view")
		}
	}
	response.Success(c, job)
}

// Create posts a job for the caller's company
// POST /api/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req services.CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}

	job, err := h.jobService.Create(c.Request.Context(), company.ID, middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, job)
}

// Update edits a job of the caller's company
// PATCH /api/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	var req services.UpdateJobRequest
	if !bindJSON(c, &req) {
		return
	}
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}

	job, err := h.jobService.Update(c.Request.Context(), company.ID, c.Param("id"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, job)
}

// Delete removes a job of the caller's company
// DELETE /api/jobs/:id
func (h *JobHandler) Delete(c *gin.Context) {
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}
	if err := h.jobService.Delete(c.Request.Context(), company.ID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}

// Invite asks a professional to apply for the job
// POST /api/jobs/:id/invitations
func (h *JobHandler) Invite(c *gin.Context) {
	var req services.InvitationRequest
	if !bindJSON(c, &req) {
		return
	}
	company, ok := callerCompany(c, h.companyService)
	if !ok {
		return
	}

	invitation, err := h.jobService.Invite(c.Request.Context(), company.ID, c.Param("id"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, invitation)
}
