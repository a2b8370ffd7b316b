package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	projectService *services.ProjectService
}

func NewPaymentHandler(paymentService *services.PaymentService, projectService *services.ProjectService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, projectService: projectService}
}

// CreateIntent authorizes a payment from the project's company
// POST /api/payments/create-intent
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req services.CreateIntentRequest
	if !bindJSON(c, &req) {
		return
	}
	project, role, err := h.projectService.Access(c.Request.Context(), req.ProjectID, middleware.GetUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	if role != services.RoleCompany {
		response.Forbidden(c, "only the project's company can pay")
		return
	}

	result, err := h.paymentService.CreateIntent(c.Request.Context(), project, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, result)
}

// Capture
// POST /api/payments/:id/capture
func (h *PaymentHandler) Capture(c *gin.Context) {
	if !h.authorize(c, false) {
		return
	}
	h.respond(c)(h.paymentService.Capture(c.Request.Context(), c.Param("id")))
}

// Release
// POST /api/payments/:id/release
func (h *PaymentHandler) Release(c *gin.Context) {
	if !h.authorize(c, false) {
		return
	}
	h.respond(c)(h.paymentService.Release(c.Request.Context(), c.Param("id")))
}

// Refund; admins may refund on the company's behalf
// POST /api/payments/:id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	if !h.authorize(c, true) {
		return
	}
	h.respond(c)(h.paymentService.Refund(c.Request.Context(), c.Param("id")))
}

// authorize checks that the caller is the paying company of the payment's
// project.
func (h *PaymentHandler) authorize(c *gin.Context, allowAdmin bool) bool {
	ctx := c.Request.Context()
	payment, err := h.paymentService.Get(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return false
	}
	_, role, err := h.projectService.Access(ctx, payment.ProjectID, middleware.GetUser(c))
	if err != nil {
		fail(c, err)
		return false
	}
	if role == services.RoleCompany || (allowAdmin && role == services.RoleAdmin) {
		return true
	}
	response.Forbidden(c, "only the project's company can manage its payments")
	return false
}

func (h *PaymentHandler) respond(c *gin.Context) func(*models.Payment, error) {
	return func(payment *models.Payment, err error) {
		if err != nil {
			fail(c, err)
			return
		}
		response.Success(c, payment)
	}
}
