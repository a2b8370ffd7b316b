package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

// AIUsageHandler reports embedding and translation provider usage.
type AIUsageHandler struct {
	usageService *services.AIUsageService
}

func NewAIUsageHandler(usageService *services.AIUsageService) *AIUsageHandler {
	return &AIUsageHandler{usageService: usageService}
}

// GetReport returns totals, a daily trend and a per-provider breakdown.
// GET /api/admin/ai-usage
func (h *AIUsageHandler) GetReport(c *gin.Context) {
	var req services.AIUsageRequest
	if !bindQuery(c, &req) {
		return
	}

	report, err := h.usageService.Report(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, report)
}
