package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type AIHandler struct {
	matchService *services.MatchService
	translator   services.Translator
}

// NewAIHandler accepts a nil translator; translate requests then get 503.
func NewAIHandler(matchService *services.MatchService, translator services.Translator) *AIHandler {
	return &AIHandler{matchService: matchService, translator: translator}
}

// Match ranks jobs or professionals against a free-text query
// POST /api/ai/match
func (h *AIHandler) Match(c *gin.Context) {
	var req services.MatchRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.matchService.Match(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// Translate renders text in the target language
// POST /api/ai/translate
func (h *AIHandler) Translate(c *gin.Context) {
	var req services.TranslateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := services.TranslateText(c.Request.Context(), h.translator, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}
