package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ListForUser returns the public reviews received by a user
// GET /api/reviews/user/:userId
func (h *ReviewHandler) ListForUser(c *gin.Context) {
	reviews, err := h.reviewService.ListForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, reviews)
}

// Create reviews the other party of a completed project
// POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	var req services.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, review)
}

// Moderate hides or restores a review
// PATCH /api/admin/reviews/:id/moderation
func (h *ReviewHandler) Moderate(c *gin.Context) {
	var req services.ModerationRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Moderate(c.Request.Context(), c.Param("id"), *req.Moderated)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, review)
}
