package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SetType picks the account side once after signup
// POST /api/user/type
func (h *UserHandler) SetType(c *gin.Context) {
	var req services.SetUserTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetUserType(c.Request.Context(), middleware.GetUserID(c), req.UserType)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, user)
}

// UpdatePreferences edits language and display fields
// PATCH /api/user/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var req services.UpdatePreferencesRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdatePreferences(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, user)
}
