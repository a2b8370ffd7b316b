package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/middleware"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
	session     config.SessionConfig
}

func NewAuthHandler(authService *services.AuthService, session *config.SessionConfig) *AuthHandler {
	return &AuthHandler{authService: authService, session: *session}
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Exchange trades an identity provider ID token for a session
// POST /api/auth/session
func (h *AuthHandler) Exchange(c *gin.Context) {
	var req services.SessionExchangeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.ExchangeIdentity(c.Request.Context(), req.IDToken)
	if err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, result)
}

// Login handles local password login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	h.startSession(c, result)
}

func (h *AuthHandler) startSession(c *gin.Context, result *services.LoginResult) {
	maxAge := int(time.Until(result.ExpireAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, result.Token, maxAge, "/", "", h.session.SecureCookie, true)
	response.Success(c, sessionResponse{Token: result.Token, ExpiresAt: result.ExpireAt, User: result.User})
}

// Logout revokes the current session and clears the cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.SecureCookie, true)
	response.NoContent(c)
}

// CurrentUser returns the logged-in user
// GET /api/auth/user
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthorized(c)
		return
	}
	response.Success(c, user)
}
