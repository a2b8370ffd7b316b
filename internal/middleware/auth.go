package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

const (
	ContextUser     = "user"
	ContextUserID   = "user_id"
	ContextUserType = "user_type"
	ContextToken    = "session_token"
)

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// SessionToken extracts the session credential from the cookie or an
// "Authorization: Bearer" header.
func SessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// SessionRequired rejects requests without a valid session. A request with
// no credential at all is turned away before any database access.
func SessionRequired(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			response.Unauthorized(c)
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				_ = c.Error(err)
			}
			response.Unauthorized(c)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserType, string(user.UserType))
		c.Set(ContextToken, token)
		c.Next()
	}
}

// SessionOptional attaches the user when a valid session is present and
// lets the request through either way.
func SessionOptional(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := SessionToken(c, cookieName); token != "" {
			if user, err := resolver.Resolve(c.Request.Context(), token); err == nil {
				c.Set(ContextUser, user)
				c.Set(ContextUserID, user.ID)
				c.Set(ContextUserType, string(user.UserType))
				c.Set(ContextToken, token)
			}
		}
		c.Next()
	}
}

// AdminRequired must run after SessionRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserType(c) != string(models.UserTypeAdmin) {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

// GetUser returns the authenticated user, or nil on public routes.
func GetUser(c *gin.Context) *models.User {
	if v, exists := c.Get(ContextUser); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func GetUserType(c *gin.Context) string {
	return c.GetString(ContextUserType)
}

func GetToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}
