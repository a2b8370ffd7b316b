package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeResolver knows one token and counts lookups.
type fakeResolver struct {
	token string
	user  *models.User
	calls int
}

func (r *fakeResolver) Resolve(_ context.Context, token string) (*models.User, error) {
	r.calls++
	if token != r.token {
		return nil, services.ErrUnauthenticated
	}
	return r.user, nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		token: "good-token",
		user:  &models.User{Base: models.Base{ID: "user-1"}, UserType: models.UserTypeCompany},
	}
}

func protectedRouter(resolver SessionResolver) *gin.Engine {
	router := gin.New()
	router.Use(SessionRequired(resolver, "sid"))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id":   GetUserID(c),
			"user_type": GetUserType(c),
		})
	})
	return router
}

func TestSessionRequired_NoCredential(t *testing.T) {
	resolver := newResolver()
	router := protectedRouter(resolver)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Unauthorized" {
		t.Errorf("error = %q, expected %q", body["error"], "Unauthorized")
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times, expected no lookup", resolver.calls)
	}
}

func TestSessionRequired_InvalidCredential(t *testing.T) {
	router := protectedRouter(newResolver())

	testCases := []struct {
		name   string
		header string
		cookie string
	}{
		{"unknown bearer", "Bearer stale-token", ""},
		{"basic scheme", "Basic good-token", ""},
		{"unknown cookie", "", "stale-token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sid", Value: tc.cookie})
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
		})
	}
}

func TestSessionRequired_Bearer(t *testing.T) {
	router := protectedRouter(newResolver())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["user_id"] != "user-1" || body["user_type"] != "company" {
		t.Errorf("context = %v", body)
	}
}

func TestSessionRequired_Cookie(t *testing.T) {
	router := protectedRouter(newResolver())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "good-token"})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func adminRouter(userType string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userType != "" {
			c.Set(ContextUserType, userType)
		}
		c.Next()
	})
	router.Use(AdminRequired())
	router.GET("/admin", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func TestAdminRequired(t *testing.T) {
	tests := []struct {
		userType string
		expected int
	}{
		{"", http.StatusForbidden},
		{"professional", http.StatusForbidden},
		{"company", http.StatusForbidden},
		{"admin", http.StatusOK},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin", nil)
		adminRouter(tt.userType).ServeHTTP(w, req)

		if w.Code != tt.expected {
			t.Errorf("userType %q: expected status %d, got %d", tt.userType, tt.expected, w.Code)
		}
	}
}

func TestGetters(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUser(c) != nil || GetUserID(c) != "" || GetUserType(c) != "" || GetToken(c) != "" {
		t.Error("expected zero values on an unauthenticated context")
	}

	user := &models.User{Base: models.Base{ID: "user-9"}}
	c.Set(ContextUser, user)
	c.Set(ContextUserID, "user-9")
	c.Set(ContextToken, "tok")

	if GetUser(c) != user {
		t.Error("GetUser did not return the stored user")
	}
	if GetUserID(c) != "user-9" {
		t.Errorf("GetUserID = %q", GetUserID(c))
	}
	if GetToken(c) != "tok" {
		t.Errorf("GetToken = %q", GetToken(c))
	}
}

func TestSessionOptional(t *testing.T) {
	resolver := newResolver()
	router := gin.New()
	router.Use(SessionOptional(resolver, "sid"))
	router.GET("/public", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": GetUserID(c)})
	})

	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"anonymous", "", ""},
		{"stale token", "Bearer stale-token", ""},
		{"valid token", "Bearer good-token", "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/public", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["user_id"] != tt.expected {
				t.Errorf("user_id = %q, expected %q", body["user_id"], tt.expected)
			}
		})
	}
}
