package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newLimitedAPI mounts the limiter the way the server does: once on /api,
// shared by the public listings and the AI endpoints.
func newLimitedAPI(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	api := r.Group("/api", rl.Middleware())
	api.GET("/jobs", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"items": []string{}}) })
	api.GET("/professionals", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"items": []string{}}) })
	api.POST("/ai/match", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"items": []string{}}) })
	return r
}

func doLimited(r *gin.Engine, method, path, addr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	req.RemoteAddr = addr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_DefaultBurstOnPublicListings(t *testing.T) {
	burst := config.DefaultConfig().RateLimit.Burst
	// near-zero refill keeps the count deterministic
	rl := NewRateLimiter(0.001, burst)
	defer rl.Stop()
	r := newLimitedAPI(rl)

	for i := 0; i < burst; i++ {
		if w := doLimited(r, "GET", "/api/jobs", "192.168.1.1:40000"); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: expected %d, got %d", i+1, http.StatusOK, w.Code)
		}
	}

	w := doLimited(r, "GET", "/api/jobs", "192.168.1.1:40000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected %d after burst of %d, got %d", http.StatusTooManyRequests, burst, w.Code)
	}
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "too many requests, please try again later" {
		t.Errorf("unexpected error message %q", body.Error)
	}
}

func TestRateLimit_BucketSharedAcrossListingsAndMatch(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()
	r := newLimitedAPI(rl)

	doLimited(r, "GET", "/api/jobs", "10.0.0.1:1234")
	doLimited(r, "GET", "/api/professionals", "10.0.0.1:1234")

	if w := doLimited(r, "POST", "/api/ai/match", "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Errorf("match after spent burst: expected %d, got %d", http.StatusTooManyRequests, w.Code)
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Stop()
	r := newLimitedAPI(rl)

	if w := doLimited(r, "POST", "/api/ai/match", "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Errorf("first client: expected %d, got %d", http.StatusOK, w.Code)
	}
	if w := doLimited(r, "POST", "/api/ai/match", "10.0.0.1:5678"); w.Code != http.StatusTooManyRequests {
		t.Errorf("first client, new port: expected %d, got %d", http.StatusTooManyRequests, w.Code)
	}
	if w := doLimited(r, "POST", "/api/ai/match", "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Errorf("second client: expected %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_UnlimitedOutsideGroup(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Stop()
	r := newLimitedAPI(rl)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	doLimited(r, "GET", "/api/jobs", "10.0.0.9:1")
	for i := 0; i < 3; i++ {
		if w := doLimited(r, "GET", "/health", "10.0.0.9:1"); w.Code != http.StatusOK {
			t.Errorf("health %d: expected %d, got %d", i, http.StatusOK, w.Code)
		}
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Stop()
	rl.Stop()
}
