package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*gin.Engine, *appServices) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := models.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc, err := bootstrap(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(svc.shutdown)

	r := gin.New()
	registerRoutes(r, svc)
	return r, svc
}

// signIn creates a company user with a profile and returns a session token.
func signIn(t *testing.T, svc *appServices) string {
	t.Helper()
	email := uuid.NewString()[:8] + "@acme.test"
	user := &models.User{Email: &email, FirstName: "Dana", UserType: models.UserTypeCompany}
	if err := svc.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	company := &models.CompanyProfile{UserID: user.ID, CompanyName: models.LocalizedText{En: "Acme"}}
	if err := svc.db.Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	token, _, err := svc.sessions.Create(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func TestRoutes_ProtectedRequiresSession(t *testing.T) {
	r, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/notifications", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Unauthorized" {
		t.Errorf("error = %v, expected Unauthorized", body["error"])
	}
}

func TestRoutes_AdminRequiresAdmin(t *testing.T) {
	r, svc := newTestServer(t)
	token := signIn(t, svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestRoutes_CreateAndListJob(t *testing.T) {
	r, svc := newTestServer(t)
	token := signIn(t, svc)

	payload := `{"title":{"en":"Negotiation bootcamp"},"titleAr":"معسكر التفاوض","jobType":"training","budget":"3200.5","isPublic":true}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: svc.cfg.Session.CookieName, Value: token})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var created struct {
		ID               string               `json:"id"`
		Title            models.LocalizedText `json:"title"`
		Budget           string               `json:"budget"`
		ApplicationCount int                  `json:"applicationCount"`
		ViewCount        int                  `json:"viewCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if created.ID == "" || created.Title.Ar != "معسكر التفاوض" || created.Budget != "3200.50" {
		t.Errorf("created = %+v", created)
	}
	if created.ApplicationCount != 0 || created.ViewCount != 0 {
		t.Errorf("counters = %d/%d, expected zero", created.ApplicationCount, created.ViewCount)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/jobs", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var listed []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("listed = %+v, expected the created job", listed)
	}
}

func TestRoutes_RejectsInvalidMoney(t *testing.T) {
	r, svc := newTestServer(t)
	token := signIn(t, svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"title":{"en":"X"},"jobType":"training","budget":"12,00"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	var body struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Fields) != 1 || body.Fields[0].Field != "budget" {
		t.Errorf("fields = %+v, expected budget", body.Fields)
	}
}
