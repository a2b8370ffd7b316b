package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func TestFail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		message  string
	}{
		{"not found", fmt.Errorf("job %w", services.ErrNotFound), http.StatusNotFound, "job not found"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"conflict", fmt.Errorf("review already exists: %w", services.ErrConflict), http.StatusConflict, ""},
		{"invalid transition", services.ErrInvalidTransition, http.StatusConflict, ""},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized, "Unauthorized"},
		{"not configured", services.ErrNotConfigured, http.StatusServiceUnavailable, ""},
		{"upstream", fmt.Errorf("stripe: %w", services.ErrUpstream), http.StatusBadGateway, "upstream provider failed"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			fail(c, tt.err)

			if w.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, w.Code)
			}
			var body response.ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if tt.message != "" && body.Error != tt.message {
				t.Errorf("error = %q, expected %q", body.Error, tt.message)
			}
		})
	}
}

func TestFail_Validation(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fail(c, &services.ValidationError{Issues: []services.FieldIssue{
		{Field: "title", Message: "is required"},
		{Field: "budget", Message: "must be a decimal amount"},
	}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	var body response.ErrorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "Validation failed" || len(body.Fields) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.Fields[0].Field != "title" || body.Fields[1].Field != "budget" {
		t.Errorf("fields = %+v", body.Fields)
	}
}

type moneyRequest struct {
	Amount string `json:"amount" binding:"required,money"`
}

func TestBindJSON_Money(t *testing.T) {
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req moneyRequest
		if !bindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount})
	})

	tests := []struct {
		body     string
		expected int
	}{
		{`{"amount":"1200.50"}`, http.StatusOK},
		{`{"amount":"15"}`, http.StatusOK},
		{`{"amount":"12,00"}`, http.StatusBadRequest},
		{`{"amount":"1.234"}`, http.StatusBadRequest},
		{`{"amount":"-5"}`, http.StatusBadRequest},
		{`{}`, http.StatusBadRequest},
		{`{"amount":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != tt.expected {
			t.Errorf("body %s: expected status %d, got %d", tt.body, tt.expected, w.Code)
		}
	}
}

func TestBindJSON_ReportsJSONFieldNames(t *testing.T) {
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req moneyRequest
		if bindJSON(c, &req) {
			c.Status(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var body response.ErrorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Fields) != 1 || body.Fields[0].Field != "amount" {
		t.Errorf("fields = %+v, expected a single amount entry", body.Fields)
	}
}

func TestBindQuery(t *testing.T) {
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		var req struct {
			Note string `form:"note" binding:"max=3"`
		}
		if bindQuery(c, &req) {
			c.JSON(http.StatusOK, gin.H{"note": req.Note})
		}
	})

	tests := []struct {
		query    string
		expected int
	}{
		{"/?note=abc", http.StatusOK},
		{"/?note=abcd", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, tt.query, nil)
		router.ServeHTTP(w, req)
		if w.Code != tt.expected {
			t.Errorf("%s: expected status %d, got %d", tt.query, tt.expected, w.Code)
		}
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm: %v", err)
	}
	return db, mock
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		expected int
		status   string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			ping := mock.ExpectPing()
			if tt.pingErr != nil {
				ping.WillReturnError(tt.pingErr)
			}

			router := gin.New()
			router.GET("/api/health", NewHealthHandler(db, nil, nil).CheckHealth)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/health", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, w.Code)
			}
			var body struct {
				Status     string                 `json:"status"`
				Components map[string]interface{} `json:"components"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Status != tt.status {
				t.Errorf("status = %q, expected %q", body.Status, tt.status)
			}
			if body.Components["queue_mode"] != "sync" {
				t.Errorf("queue_mode = %v, expected sync", body.Components["queue_mode"])
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestMatch_AcceptsTypeSpellings(t *testing.T) {
	router := gin.New()
	router.POST("/api/ai/match", NewAIHandler(services.NewMatchService(nil, nil), nil).Match)

	tests := []struct {
		kind     string
		expected int
	}{
		{"professional", http.StatusServiceUnavailable},
		{"job", http.StatusServiceUnavailable},
		{"professionals", http.StatusServiceUnavailable},
		{"courses", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		body := `{"query":"sales coach","type":"` + tt.kind + `"}`
		req, _ := http.NewRequest(http.MethodPost, "/api/ai/match", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != tt.expected {
			t.Errorf("type %q: expected status %d, got %d", tt.kind, tt.expected, w.Code)
		}
	}
}
