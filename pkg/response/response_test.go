package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestSuccess_WritesEntity(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["name"] != "test" {
		t.Errorf("name = %q, expected %q", body["name"], "test")
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]string{"id": "abc"})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
}

func TestUnauthorized_Body(t *testing.T) {
	w := performRequest(Unauthorized)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	if got := w.Body.String(); got != `{"error":"Unauthorized"}` {
		t.Errorf("body = %s, expected {\"error\":\"Unauthorized\"}", got)
	}
}

func TestConvenienceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler gin.HandlerFunc
		status  int
		message string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid input") }, http.StatusBadRequest, "invalid input"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "not yours") }, http.StatusForbidden, "not yours"},
		{"not found", func(c *gin.Context) { NotFound(c, "job not found") }, http.StatusNotFound, "job not found"},
		{"server error", func(c *gin.Context) { ServerError(c, "boom") }, http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(tt.handler)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			body := parseError(t, w)
			if body.Error != tt.message {
				t.Errorf("error = %q, expected %q", body.Error, tt.message)
			}
		})
	}
}

func TestError_AppErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"unauthorized", NewUnauthorized(), http.StatusUnauthorized},
		{"forbidden", NewForbidden("nope"), http.StatusForbidden},
		{"not found", NewNotFound("missing"), http.StatusNotFound},
		{"conflict", NewConflict("dup"), http.StatusConflict},
		{"validation", NewValidation(FieldError{Field: "title", Message: "is required"}), http.StatusBadRequest},
		{"upstream", NewUpstream("provider down"), http.StatusBadGateway},
		{"server", NewServerError("oops"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, fmt.Errorf("wrapped: %w", tt.err))
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			body := parseError(t, w)
			if body.Error != tt.err.Message {
				t.Errorf("error = %q, expected %q", body.Error, tt.err.Message)
			}
		})
	}
}

func TestError_GenericErrorHidesCause(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("pq: relation does not exist"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	body := parseError(t, w)
	if body.Error != "Internal server error" {
		t.Errorf("error = %q, expected generic message", body.Error)
	}
}

type sample struct {
	Title   string `validate:"required"`
	JobType string `validate:"required,oneof=training coaching"`
}

func TestFieldErrors_ListsFailingFields(t *testing.T) {
	v := validator.New()
	err := v.Struct(sample{JobType: "gardening"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := FieldErrors(err)
	if len(fields) != 2 {
		t.Fatalf("got %d fields, expected 2", len(fields))
	}
	if fields[0].Field != "title" || fields[0].Message != "is required" {
		t.Errorf("fields[0] = %+v", fields[0])
	}
	if fields[1].Field != "jobType" {
		t.Errorf("fields[1].Field = %q, expected %q", fields[1].Field, "jobType")
	}
}

func TestFieldErrors_MalformedBody(t *testing.T) {
	fields := FieldErrors(errors.New("unexpected EOF"))
	if len(fields) != 1 || fields[0].Field != "body" {
		t.Errorf("fields = %+v, expected single body entry", fields)
	}
}
