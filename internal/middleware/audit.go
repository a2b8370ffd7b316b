package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/models"
)

const auditBodyLimit = 2000

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.SystemLog)
}

// AuditLog records every write request (POST/PUT/PATCH/DELETE) with the
// acting user, the outcome and a masked snippet of the JSON body.
func AuditLog(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > auditBodyLimit {
				bodySnippet = bodySnippet[:auditBodyLimit] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		entry := &models.SystemLog{
			Level:     auditLevel(status),
			Module:    module,
			Action:    action,
			Message:   formatAuditMessage(GetUserID(c), method, c.Request.URL.Path, status),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Status:    status,
			Extra: map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"body":   bodySnippet,
			},
		}
		if userID := GetUserID(c); userID != "" {
			entry.UserID = &userID
		}
		recorder.Record(c.Request.Context(), entry)
	}
}

func auditLevel(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "warning"
	}
	return "info"
}

// parseRouteInfo derives module and action from a route pattern, e.g.
// "/api/jobs/:id" + PATCH gives module "Jobs", action "Update".
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")

	module, _, _ = strings.Cut(path, "/")
	if module == "" {
		module = "unknown"
	}
	words := strings.Fields(strings.ReplaceAll(module, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	module = strings.Join(words, " ")

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

func formatAuditMessage(userID, method, path string, status int) string {
	if userID == "" {
		userID = "anonymous"
	}
	outcome := "Failed"
	if status >= 200 && status < 300 {
		outcome = "OK"
	}
	return "[Audit] " + userID + " " + method + " " + path + " -> " + outcome
}

var sensitiveKeys = []string{"password", "idtoken", "api_key", "apikey", "secret", "token", "clientsecret"}

// maskSensitiveFields blanks the values of credential-like keys in a JSON body.
func maskSensitiveFields(body string) string {
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, `"`+key+`"`) {
			body = maskJSONValue(body, key)
			lower = strings.ToLower(body)
		}
	}
	return body
}

// maskJSONValue does a best-effort mask of the string value following key.
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, `"`+key+`"`)
	if idx == -1 {
		return body
	}

	rest := idx + len(key) + 2
	colonIdx := strings.Index(body[rest:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := rest + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) || body[valueStart] != '"' {
		return body
	}

	endQuote := strings.Index(body[valueStart+1:], `"`)
	if endQuote == -1 {
		return body
	}
	return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
}
