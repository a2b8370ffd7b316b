package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services"
	"github.com/lndnexus/marketplace/backend/pkg/response"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags and reports field
// names by their JSON key. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" {
				name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
			}
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			field := fl.Field()
			return field.Kind() == reflect.String && models.ValidMoney(field.String())
		})
	})
}

// fail maps a service error onto the HTTP error contract.
func fail(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]response.FieldError, len(verr.Issues))
		for i, issue := range verr.Issues {
			fields[i] = response.FieldError{Field: issue.Field, Message: issue.Message}
		}
		response.Error(c, response.NewValidation(fields...))
	case errors.Is(err, services.ErrUnauthenticated):
		response.Unauthorized(c)
	case errors.Is(err, services.ErrNotFound):
		response.Error(c, response.NewNotFound(err.Error()))
	case errors.Is(err, services.ErrForbidden):
		response.Error(c, response.NewForbidden(err.Error()))
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidTransition):
		response.Error(c, response.NewConflict(err.Error()))
	case errors.Is(err, services.ErrNotConfigured):
		response.Error(c, response.NewUnavailable(err.Error()))
	case errors.Is(err, services.ErrUpstream):
		_ = c.Error(err)
		response.Error(c, response.NewUpstream("upstream provider failed"))
	default:
		response.Error(c, err)
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Invalid(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.Invalid(c, err)
		return false
	}
	return true
}
