package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/timmy/wdym/internal/api/middleware"
	"github.com/timmy/wdym/internal/domain"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationResponse is the 422 body.
type ValidationResponse struct {
	Errors []FieldError `json:"errors"`
}

// RegisterFieldNames makes validation errors report json/uri field names.
func RegisterFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "uri"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

// respondBindError writes a 422 for a failed ShouldBind* call.
func respondBindError(c *gin.Context, err error) {
	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
	)

	resp := ValidationResponse{}
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			resp.Errors = append(resp.Errors, FieldError{
				Field:   fieldPath(fe),
				Tag:     fe.Tag(),
				Message: fieldMessage(fe),
			})
		}
	case errors.As(err, &typeErr):
		resp.Errors = append(resp.Errors, FieldError{
			Field:   typeErr.Field,
			Tag:     "type",
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.Kind()),
		})
	default:
		resp.Errors = append(resp.Errors, FieldError{
			Field:   "body",
			Tag:     "json",
			Message: "malformed request body",
		})
	}

	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, resp)
}

// fieldPath drops the struct name from the namespace: answer.memeId.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "number":
		return "must be a positive integer"
	case "alphanum":
		return "must be alphanumeric"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// respondError maps service errors to status codes. Internal failures are
// logged and answered without a body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ValidationResponse{
			Errors: []FieldError{{Field: "body", Tag: "invalid", Message: err.Error()}},
		})
	default:
		middleware.GetLogger(c).WithError(err).Error("Request failed")
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
