package api

import (
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/foodgram/backend/internal/service"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			for _, r := range fl.Field().String() {
				switch {
				case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				case r == '.', r == '@', r == '+', r == '-':
				default:
					return false
				}
			}
			return true
		})
	}
}

// respondError maps the service error taxonomy onto HTTP statuses.
// ConflictError renders as 400, matching the original API contract.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, verr.Fields)
		return
	}
	var perr *service.PermissionError
	if errors.As(err, &perr) {
		c.JSON(http.StatusForbidden, gin.H{"detail": perr.Error()})
		return
	}
	var nferr *service.NotFoundError
	if errors.As(err, &nferr) {
		c.JSON(http.StatusNotFound, gin.H{"detail": nferr.Error()})
		return
	}
	var cerr *service.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": cerr.Error()})
		return
	}
	log.Printf("[api] internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}

// respondBindError converts gin binding failures into the same field-keyed
// shape the service layer produces.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				fields[field] = "this field is required"
			case "email":
				fields[field] = "enter a valid email address"
			case "username":
				fields[field] = "use letters, digits, '.', '@', '+', '-'"
			case "max":
				fields[field] = "value too long"
			default:
				fields[field] = "invalid value"
			}
		}
		c.JSON(http.StatusBadRequest, fields)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request body"})
}
