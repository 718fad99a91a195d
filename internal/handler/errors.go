package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/kube-rca/accounts/internal/model"
	"github.com/kube-rca/accounts/internal/security"
	"github.com/kube-rca/accounts/internal/service"
)

func init() {
	// 필드 에러에 struct 이름 대신 json/form 태그 이름 사용
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("bcryptlen", bcryptLength)
	}
}

// bcryptLength rejects passwords bcrypt cannot hash (limit is in bytes, not runes).
func bcryptLength(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= security.MaxPasswordBytes
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, model.ErrorResponse{Error: msg})
}

// writeBindError answers 422 for bodies, forms and queries that fail binding.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, model.ValidationErrorResponse{
			Error:  "validation failed",
			Fields: []model.FieldError{{Field: "body", Message: err.Error()}},
		})
		return
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		fields = append(fields, model.FieldError{Field: fe.Field(), Message: msg})
	}
	c.JSON(http.StatusUnprocessableEntity, model.ValidationErrorResponse{
		Error:  "validation failed",
		Fields: fields,
	})
}

// writeError maps service sentinels to stable client messages.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIncorrectCredentials):
		errorJSON(c, http.StatusBadRequest, "Incorrect email or password")
	case errors.Is(err, service.ErrInactiveAccount):
		errorJSON(c, http.StatusBadRequest, "Inactive user")
	case errors.Is(err, service.ErrInvalidResetToken):
		errorJSON(c, http.StatusBadRequest, "Invalid token.")
	case errors.Is(err, service.ErrResetTokenExpired):
		errorJSON(c, http.StatusBadRequest, "Token expired.")
	case errors.Is(err, service.ErrIncorrectPassword):
		errorJSON(c, http.StatusBadRequest, "Incorrect password")
	case errors.Is(err, service.ErrNoLocalPassword):
		errorJSON(c, http.StatusBadRequest, "This account has no password; use password recovery to set one")
	case errors.Is(err, service.ErrSamePassword):
		errorJSON(c, http.StatusBadRequest, "New password cannot be the same as the current one")
	case errors.Is(err, service.ErrInvalidInput):
		errorJSON(c, http.StatusBadRequest, "invalid input")
	case errors.Is(err, service.ErrUnauthorized):
		errorJSON(c, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, service.ErrSignupDisabled):
		errorJSON(c, http.StatusForbidden, "Open user registration is forbidden on this server")
	case errors.Is(err, service.ErrForbidden):
		errorJSON(c, http.StatusForbidden, "The user doesn't have enough privileges")
	case errors.Is(err, service.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrIdentityConflict):
		errorJSON(c, http.StatusConflict, "This email is already linked to a different Google account")
	case errors.Is(err, service.ErrConflict):
		errorJSON(c, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, service.ErrUpstream):
		errorJSON(c, http.StatusBadGateway, "upstream service unavailable")
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		errorJSON(c, http.StatusInternalServerError, "server error")
	}
}
