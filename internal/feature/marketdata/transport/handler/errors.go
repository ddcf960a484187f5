// Package handler はmarketdataフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"hawkiz_backend/internal/feature/marketdata/domain"
	"hawkiz_backend/internal/feature/marketdata/transport/http/dto"
)

// Error codes returned in the "code" field.
const (
	CodeValidation = "validation_error"
	CodeProvider   = "provider_error"
	CodeStore      = "store_error"
	CodeCanceled   = "request_canceled"
	CodeInternal   = "internal_error"
)

// statusFor maps an error category to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway, CodeProvider
	case errors.Is(err, domain.ErrStore):
		return http.StatusInternalServerError, CodeStore
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeCanceled
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError はエラー種別に応じたステータスで {"error","code"} を返します。
func writeError(c *gin.Context, action string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(action, "path", c.Request.URL.Path, "code", code, "error", err)
	} else {
		slog.Warn(action, "path", c.Request.URL.Path, "code", code, "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Error: fmt.Sprintf("%s: %v", action, err),
		Code:  code,
	})
}

// bindQuery binds one form-style query parameter, reporting failures as validation errors.
// runtime.BindQueryParameter skips struct destinations such as types.Date
// when the parameter is absent, so required is checked here.
func bindQuery(c *gin.Context, name string, required bool, dest any) error {
	query := c.Request.URL.Query()
	if required && query.Get(name) == "" {
		return &domain.ValidationError{Field: name, Message: fmt.Sprintf("query parameter '%s' is required", name)}
	}
	if err := runtime.BindQueryParameter("form", true, required, name, query, dest); err != nil {
		return &domain.ValidationError{Field: name, Message: err.Error()}
	}
	return nil
}
