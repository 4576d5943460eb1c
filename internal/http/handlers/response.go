// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by every endpoint: the
// error envelope, the mapping from service errors to HTTP statuses, success
// helpers and weak ETag handling.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "user not found",
//	  "error": "user not found"
//	}
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"user not found"`
	// Same text as Message, under the key older clients read
	Error string `json:"error" example:"user not found"`
}

// SuccessResponse is returned by operations that only report success.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// genericServerError is the only text a client sees for 5xx failures.
const genericServerError = "internal server error"

// fail aborts the request with a structured error. Server errors (>=500) are
// logged through the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Error:     msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates a service or auth error into the error taxonomy:
// validation → 400, conflict → 400 username_taken, missing → 404,
// rejected identity → 401, anything else → 500 with a generic message and
// the detail recorded on the gin context for the access log.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidPicture),
		errors.Is(err, services.ErrEmptyFile):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUnsupportedMedia):
		fail(c, http.StatusBadRequest, ErrCodeUnsupportedMedia, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		fail(c, http.StatusBadRequest, ErrCodeFileTooLarge, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusBadRequest, ErrCodeUsernameTaken, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrReplyNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid identity token")
	case errors.Is(err, auth.ErrVerifierDisabled):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identity token sign-in is not enabled")
	default:
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, genericServerError)
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// weakETag formats a weak validator from a collection's size and last change.
// limit is the effective page size; pages of different sizes over the same
// collection must not validate each other.
func weakETag(scope string, limit int, count, lastChange int64) string {
	return fmt.Sprintf(`W/"%s:%d:%d:%d"`, scope, limit, count, lastChange)
}

// notModified sets ETag and reports whether If-None-Match matched it, in
// which case a 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
