package middleware

import (
	"errors"
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// errorMapping pairs an application sentinel with its HTTP answer
type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

var errorMappings = []errorMapping{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Invalid request"},
	{apperrors.ErrOpenAttachmentExists, http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Student has an open attachment"},
	{apperrors.ErrIllegalTransition, http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Illegal status change"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
	{apperrors.ErrHasDependents, http.StatusConflict, dto.ErrorCodeConflict, "Record has dependent records"},
	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests, "Too many requests"},
}

// HandleAPIError writes the error response matching err. Errors that carry
// a client message keep it; unknown errors become a 500 and are logged.
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if custom, ok := apperrors.Message(err); ok {
			message = custom
		}
		detail := dto.NewErrorDetail(m.code, message)
		if details := apperrors.Details(err); details != nil {
			detail = detail.WithDetails(details)
		}
		c.AbortWithStatusJSON(m.status, dto.NewFailureResponse(detail))
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled error")
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewFailureResponse(detail))
}

// HandleBindError answers a request whose body or query failed to bind
func HandleBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewFailureResponse(dto.HandleValidationError(err)))
}
