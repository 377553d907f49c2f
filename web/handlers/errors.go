package handlers

import (
	"errors"
	"net/http"

	vizerrors "viz-agent/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	if logger != nil {
		fields = append(fields, zap.Error(technicalError))
		logger.Error("Request failed", fields...)
	}

	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// statusForError maps the pipeline error taxonomy to an HTTP status and a
// message safe to show the user.
func statusForError(err error) (int, string) {
	switch {
	case vizerrors.IsInvalidInput(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, vizerrors.ErrAuthentication):
		return http.StatusBadGateway, "the analysis service rejected our credentials; check the API key"
	case errors.Is(err, vizerrors.ErrRateLimited):
		return http.StatusServiceUnavailable, "the analysis service is rate limiting requests; try again shortly"
	case errors.Is(err, vizerrors.ErrLLMUnavailable):
		return http.StatusServiceUnavailable, "the analysis service is unreachable; try again shortly"
	case vizerrors.IsExhausted(err):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "analysis failed unexpectedly"
	}
}
