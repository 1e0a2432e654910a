package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"easylesson/internal/ai"
	"easylesson/internal/generator"
	"easylesson/internal/models"
	"easylesson/internal/store"
)

var errNarrationUnavailable = errors.New("narration is not configured")

// APIError is the error object of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorResponse carries the message twice: the front end reads "detail".
type ErrorResponse struct {
	Error  APIError `json:"error"`
	Detail string   `json:"detail"`
}

// classify maps an error to a status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, generator.ErrInvalidModelOutput):
		return http.StatusUnprocessableEntity, "invalid_model_output"
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusServiceUnavailable, "llm_not_configured"
	case errors.Is(err, ai.ErrUpstream), errors.Is(err, ai.ErrEmptyCompletion):
		return http.StatusServiceUnavailable, "llm_unavailable"
	case errors.Is(err, errNarrationUnavailable):
		return http.StatusServiceUnavailable, "narration_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:  APIError{Message: msg, Code: code},
		Detail: msg,
	})
}
