// Package handler adapts the intent/hybrid pipeline to HTTP: request
// parsing, the /query, /health, /metrics, /openapi.yaml endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chessmate/chessmate/internal/domain"
)

// Response is the standard success envelope.
type Response struct {
	Data interface{} `json:"data,omitempty"`
}

// ErrorResponse is the standard failure envelope (spec §7).
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code, a human message, and optional details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONData wraps data in the standard success envelope.
func JSONData(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, Response{Data: data})
}

// Error writes the standard failure envelope.
func Error(w http.ResponseWriter, status int, code, message string, details interface{}) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// HandleError converts a domain error into an HTTP response, classifying
// by the same Kind taxonomy domain.ErrorCode uses (spec §7).
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validationErr domain.ValidationError
	if errors.As(err, &validationErr) {
		Error(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message, map[string]string{
			"field": validationErr.Field,
		})
		return
	}

	code := domain.ErrorCode(err)
	switch {
	case errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrPositionNotFound), errors.Is(err, domain.ErrEmbeddingJobNotFound):
		Error(w, http.StatusNotFound, code, err.Error(), nil)
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, code, err.Error(), nil)
	case errors.Is(err, domain.ErrUpstreamThrottled):
		Error(w, http.StatusTooManyRequests, code, err.Error(), nil)
	case errors.Is(err, domain.ErrTimeout):
		Error(w, http.StatusGatewayTimeout, code, err.Error(), nil)
	case errors.Is(err, domain.ErrSchemaViolation):
		Error(w, http.StatusBadGateway, code, err.Error(), nil)
	case errors.Is(err, domain.ErrPolicyViolation):
		Error(w, http.StatusRequestEntityTooLarge, code, err.Error(), nil)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		Error(w, http.StatusServiceUnavailable, code, err.Error(), nil)
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("internal error", "error", err)
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
