package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"domainlens/internal/domain"
	"domainlens/internal/service"
	"domainlens/internal/whois"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeWhoisDisabled = "WHOIS_DISABLED"
	CodeWhoisError    = "WHOIS_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeBodyTooLarge  = "BODY_TOO_LARGE"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse represents a successful response
type SuccessResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already sent, so an encoding failure can only be dropped.
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// respondSuccess sends a success response
func respondSuccess(w http.ResponseWriter, statusCode int, data any, message string) {
	respondJSON(w, statusCode, SuccessResponse{
		Data:    data,
		Message: message,
	})
}

// classifyError maps a service error to its HTTP status, code and client message.
// Store failures never expose the driver error to the client.
func classifyError(err error) (int, string, string, map[string]string) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		var details map[string]string
		if validationErr.Field != "" {
			details = map[string]string{validationErr.Field: validationErr.Reason}
		}
		return http.StatusBadRequest, CodeInvalidInput, validationErr.Error(), details
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeInvalidInput, err.Error(), nil
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, CodeNotFound, notFoundErr.Error(), nil
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "resource not found", nil
	case errors.Is(err, service.ErrEnrichmentDisabled):
		return http.StatusServiceUnavailable, CodeWhoisDisabled, err.Error(), nil
	case errors.Is(err, whois.ErrLookup):
		return http.StatusBadGateway, CodeWhoisError, "whois lookup failed", nil
	case errors.Is(err, domain.ErrStore):
		return http.StatusInternalServerError, CodeDatabaseError, "database error", nil
	default:
		return http.StatusInternalServerError, CodeInternalError, "internal server error", nil
	}
}
