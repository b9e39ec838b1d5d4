package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/eonlab/eon-accounts/internal/domain"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error: message,
		Code:  code,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Printf("failed to encode error response: %v", err)
	}
}

// Common error codes
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeImmutableField    = "IMMUTABLE_FIELD"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
	CodeNoPassword        = "NO_PASSWORD"
	CodeCodeNotIssued     = "CODE_NOT_ISSUED"
	CodeCodeExpired       = "CODE_EXPIRED"
	CodeCodeMismatch      = "CODE_MISMATCH"
	CodeNoCodeChannel     = "NO_CODE_CHANNEL"
	CodeInvalidState      = "INVALID_STATE"
	CodeDeliveryFailure   = "DELIVERY_FAILURE"
)

// FromDomainError maps every sentinel in the account core's taxonomy to a
// distinct status and code; unknown errors stay opaque 500s.
func FromDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, err.Error(), CodeForbidden)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, domain.ErrImmutableField):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeImmutableField)
	case errors.Is(err, domain.ErrInvalidFormat):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrInvalidCredential):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidCredential)
	case errors.Is(err, domain.ErrNoPassword):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeNoPassword)
	case errors.Is(err, domain.ErrCodeNotIssued):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeCodeNotIssued)
	case errors.Is(err, domain.ErrCodeExpired):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeCodeExpired)
	case errors.Is(err, domain.ErrCodeMismatch):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeCodeMismatch)
	case errors.Is(err, domain.ErrNoCodeChannel):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeNoCodeChannel)
	case errors.Is(err, domain.ErrNoEmailOnFile):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	case errors.Is(err, domain.ErrInvalidState):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidState)
	case errors.Is(err, domain.ErrDeliveryFailure):
		WriteError(w, http.StatusBadGateway, err.Error(), CodeDeliveryFailure)
	default:
		WriteError(w, http.StatusInternalServerError, "internal server error", CodeInternalError)
	}
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
