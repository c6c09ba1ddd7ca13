package helpers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"eventregistry/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest          = "bad_request"
	ErrCodeUnauthorized        = "unauthorized"
	ErrCodeNotFound            = "not_found"
	ErrCodeConflict            = "conflict"
	ErrCodeAllocationExhausted = "allocation_exhausted"
	ErrCodeDuplicateIdentifier = "duplicate_identifier"
	ErrCodeDuplicateNumber     = "duplicate_number"
	ErrCodeInternalError       = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Existing is the binding that blocked a fixed-number creation, when there is one.
	Existing *domain.FixedNumber `json:"existing,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess writes statusCode and an APIResponse carrying data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError writes statusCode and an APIResponse carrying the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteServiceError maps a service error onto the envelope. Unknown errors are logged and
// reported as 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var conflict *domain.BindingConflictError
	switch {
	case errors.As(err, &conflict):
		code := ErrCodeDuplicateNumber
		if errors.Is(err, domain.ErrDuplicateIdentifier) {
			code = ErrCodeDuplicateIdentifier
		}
		writeJSON(w, http.StatusConflict, APIResponse{Error: &APIError{Code: code, Message: err.Error(), Existing: conflict.Existing}})
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAdminNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidPassword):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrAllocationExhausted):
		WriteJSONError(w, http.StatusConflict, ErrCodeAllocationExhausted, err.Error())
	case errors.Is(err, domain.ErrDuplicateIdentifier):
		WriteJSONError(w, http.StatusConflict, ErrCodeDuplicateIdentifier, err.Error())
	case errors.Is(err, domain.ErrDuplicateNumber):
		WriteJSONError(w, http.StatusConflict, ErrCodeDuplicateNumber, err.Error())
	case errors.Is(err, domain.ErrAlreadyRegistered), errors.Is(err, domain.ErrDuplicateNickname),
		errors.Is(err, domain.ErrNumberConflict):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
