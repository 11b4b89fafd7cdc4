package dto

import (
	"net/http"

	"github.com/funnel/backend/internal/domain/shared"
)

// API error codes. Domain codes are passed through unchanged.
const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeFunnelNotFound = "FUNNEL_NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMIT_EXCEEDED"
	ErrCodeTooLarge       = "REQUEST_TOO_LARGE"
	ErrCodeMaxConnections = "MAX_CONNECTIONS_REACHED"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	shared.ErrCodeInvalidInput: http.StatusBadRequest,

	shared.ErrCodeNotFound: http.StatusNotFound,
	ErrCodeFunnelNotFound:  http.StatusNotFound,

	shared.ErrCodeDuplicate: http.StatusConflict,

	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	shared.ErrCodeRefreshTrigger: http.StatusBadGateway,

	shared.ErrCodeStore:   http.StatusServiceUnavailable,
	ErrCodeMaxConnections: http.StatusServiceUnavailable,
	ErrCodeUnavailable:    http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
