package dto

import (
	"net/http"

	"github.com/trainhub/backend/internal/domain/shared"
)

// Error codes returned in the error envelope. Domain codes pass through
// unchanged; the rest are raised by the transport layer.
const (
	ErrCodeNotFound      = shared.CodeNotFound
	ErrCodeAlreadyExists = shared.CodeAlreadyExists
	ErrCodeInvalidInput  = shared.CodeInvalidInput
	ErrCodeValidation    = shared.CodeValidation
	ErrCodeConcurrency   = shared.CodeConcurrency
	ErrCodeUnauthorized  = shared.CodeUnauthorized
	ErrCodeForbidden     = shared.CodeForbidden
	ErrCodeInvalidState  = shared.CodeInvalidState
	ErrCodeInternal      = shared.CodeInternal

	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when the body is not valid JSON
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConcurrency:   http.StatusConflict,

	// State machine violations -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
