package common

import (
	"errors"
	"net/http"
)

// ErrorResponse is the API-facing error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// AppError carries an error code, a user-facing message and an HTTP status.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError creates a new AppError.
func NewError(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithCause returns a copy of the error carrying the given cause, so the
// predefined values stay immutable.
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// Error codes.
const (
	// Client errors (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// Server errors (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// Pipeline errors
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeMalformedOutput     = "MALFORMED_OUTPUT"
	ErrCodeConstraintViolation = "CONSTRAINT_VIOLATION"
	ErrCodeCacheUnavailable    = "CACHE_UNAVAILABLE"
	ErrCodeStreamTransport     = "STREAM_TRANSPORT"
)

// Predefined errors.
var (
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "request timeout", http.StatusRequestTimeout, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "gateway timeout", http.StatusGatewayTimeout, nil)

	// ErrProviderUnavailable covers transport and provider failures in the
	// generation client. The pipeline decides whether to retry or fall back.
	ErrProviderUnavailable = NewError(ErrCodeProviderUnavailable, "generation provider unavailable", http.StatusServiceUnavailable, nil)
	// ErrMalformedOutput means the provider text failed the structural parse
	// even after substring extraction.
	ErrMalformedOutput = NewError(ErrCodeMalformedOutput, "provider returned malformed output", http.StatusBadGateway, nil)
	// ErrConstraintViolation means a draft failed variant bounds after its
	// single regeneration attempt.
	ErrConstraintViolation = NewError(ErrCodeConstraintViolation, "recipe violates variant constraints", http.StatusUnprocessableEntity, nil)
	// ErrCacheUnavailable is never surfaced to callers; the tier degrades.
	ErrCacheUnavailable = NewError(ErrCodeCacheUnavailable, "shared cache unavailable", http.StatusServiceUnavailable, nil)
	ErrStreamTransport  = NewError(ErrCodeStreamTransport, "stream transport failure", http.StatusBadGateway, nil)

	ErrCacheMiss     = NewError("CACHE_MISS", "cache miss", http.StatusNotFound, nil)
	ErrCacheDisabled = NewError("CACHE_DISABLED", "cache disabled", http.StatusServiceUnavailable, nil)
	ErrCacheFull     = NewError("CACHE_FULL", "cache is full", http.StatusServiceUnavailable, nil)
)
