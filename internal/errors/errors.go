package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a resource is absent or not owned by the
	// caller. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique email or username is already taken.
	ErrConflict = errors.New("email or username already taken")
	// ErrUnauthenticated is returned for any missing, invalid or expired
	// credential. The message never says which part failed.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrNetwork is returned when an outbound collaborator call times out or
	// cannot connect.
	ErrNetwork = errors.New("upstream service unreachable")
	// ErrUnknownOperation is returned when an operation name is outside the
	// fixed tool set.
	ErrUnknownOperation = errors.New("unknown operation")
)

// ValidationError carries a user-correctable input problem. The message is
// surfaced verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unexpected conditions
// collapse to an opaque 500 so no internal detail leaks to the caller.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case IsValidation(err):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrNetwork):
		return NewHTTPError(http.StatusBadGateway, err.Error(), "NETWORK_ERROR")
	case errors.Is(err, ErrUnknownOperation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "UNKNOWN_OPERATION")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
