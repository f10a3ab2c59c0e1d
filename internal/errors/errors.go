package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors forming the closed taxonomy of the auth core. Wrong-password
// and unknown-user both map to ErrInvalidCredentials so the response cannot be
// used to probe for account existence.
var (
	// ErrInvalidInput is returned when request validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserExists is returned on registration when email or username is
	// taken. The error never reveals which field collided.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for unknown user and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is returned on login after the password verified but
	// the account is suspended or closed.
	ErrAccountInactive = errors.New("account is not active")
	// ErrMissingToken is returned when the Authorization header is absent or
	// not a bearer scheme.
	ErrMissingToken = errors.New("missing or invalid authorization header")
	// ErrMalformedToken is returned when a token fails structure or signature checks.
	ErrMalformedToken = errors.New("malformed token")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrUserInactive is returned when a verified token resolves to an absent
	// or non-active user.
	ErrUserInactive = errors.New("user is not active")
	// ErrRateLimited is returned when a request exceeds the rate ceiling or
	// the login attempt limit.
	ErrRateLimited = errors.New("too many requests")
	// ErrInternal is returned for store or hashing failures not attributable
	// to client input. Detail is logged server-side only.
	ErrInternal = errors.New("internal error")
)

// ValidationError carries field-level messages for ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return ErrInvalidInput.Error() }

// Is makes ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError builds a validation error from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// RateLimitError carries a retry-after hint for ErrRateLimited.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() }

// Is makes RateLimitError match ErrRateLimited.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode        int
	Message           string
	Code              string
	Fields            map[string]string
	RetryAfterSeconds int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
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
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything outside the
// taxonomy collapses to a generic internal error with no detail attached.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		he := NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		var ve *ValidationError
		if errors.As(err, &ve) {
			he.Fields = ve.Fields
		}
		return he
	case errors.Is(err, ErrUserExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "USER_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAccountInactive):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_INACTIVE")
	case errors.Is(err, ErrMissingToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "MISSING_TOKEN")
	case errors.Is(err, ErrMalformedToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "MALFORMED_TOKEN")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrUserInactive):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "USER_INACTIVE")
	case errors.Is(err, ErrRateLimited):
		he := NewHTTPError(http.StatusTooManyRequests, err.Error(), "RATE_LIMITED")
		var rl *RateLimitError
		if errors.As(err, &rl) {
			he.RetryAfterSeconds = rl.RetryAfterSeconds
		}
		return he
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
