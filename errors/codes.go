package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client exhausted its login attempts.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Login errors
const (
	// ErrCodeAlreadyLoggedIn indicates a login was attempted with a live session.
	ErrCodeAlreadyLoggedIn ErrorCode = "ALREADY_LOGGED_IN"
	// ErrCodeConcurrentLogin indicates another login completed first.
	ErrCodeConcurrentLogin ErrorCode = "CONCURRENT_LOGIN"
	// ErrCodeLoginFailed indicates the credential exchange failed.
	ErrCodeLoginFailed ErrorCode = "LOGIN_FAILED"
	// ErrCodeNoSession indicates no persisted session could be restored.
	ErrCodeNoSession ErrorCode = "NO_SESSION"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidToken indicates the token is malformed, expired or revoked.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from the auth server or a backing store.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeConcurrentLogin:    false,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
