package authclient

import (
	"errors"
	"fmt"

	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/session"
)

var (
	// ErrRateLimitReached is returned when the login limiter has no permit left.
	ErrRateLimitReached = errors.New("rate limit exceeded")

	// ErrAlreadyLoggedIn is returned when a session is already active.
	ErrAlreadyLoggedIn = errors.New("already logged in")

	// ErrConcurrentLogin is returned when another attempt activated first.
	ErrConcurrentLogin = errors.New("another login attempt completed first")

	// ErrFailedToLogin matches every *LoginFailedError.
	ErrFailedToLogin = errors.New("failed to login")
)

// LoginFailedError carries a reason that is safe to show to a user. The
// underlying cause stays reachable through errors.Is and errors.As.
type LoginFailedError struct {
	Reason string
	cause  error
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("failed to login: %s", e.Reason)
}

// Is reports true for ErrFailedToLogin.
func (e *LoginFailedError) Is(target error) bool { return target == ErrFailedToLogin }

func (e *LoginFailedError) Unwrap() error { return e.cause }

func loginFailed(reason string, cause error) *LoginFailedError {
	return &LoginFailedError{Reason: reason, cause: cause}
}

// AppError maps an orchestrator error to its transport-level AppError.
func AppError(err error) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRateLimitReached):
		return apperrors.RateLimited()
	case errors.Is(err, ErrAlreadyLoggedIn):
		return apperrors.AlreadyLoggedIn()
	case errors.Is(err, ErrConcurrentLogin):
		return apperrors.ConcurrentLogin()
	case errors.Is(err, ErrFailedToLogin):
		return apperrors.LoginFailed(err)
	case errors.Is(err, session.ErrNoSession):
		return apperrors.NoSession(err)
	default:
		return apperrors.Wrap(err)
	}
}

// UserMessage returns text for err that never exposes transport or crypto
// details. Errors outside the login taxonomy read as a failed login. It
// returns "" for a nil error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimitReached),
		errors.Is(err, ErrAlreadyLoggedIn),
		errors.Is(err, ErrConcurrentLogin):
		return AppError(err).Message
	default:
		return apperrors.LoginFailed(nil).Message
	}
}
