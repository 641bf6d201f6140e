package auth

import "errors"

// ErrTokenRevoked is returned for a refresh token that has already been
// exchanged or explicitly revoked.
var ErrTokenRevoked = errors.New("auth: token revoked")

// TokenValidator validates a token string and returns the parsed claims.
// Middleware depends on this interface rather than on a specific issuer.
//
// The returned value is stored in request context via authctx.Set and
// retrieved with authctx.Get[T].
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts an ordinary function to the TokenValidator interface.
type TokenValidatorFunc func(token string) (any, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// NewValidator creates a TokenValidator from a validation function, e.g.
//
//	validator := auth.NewValidator(issuer.ValidatorFunc())
func NewValidator(fn func(string) (any, error)) TokenValidator {
	return TokenValidatorFunc(fn)
}
