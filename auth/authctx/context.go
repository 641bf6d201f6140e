// Package authctx carries verified token claims through a request context.
//
//	ctx = authctx.Set(ctx, claims)        // Bearer middleware
//	claims, ok := authctx.Get[*jwt.Claims](ctx)
//	subject, ok := authctx.Subject(ctx)   // any claims with GetSubject
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when claims are not found in the context.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores claims in the context.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get retrieves claims of type T from the context.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

// GetOrError is Get returning ErrNoClaims when absent or of another type.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		return claims, ErrNoClaims
	}
	return claims, nil
}

// Subject returns the "sub" claim of whatever claims the context holds,
// provided they expose GetSubject (as jwt.RegisteredClaims does).
func Subject(ctx context.Context) (string, bool) {
	c, ok := Get[interface{ GetSubject() (string, error) }](ctx)
	if !ok {
		return "", false
	}
	sub, err := c.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
