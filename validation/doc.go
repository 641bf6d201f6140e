// Package validation checks request bodies and configuration.
//
// Struct tag validation uses go-playground/validator with json field names
// and an extra "username" tag:
//
//	type LoginRequest struct {
//	    Username string `json:"username" validate:"required,username"`
//	}
//	err := validation.Validate(req)
//
// Programmatic checks collect errors and return one AppError:
//
//	v := validation.New().Required("password", p).MinRunes("password", p, 8)
//	if err := v.Validate(); err != nil { ... }
package validation
