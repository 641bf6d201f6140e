// Package errors provides the structured AppError used at HTTP boundaries.
// Codes cover login outcomes (rate limiting, concurrent logins, failed
// exchanges), token validation and missing sessions, each mapped to an
// HTTP status and a message safe to show to end users.
package errors
