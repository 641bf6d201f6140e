// Package server provides the HTTP server of the authenticator: Gin for
// routing, h2c for cleartext HTTP/2, and optional TLS with h2 negotiation.
//
// # Middleware
//
// Server-level middleware (server/middleware) wraps the whole engine:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: UUID request IDs propagated to logs
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//
// Route-level Gin middleware:
//
//   - Auth: Bearer token validation through auth.TokenValidator
//   - RateLimit: per-client token buckets with X-RateLimit-* headers
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: aggregated observability.HealthChecker results
//   - /version: build version information
package server
