// Package auth provides authentication building blocks.
//
// Subpackages:
//
//   - auth/jwt        — ES256 access/refresh token issuance and verification
//   - auth/password   — password hashing (argon2id, bcrypt), passphrase generation
//   - auth/authctx    — type-safe request context propagation for claims
//
// The top-level package holds the contracts shared by the authenticator
// server and its clients: TokenValidator, which the Bearer middleware
// depends on, and the credential-exchange wire types Tokens, LoginRequest,
// RefreshRequest and SessionInfo.
package auth
