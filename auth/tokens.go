package auth

// Tokens is an access/refresh token pair. It is also the response body of
// the /login and /refresh endpoints.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Complete reports whether both tokens are present.
func (t Tokens) Complete() bool {
	return t.Access != "" && t.Refresh != ""
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username" binding:"required" validate:"required,username"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// RefreshRequest is the body of POST /refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" validate:"required,jwt"`
}

// SessionInfo is the body of GET /session.
type SessionInfo struct {
	Subject   string `json:"subject"`
	ExpiresAt int64  `json:"expires_at"`
}
