package authclient

import (
	"context"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/httpclient"
	"github.com/kbukum/authkit/secret"
	"github.com/kbukum/authkit/version"
)

// Authenticator endpoint paths.
const (
	LoginPath   = "/login"
	RefreshPath = "/refresh"
	SessionPath = "/session"
)

// HTTPExchanger talks to an authenticator server over JSON/HTTP.
type HTTPExchanger struct {
	client *httpclient.Client
}

// NewHTTPExchanger creates an exchanger for the server at cfg.BaseURL.
func NewHTTPExchanger(cfg httpclient.Config) (*HTTPExchanger, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent("authclient")
	}
	client, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &HTTPExchanger{client: client}, nil
}

// Login implements Exchanger.
func (e *HTTPExchanger) Login(ctx context.Context, username string, password *secret.Secret) (auth.Tokens, error) {
	return httpclient.Post[auth.Tokens](ctx, e.client, LoginPath, auth.LoginRequest{
		Username: username,
		Password: password.Expose(),
	})
}

// Refresh implements Exchanger.
func (e *HTTPExchanger) Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	return httpclient.Post[auth.Tokens](ctx, e.client, RefreshPath, auth.RefreshRequest{
		RefreshToken: refreshToken,
	})
}

// Session asks the server who accessToken belongs to.
func (e *HTTPExchanger) Session(ctx context.Context, accessToken string) (auth.SessionInfo, error) {
	return httpclient.Get[auth.SessionInfo](ctx, e.client, SessionPath,
		httpclient.WithRequestAuth(httpclient.BearerAuth(accessToken)))
}

// BaseURL returns the server address.
func (e *HTTPExchanger) BaseURL() string { return e.client.BaseURL() }
