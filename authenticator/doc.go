// Package authenticator is the token server: it checks usernames and
// passwords against a user store and issues ES256 access/refresh pairs.
//
// Routes:
//
//	POST /login    {"username","password"} -> {"access_token","refresh_token"}
//	POST /refresh  {"refresh_token"}       -> {"access_token","refresh_token"}
//	GET  /session  Bearer access token     -> {"subject","expires_at"}
//
// Refresh tokens are single use. Each one is revoked, keyed by its SHA-256
// digest, until it would expire; revocations live in Redis when enabled
// and in memory otherwise.
//
//	cfg, err := authenticator.LoadConfig()
//	app, err := authenticator.NewApp(ctx, cfg, log)
//	err = app.Run(ctx)
package authenticator
