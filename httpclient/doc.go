// Package httpclient is a small JSON HTTP client used to talk to the
// authenticator. It handles base URLs, TLS, default headers, bearer auth
// and optional client-side rate limiting, and classifies failures into
// typed *Error values that carry the server's error code when present.
//
//	c, err := httpclient.New(httpclient.Config{BaseURL: "https://auth.local:8443"})
//	tokens, err := httpclient.Post[auth.Tokens](ctx, c, "/login", req)
package httpclient
