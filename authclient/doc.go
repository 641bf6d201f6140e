// Package authclient is the client side of the login flow.
//
// An Orchestrator owns the in-memory session of one user. It throttles
// interactive logins, exchanges credentials through an Exchanger,
// activates exactly one successful attempt and optionally persists the
// refresh token through a SessionStore so a later process can resume
// with TryLoadSession.
//
// Token reads are lock-free. Concurrent logins may all reach the server,
// but only the first to finish becomes the active session; the rest get
// ErrConcurrentLogin.
//
//	orch, err := authclient.New(authclient.Config{}, exchanger, store, log)
//	if err := orch.Login(ctx, "alice", pw, true); err != nil {
//	    fmt.Println(authclient.UserMessage(err))
//	}
package authclient
