// Package version reports build information for authkit binaries. It backs
// the /version endpoint, `authctl version` and the client User-Agent.
//
//	go build -ldflags "-X github.com/kbukum/authkit/version.Version=1.0.0"
package version
