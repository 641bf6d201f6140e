package secret

import (
	"crypto/subtle"
	"sync"

	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// Secret holds sensitive bytes and scrubs them on Destroy.
// A Secret must not be copied after creation.
type Secret struct {
	mu        sync.Mutex
	data      []byte
	destroyed bool
}

// New copies b into a new Secret and zeroes the caller's slice.
func New(b []byte) *Secret {
	data := make([]byte, len(b))
	copy(data, b)
	Zero(b)
	return &Secret{data: data}
}

// NewString creates a Secret from a string. The string itself is immutable
// and cannot be scrubbed; prefer New at boundaries that yield []byte.
func NewString(s string) *Secret {
	data := make([]byte, len(s))
	copy(data, s)
	return &Secret{data: data}
}

// Bytes returns the secret contents. The slice aliases the Secret's
// storage and becomes all zeros after Destroy. Returns nil once destroyed.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	return s.data
}

// Expose returns the secret as a string copy for APIs that require one.
func (s *Secret) Expose() string {
	return string(s.Bytes())
}

// Len returns the number of secret bytes, or 0 after Destroy.
func (s *Secret) Len() int {
	return len(s.Bytes())
}

// Equal compares two secrets in constant time.
func (s *Secret) Equal(other *Secret) bool {
	a, b := s.Bytes(), other.Bytes()
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Clone returns an independent copy that must be destroyed separately.
func (s *Secret) Clone() *Secret {
	src := s.Bytes()
	data := make([]byte, len(src))
	copy(data, src)
	return &Secret{data: data}
}

// Destroy zeroes the contents. It is idempotent and nil-safe.
func (s *Secret) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	Zero(s.data)
	s.data = nil
	s.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (s *Secret) Destroyed() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// String implements fmt.Stringer without revealing the contents.
func (s *Secret) String() string { return redacted }

// GoString implements fmt.GoStringer for %#v.
func (s *Secret) GoString() string { return redacted }

// MarshalText keeps secrets out of JSON, YAML and TOML encoders.
func (s *Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (s *Secret) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("redacted", true)
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Mask returns the first visible bytes of s followed by "***". Strings no
// longer than visible are masked entirely.
func Mask(s string, visible int) string {
	if len(s) <= visible {
		return "***"
	}
	return s[:visible] + "***"
}
