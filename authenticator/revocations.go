package authenticator

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/authkit/auth"
)

// RevocationStore records consumed refresh tokens by ID, with the token's
// subject, until they expire.
// Revoke must fail with auth.ErrTokenRevoked when id is already revoked, so
// that concurrent refreshes with one token cannot both succeed.
type RevocationStore interface {
	Revoke(ctx context.Context, id, subject string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// MemoryRevocations is a process-local RevocationStore, used when Redis is
// disabled. Revocations are lost on restart.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]revocation
	now     func() time.Time
}

type revocation struct {
	subject string
	expires time.Time
}

// NewMemoryRevocations creates an empty store. now may be nil.
func NewMemoryRevocations(now func() time.Time) *MemoryRevocations {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocations{entries: make(map[string]revocation), now: now}
}

// Revoke implements RevocationStore. A non-positive ttl is a no-op.
func (m *MemoryRevocations) Revoke(_ context.Context, id, subject string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.prune(now)
	if _, ok := m.entries[id]; ok {
		return auth.ErrTokenRevoked
	}
	m.entries[id] = revocation{subject: subject, expires: now.Add(ttl)}
	return nil
}

// IsRevoked implements RevocationStore.
func (m *MemoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[id]
	return ok && m.now().Before(r.expires), nil
}

// Subject returns the subject recorded for an unexpired revocation.
func (m *MemoryRevocations) Subject(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[id]
	if !ok || !m.now().Before(r.expires) {
		return "", false
	}
	return r.subject, true
}

// Len returns the number of tracked revocations, expired ones included.
func (m *MemoryRevocations) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryRevocations) prune(now time.Time) {
	for id, r := range m.entries {
		if !now.Before(r.expires) {
			delete(m.entries, id)
		}
	}
}
