package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/authkit/auth"
)

// Revocation is the value stored for a revoked refresh token.
type Revocation struct {
	Subject   string    `json:"sub,omitempty"`
	RevokedAt time.Time `json:"revoked_at"`
}

// RevocationStore records revoked refresh-token IDs until they would have
// expired anyway. IDs are expected to be token hashes, never raw tokens.
type RevocationStore struct {
	client    *Client
	keyPrefix string
	now       func() time.Time
}

// NewRevocationStore creates a RevocationStore using the client's key prefix.
func NewRevocationStore(client *Client) *RevocationStore {
	return &RevocationStore{
		client:    client,
		keyPrefix: client.cfg.KeyPrefix,
		now:       time.Now,
	}
}

func (s *RevocationStore) key(id string) string {
	if s.keyPrefix == "" {
		return id
	}
	return s.keyPrefix + ":" + id
}

// Revoke marks id as revoked for ttl and records the token's subject. A
// non-positive ttl is a no-op since the token has already expired. Revoking
// an id twice fails with auth.ErrTokenRevoked, so only one caller can
// consume a token.
func (s *RevocationStore) Revoke(ctx context.Context, id, subject string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	rec := Revocation{Subject: subject, RevokedAt: s.now().UTC()}
	ok, err := s.client.SetNXJSON(ctx, s.key(id), rec, ttl)
	if err != nil {
		return fmt.Errorf("revoke %q: %w", id, err)
	}
	if !ok {
		return auth.ErrTokenRevoked
	}
	return nil
}

// IsRevoked reports whether id has been revoked and has not yet expired.
func (s *RevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id))
	if err != nil {
		return false, fmt.Errorf("check revocation %q: %w", id, err)
	}
	return n > 0, nil
}
