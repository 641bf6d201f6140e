package authenticator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/authkit/auth"
)

func TestMemoryRevocations(t *testing.T) {
	clock := newClock()
	store := NewMemoryRevocations(clock.Now)
	ctx := context.Background()

	if revoked, _ := store.IsRevoked(ctx, "a"); revoked {
		t.Fatal("nothing revoked yet")
	}
	if err := store.Revoke(ctx, "a", "alice", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "a"); !revoked {
		t.Error("expected a revoked")
	}
	if err := store.Revoke(ctx, "a", "alice", time.Minute); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Errorf("second Revoke = %v", err)
	}

	clock.now = clock.now.Add(time.Minute)
	if revoked, _ := store.IsRevoked(ctx, "a"); revoked {
		t.Error("revocation must lapse with the token")
	}
	if err := store.Revoke(ctx, "b", "alice", time.Minute); err != nil {
		t.Fatalf("Revoke b: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("expired entries must be pruned, Len = %d", store.Len())
	}
}

func TestMemoryRevocations_NonPositiveTTL(t *testing.T) {
	store := NewMemoryRevocations(nil)
	if err := store.Revoke(context.Background(), "a", "alice", 0); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if store.Len() != 0 {
		t.Error("expired token must not be stored")
	}
}
