package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/authkit/auth"
)

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "abc")
	if err != nil || revoked {
		t.Fatalf("IsRevoked before revoke = %v, %v", revoked, err)
	}

	if err := store.Revoke(ctx, "abc", "alice", 10*time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "abc")
	if err != nil || !revoked {
		t.Fatalf("IsRevoked after revoke = %v, %v", revoked, err)
	}
	if !mini.Exists("nova:revoked:abc") {
		t.Error("expected prefixed key")
	}

	raw, _ := mini.Get("nova:revoked:abc")
	var rec Revocation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Subject != "alice" || rec.RevokedAt.IsZero() {
		t.Fatalf("stored revocation = %+v, %v", rec, err)
	}
}

func TestRevocationStore_Expires(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	if err := store.Revoke(ctx, "abc", "alice", 2*time.Second); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	mini.FastForward(3 * time.Second)

	revoked, err := store.IsRevoked(ctx, "abc")
	if err != nil || revoked {
		t.Errorf("IsRevoked after expiry = %v, %v", revoked, err)
	}
	if mini.Exists("nova:revoked:abc") {
		t.Error("revocation should expire with the token")
	}
}

func TestRevocationStore_NonPositiveTTL(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewRevocationStore(client)

	if err := store.Revoke(context.Background(), "old", "alice", 0); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if mini.Exists("nova:revoked:old") {
		t.Error("expired token must not be stored")
	}
}

func TestRevocationStore_ServerDown(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewRevocationStore(client)
	mini.Close()

	if _, err := store.IsRevoked(context.Background(), "abc"); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}

func TestRevocationStore_RevokeTwice(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	if err := store.Revoke(ctx, "abc", "alice", time.Minute); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}
	if err := store.Revoke(ctx, "abc", "alice", time.Minute); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Errorf("second Revoke = %v, want ErrTokenRevoked", err)
	}
}
