package authctx

import (
	"context"
	"errors"
	"testing"
)

type testClaims struct{ sub string }

func (c *testClaims) GetSubject() (string, error) { return c.sub, nil }

func TestSetGet(t *testing.T) {
	ctx := Set(context.Background(), &testClaims{sub: "alice"})

	got, ok := Get[*testClaims](ctx)
	if !ok || got.sub != "alice" {
		t.Fatalf("Get() = %v, %v", got, ok)
	}
	if _, ok := Get[string](ctx); ok {
		t.Error("wrong type should not match")
	}
}

func TestGetOrError(t *testing.T) {
	if _, err := GetOrError[*testClaims](context.Background()); !errors.Is(err, ErrNoClaims) {
		t.Errorf("expected ErrNoClaims, got %v", err)
	}
}

func TestSubject(t *testing.T) {
	ctx := Set(context.Background(), &testClaims{sub: "bob"})
	if sub, ok := Subject(ctx); !ok || sub != "bob" {
		t.Errorf("Subject() = %q, %v", sub, ok)
	}
	if _, ok := Subject(Set(context.Background(), &testClaims{})); ok {
		t.Error("empty subject should report false")
	}
	if _, ok := Subject(context.Background()); ok {
		t.Error("missing claims should report false")
	}
}
