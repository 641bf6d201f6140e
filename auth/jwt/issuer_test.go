package jwt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/security/tlstest"
)

type testKeys struct {
	privatePEM string
	publicPEM  string
}

func generateKeys(t *testing.T) testKeys {
	t.Helper()
	k := tlstest.GenerateSigningKeys(t)
	return testKeys{privatePEM: k.PrivatePEM, publicPEM: k.PublicPEM}
}

func newTestIssuer(t *testing.T, opts ...Option) *Issuer {
	t.Helper()
	keys := generateKeys(t)
	issuer, err := NewIssuer(Config{
		Issuer:        "nova",
		PrivateKeyPEM: keys.privatePEM,
		PublicKeyPEM:  keys.publicPEM,
	}, logger.NewDefault("jwt-test"), opts...)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	return issuer
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Method != ES256 {
		t.Errorf("Method = %s, want ES256", cfg.Method)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Errorf("AccessTokenTTL = %v, want 1h", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 168h", cfg.RefreshTokenTTL)
	}
	if cfg.RefreshIssuer() != "nova_refresh" {
		t.Errorf("RefreshIssuer() = %q", cfg.RefreshIssuer())
	}
}

func TestNewIssuer_InvalidKeys(t *testing.T) {
	keys := generateKeys(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing private", Config{PublicKeyPEM: keys.publicPEM}},
		{"garbage private", Config{PrivateKeyPEM: "not a key", PublicKeyPEM: keys.publicPEM}},
		{"garbage public", Config{PrivateKeyPEM: keys.privatePEM, PublicKeyPEM: "not a key"}},
		{"missing file", Config{PrivateKeyFile: "/nonexistent/key.pem", PublicKeyPEM: keys.publicPEM}},
		{"unsupported method", Config{Method: "HS256", PrivateKeyPEM: keys.privatePEM, PublicKeyPEM: keys.publicPEM}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewIssuer(tc.cfg, nil); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}

func TestNewIssuer_FromFiles(t *testing.T) {
	keys := generateKeys(t)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt.key")
	pubPath := filepath.Join(dir, "jwt.pub")
	if err := os.WriteFile(privPath, []byte(keys.privatePEM), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pubPath, []byte(keys.publicPEM), 0o600); err != nil {
		t.Fatal(err)
	}

	issuer, err := NewIssuer(Config{PrivateKeyFile: privPath, PublicKeyFile: pubPath}, nil)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	tokens, err := issuer.CreateTokens("alice")
	if err != nil {
		t.Fatalf("CreateTokens failed: %v", err)
	}
	if !issuer.Verify(tokens.Access) {
		t.Error("access token should verify")
	}
}

func TestCreateTokens_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	tokens, err := issuer.CreateTokens("alice")
	if err != nil {
		t.Fatalf("CreateTokens failed: %v", err)
	}
	if !tokens.Complete() {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
	if !issuer.Verify(tokens.Access) {
		t.Error("access token should verify")
	}
	if !issuer.Verify(tokens.Refresh) {
		t.Error("refresh token should verify")
	}

	access, err := issuer.Parse(tokens.Access)
	if err != nil {
		t.Fatalf("Parse access failed: %v", err)
	}
	refresh, err := issuer.Parse(tokens.Refresh)
	if err != nil {
		t.Fatalf("Parse refresh failed: %v", err)
	}

	if access.Subject != "alice" || refresh.Subject != "alice" {
		t.Errorf("subjects = %q / %q", access.Subject, refresh.Subject)
	}
	if access.Issuer != "nova" {
		t.Errorf("access iss = %q, want nova", access.Issuer)
	}
	if refresh.Issuer != "nova_refresh" {
		t.Errorf("refresh iss = %q, want nova_refresh", refresh.Issuer)
	}
	if access.Issuer == refresh.Issuer {
		t.Error("access and refresh issuers must differ")
	}
	if !access.IssuedAt.Equal(refresh.IssuedAt.Time) {
		t.Error("iat should match across the pair")
	}
	if access.ID == "" || access.ID != refresh.ID {
		t.Errorf("jti = %q / %q, want one shared id", access.ID, refresh.ID)
	}
	if got := refresh.ExpiresAt.Sub(access.ExpiresAt.Time); got != 7*24*time.Hour-time.Hour {
		t.Errorf("exp difference = %v", got)
	}
}

func TestCreateTokens_EmptySubject(t *testing.T) {
	issuer := newTestIssuer(t)
	tokens, err := issuer.CreateTokens("")
	if !errors.Is(err, ErrEmptySubject) {
		t.Errorf("expected ErrEmptySubject, got %v", err)
	}
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("expected no tokens, got %+v", tokens)
	}
}

func TestVerify_Empty(t *testing.T) {
	issuer := newTestIssuer(t)
	if issuer.Verify("") {
		t.Error("empty token must not verify")
	}
	if _, err := issuer.Parse(""); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("expected ErrEmptyToken, got %v", err)
	}
}

func TestVerify_TamperedSegments(t *testing.T) {
	issuer := newTestIssuer(t)
	tokens, err := issuer.CreateTokens("alice")
	if err != nil {
		t.Fatalf("CreateTokens failed: %v", err)
	}

	for _, token := range []string{tokens.Access, tokens.Refresh} {
		parts := strings.Split(token, ".")
		if len(parts) != 3 {
			t.Fatalf("expected 3 segments, got %d", len(parts))
		}
		for seg := range parts {
			mutated := append([]string(nil), parts...)
			mutated[seg] = flipChar(mutated[seg])
			if issuer.Verify(strings.Join(mutated, ".")) {
				t.Errorf("segment %d tampered: token should not verify", seg)
			}
		}
	}
}

// flipChar swaps the first base64url character for a different one.
func flipChar(s string) string {
	c := byte('A')
	if s[0] == 'A' {
		c = 'B'
	}
	return string(c) + s[1:]
}

func TestVerify_OtherKey(t *testing.T) {
	a := newTestIssuer(t)
	b := newTestIssuer(t)
	tokens, _ := a.CreateTokens("alice")
	if b.Verify(tokens.Access) {
		t.Error("token signed by another key must not verify")
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, WithClock(func() time.Time { return now }))

	tokens, _ := issuer.CreateTokens("alice")
	now = now.Add(2 * time.Hour)

	if issuer.Verify(tokens.Access) {
		t.Error("expired access token must not verify")
	}
	if !issuer.Verify(tokens.Refresh) {
		t.Error("refresh token should still be valid")
	}
}

func TestVerifyPurpose(t *testing.T) {
	issuer := newTestIssuer(t)
	tokens, _ := issuer.CreateTokens("alice")

	if _, err := issuer.VerifyRefresh(tokens.Refresh); err != nil {
		t.Errorf("VerifyRefresh(refresh) failed: %v", err)
	}
	if _, err := issuer.VerifyRefresh(tokens.Access); !errors.Is(err, ErrWrongPurpose) {
		t.Errorf("VerifyRefresh(access): expected ErrWrongPurpose, got %v", err)
	}
	if _, err := issuer.VerifyAccess(tokens.Access); err != nil {
		t.Errorf("VerifyAccess(access) failed: %v", err)
	}
	if _, err := issuer.VerifyAccess(tokens.Refresh); !errors.Is(err, ErrWrongPurpose) {
		t.Errorf("VerifyAccess(refresh): expected ErrWrongPurpose, got %v", err)
	}

	claims, err := issuer.ValidatorFunc()(tokens.Access)
	if err != nil {
		t.Fatalf("ValidatorFunc failed: %v", err)
	}
	if c, ok := claims.(*Claims); !ok || c.Subject != "alice" {
		t.Errorf("unexpected claims: %#v", claims)
	}
}

func TestCreateTokens_UniquePerPair(t *testing.T) {
	issuer := newTestIssuer(t)
	first, err := issuer.CreateTokens("alice")
	if err != nil {
		t.Fatal(err)
	}
	second, err := issuer.CreateTokens("alice")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := issuer.Parse(first.Refresh)
	b, _ := issuer.Parse(second.Refresh)
	if a == nil || b == nil || a.ID == b.ID {
		t.Error("pairs minted together must have distinct jti")
	}
}
