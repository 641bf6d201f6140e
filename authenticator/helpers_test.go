package authenticator

import (
	"testing"
	"time"

	"github.com/kbukum/authkit/auth/jwt"
	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/secret"
	"github.com/kbukum/authkit/security/tlstest"
)

const (
	testUser     = "alice"
	testPassword = "correct horse battery"
)

var fastPassword = password.Config{Argon2Time: 1, Argon2Memory: 64, Argon2Threads: 1}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func newHasher() password.Hasher {
	return password.NewHasher(fastPassword)
}

func hashOf(t *testing.T, h password.Hasher, pw string) string {
	t.Helper()
	hash, err := h.Hash(secret.NewString(pw))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return hash
}

func newIssuer(t *testing.T, clock *testClock) *jwt.Issuer {
	t.Helper()
	keys := tlstest.GenerateSigningKeys(t)
	issuer, err := jwt.NewIssuer(jwt.Config{
		PrivateKeyPEM: keys.PrivatePEM,
		PublicKeyPEM:  keys.PublicPEM,
	}, logger.Nop(), jwt.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return issuer
}

func newUsers(t *testing.T, h password.Hasher) *MemoryUserStore {
	t.Helper()
	users, err := NewMemoryUserStore(User{Username: testUser, PasswordHash: hashOf(t, h, testPassword)})
	if err != nil {
		t.Fatalf("NewMemoryUserStore: %v", err)
	}
	return users
}

type fixture struct {
	clock       *testClock
	issuer      *jwt.Issuer
	revocations RevocationStore
	svc         *Service
}

func newFixture(t *testing.T, revocations RevocationStore, opts ...ServiceOption) *fixture {
	t.Helper()
	clock := newClock()
	if revocations == nil {
		revocations = NewMemoryRevocations(clock.Now)
	}
	hasher := newHasher()
	issuer := newIssuer(t, clock)
	opts = append([]ServiceOption{WithServiceClock(clock.Now)}, opts...)
	svc, err := NewService(issuer, newUsers(t, hasher), hasher, revocations, logger.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{clock: clock, issuer: issuer, revocations: revocations, svc: svc}
}
