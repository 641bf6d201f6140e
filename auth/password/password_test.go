package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/authkit/secret"
)

func pw(s string) *secret.Secret { return secret.NewString(s) }

func fastArgon() *Argon2Hasher {
	return NewArgon2Hasher(WithArgon2Time(1), WithArgon2Memory(64), WithArgon2Threads(1))
}

func TestArgon2Hasher_HashVerify(t *testing.T) {
	h := fastArgon()

	hash, err := h.Hash(pw("correct horse"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Errorf("unexpected PHC prefix: %s", hash)
	}
	if err := h.Verify(pw("correct horse"), hash); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	if err := h.Verify(pw("wrong horse!"), hash); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := fastArgon()
	a, _ := h.Hash(pw("same password"))
	b, _ := h.Hash(pw("same password"))
	if a == b {
		t.Error("hashes of the same password should differ")
	}
}

func TestArgon2Hasher_InvalidHash(t *testing.T) {
	h := fastArgon()
	tests := []string{
		"",
		"plain",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
	}
	for _, hash := range tests {
		if err := h.Verify(pw("password"), hash); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("Verify(%q): expected ErrInvalidHash, got %v", hash, err)
		}
	}
}

func TestHasher_MinLength(t *testing.T) {
	if _, err := fastArgon().Hash(pw("short")); !errors.Is(err, ErrTooShort) {
		t.Errorf("argon2: expected ErrTooShort, got %v", err)
	}
	if _, err := NewBcryptHasher(WithCost(4)).Hash(pw("short")); !errors.Is(err, ErrTooShort) {
		t.Errorf("bcrypt: expected ErrTooShort, got %v", err)
	}
}

func TestBcryptHasher_HashVerify(t *testing.T) {
	h := NewBcryptHasher(WithCost(4))
	hash, err := h.Hash(pw("correct horse"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if err := h.Verify(pw("correct horse"), hash); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	if err := h.Verify(pw("wrong horse!"), hash); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

func TestNewHasher_VerifiesBothFormats(t *testing.T) {
	h := NewHasher(Config{Algorithm: AlgorithmArgon2id, Argon2Time: 1, Argon2Memory: 64, BcryptCost: 4})

	argonHash, err := h.Hash(pw("password123"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(argonHash, "$argon2id$") {
		t.Errorf("expected argon2id hash, got %s", argonHash)
	}

	bcryptHash, _ := NewBcryptHasher(WithCost(4)).Hash(pw("password123"))
	if err := h.Verify(pw("password123"), bcryptHash); err != nil {
		t.Errorf("bcrypt hash should verify: %v", err)
	}
	if err := h.Verify(pw("password123"), argonHash); err != nil {
		t.Errorf("argon2 hash should verify: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.Algorithm = "md5"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestGenerator_AllClasses(t *testing.T) {
	g := NewGenerator(32)
	for i := 0; i < 50; i++ {
		s, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		got := s.Expose()
		s.Destroy()

		if len(got) != 32 {
			t.Fatalf("length = %d, want 32", len(got))
		}
		for _, class := range []string{Uppercase, Lowercase, Digits, Symbols} {
			if !strings.ContainsAny(got, class) {
				t.Fatalf("%q is missing a character from %q", got, class)
			}
		}
		for _, r := range got {
			if !strings.ContainsRune(Uppercase+Lowercase+Digits+Symbols, r) {
				t.Fatalf("unexpected character %q", r)
			}
		}
	}
}

func TestGenerator_ClassSelection(t *testing.T) {
	g := NewGenerator(16, WithSymbols(false), WithUppercase(false))
	s, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	defer s.Destroy()
	if strings.ContainsAny(s.Expose(), Symbols+Uppercase) {
		t.Errorf("disabled classes present: %q", s.Expose())
	}
	if !strings.ContainsAny(s.Expose(), Digits) || !strings.ContainsAny(s.Expose(), Lowercase) {
		t.Errorf("enabled classes missing: %q", s.Expose())
	}
}

func TestGenerator_Errors(t *testing.T) {
	if _, err := NewGenerator(3).Generate(); !errors.Is(err, ErrLengthTooShort) {
		t.Errorf("expected ErrLengthTooShort, got %v", err)
	}
	none := NewGenerator(10, WithUppercase(false), WithLowercase(false), WithDigits(false), WithSymbols(false))
	if _, err := none.Generate(); !errors.Is(err, ErrNoCharset) {
		t.Errorf("expected ErrNoCharset, got %v", err)
	}
	exhausted := NewGenerator(32, WithGeneratorRandom(strings.NewReader("")))
	if _, err := exhausted.Generate(); err == nil {
		t.Error("expected error from exhausted random source")
	}
}

func TestGenerator_PositionsShuffled(t *testing.T) {
	// With only 4 characters the class order would be fixed without a shuffle.
	g := NewGenerator(4)
	seen := map[bool]int{}
	for i := 0; i < 100; i++ {
		s, _ := g.Generate()
		seen[strings.ContainsAny(s.Expose()[:1], Uppercase)]++
		s.Destroy()
	}
	if seen[false] == 0 {
		t.Error("first character was always uppercase; positions are not shuffled")
	}
}

func TestTokenHelpers(t *testing.T) {
	tok, err := GenerateToken(16)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if len(tok) != 32 {
		t.Errorf("hex length = %d, want 32", len(tok))
	}
	if HashSHA256("abc") != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Error("unexpected sha256 digest")
	}
}
