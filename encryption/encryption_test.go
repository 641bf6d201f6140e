package encryption

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/authkit/secret"
)

const testPassphrase = "correct-horse-battery-staple-0123456789"

func newTestKDF(t *testing.T, opts ...KDFOption) *KeyDerivation {
	t.Helper()
	kdf, err := NewKeyDerivation(KDFConfig{Memory: 64, Time: 1, Parallelism: 1}, opts...)
	if err != nil {
		t.Fatalf("NewKeyDerivation failed: %v", err)
	}
	return kdf
}

func newTestCodec(t *testing.T, alg Algorithm) *Codec {
	t.Helper()
	codec, err := NewCodec(alg, newTestKDF(t))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return codec
}

func pass(s string) *secret.Secret { return secret.NewString(s) }

var allAlgorithms = []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20, AlgorithmXChaCha20}

func TestKDFConfigDefaults(t *testing.T) {
	var cfg KDFConfig
	cfg.ApplyDefaults()
	if cfg.Memory != 64*1024 || cfg.Time != 3 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Parallelism < 1 || cfg.Parallelism > 8 {
		t.Errorf("parallelism out of range: %d", cfg.Parallelism)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := KDFConfig{Memory: 4, Time: 1, Parallelism: 1}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for memory below 8*parallelism")
	}
}

func TestGenerateSalt(t *testing.T) {
	kdf := newTestKDF(t)
	a, err := kdf.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	b, _ := kdf.GenerateSalt()
	if len(a) != SaltLength {
		t.Errorf("salt length = %d, want %d", len(a), SaltLength)
	}
	if bytes.Equal(a, b) {
		t.Error("two salts should differ")
	}
}

func TestGenerateSalt_FailsClosed(t *testing.T) {
	kdf := newTestKDF(t, WithRandom(strings.NewReader("short")))
	if _, err := kdf.GenerateSalt(); err == nil {
		t.Error("expected error when random source is exhausted")
	}
}

func TestDerive_Deterministic(t *testing.T) {
	kdf := newTestKDF(t)
	salt := bytes.Repeat([]byte{7}, SaltLength)

	k1, err := kdf.Derive([]byte("pw"), salt)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	defer k1.Destroy()
	k2, _ := kdf.Derive([]byte("pw"), salt)
	defer k2.Destroy()

	if k1.Len() != KeyLength {
		t.Errorf("key length = %d, want %d", k1.Len(), KeyLength)
	}
	if !k1.Equal(k2) {
		t.Error("derive should be deterministic")
	}
}

func TestDerive_SaltBitFlipChangesKey(t *testing.T) {
	kdf := newTestKDF(t)
	salt := bytes.Repeat([]byte{0x42}, SaltLength)
	flipped := append([]byte(nil), salt...)
	flipped[SaltLength-1] ^= 0x01

	k1, _ := kdf.Derive([]byte("pw"), salt)
	defer k1.Destroy()
	k2, _ := kdf.Derive([]byte("pw"), flipped)
	defer k2.Destroy()

	if k1.Equal(k2) {
		t.Error("one-bit salt change should change the key")
	}
}

func TestDerive_PepperChangesKey(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltLength)
	plain := newTestKDF(t)
	peppered := newTestKDF(t, WithPepper(pass("pepper123")))

	k1, _ := plain.Derive([]byte("pw"), salt)
	defer k1.Destroy()
	k2, _ := peppered.Derive([]byte("pw"), salt)
	defer k2.Destroy()

	if k1.Equal(k2) {
		t.Error("pepper should change the derived key")
	}
}

func TestWithPepperString(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltLength)
	fromSecret := newTestKDF(t, WithPepper(pass("pepper123")))
	fromString := newTestKDF(t, WithPepperString("pepper123"))
	unset := newTestKDF(t, WithPepperString(""))
	plain := newTestKDF(t)

	k1, _ := fromSecret.Derive([]byte("pw"), salt)
	defer k1.Destroy()
	k2, _ := fromString.Derive([]byte("pw"), salt)
	defer k2.Destroy()
	k3, _ := unset.Derive([]byte("pw"), salt)
	defer k3.Destroy()
	k4, _ := plain.Derive([]byte("pw"), salt)
	defer k4.Destroy()

	if !k1.Equal(k2) {
		t.Error("string and secret peppers should derive the same key")
	}
	if !k3.Equal(k4) {
		t.Error("an empty pepper should leave the derivation unpeppered")
	}
}

func TestDerive_ShortSaltRejected(t *testing.T) {
	kdf := newTestKDF(t)
	_, err := kdf.Derive([]byte("pw"), []byte("short"))
	if !errors.Is(err, ErrSaltTooShort) {
		t.Errorf("expected ErrSaltTooShort, got %v", err)
	}
}

func TestAlgorithmNonceSize(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want int
	}{
		{AlgorithmAESGCM, 12},
		{AlgorithmChaCha20, 12},
		{AlgorithmXChaCha20, 24},
		{Algorithm("rot13"), 0},
	}
	for _, tc := range tests {
		if got := tc.alg.NonceSize(); got != tc.want {
			t.Errorf("%s.NonceSize() = %d, want %d", tc.alg, got, tc.want)
		}
	}
}

func TestEncryptDecrypt_RawKey(t *testing.T) {
	key := bytes.Repeat([]byte{9}, KeyLength)
	aad := []byte("aad")

	for _, alg := range allAlgorithms {
		t.Run(string(alg), func(t *testing.T) {
			ct, nonce, err := Encrypt(alg, []byte("hello"), key, aad)
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}
			if len(nonce) != alg.NonceSize() {
				t.Errorf("nonce length = %d, want %d", len(nonce), alg.NonceSize())
			}

			_, nonce2, _ := Encrypt(alg, []byte("hello"), key, aad)
			if bytes.Equal(nonce, nonce2) {
				t.Error("nonces must differ between calls")
			}

			pt, err := Decrypt(alg, ct, nonce, key, aad)
			if err != nil {
				t.Fatalf("Decrypt failed: %v", err)
			}
			if string(pt) != "hello" {
				t.Errorf("got %q, want hello", pt)
			}

			if _, err := Decrypt(alg, ct, nonce, key, []byte("other")); !errors.Is(err, ErrAuthenticationFailed) {
				t.Errorf("wrong aad: expected ErrAuthenticationFailed, got %v", err)
			}
			if _, err := Decrypt(alg, ct, nonce[:4], key, aad); !errors.Is(err, ErrInvalidNonce) {
				t.Errorf("short nonce: expected ErrInvalidNonce, got %v", err)
			}
		})
	}
}

func TestEncrypt_ShortKeyRejected(t *testing.T) {
	_, _, err := Encrypt(AlgorithmChaCha20, []byte("x"), make([]byte, 16), nil)
	if !errors.Is(err, ErrKeyTooShort) {
		t.Errorf("expected ErrKeyTooShort, got %v", err)
	}
}

func TestEncryptStringRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple string", "hello world"},
		{"empty string", ""},
		{"special characters", "p@$$w0rd!#%^&*()"},
		{"unicode", "こんにちは世界"},
		{"jwt-like", "eyJhbGciOiJFUzI1NiJ9.eyJzdWIiOiJ1In0.c2ln"},
	}

	for _, alg := range allAlgorithms {
		codec := newTestCodec(t, alg)
		for _, tc := range tests {
			t.Run(string(alg)+"/"+tc.name, func(t *testing.T) {
				p := pass(testPassphrase)
				defer p.Destroy()

				encoded, err := codec.EncryptString(tc.plaintext, p, []byte("nova_persist"))
				if err != nil {
					t.Fatalf("EncryptString failed: %v", err)
				}
				decoded, err := codec.DecryptString(encoded, p, []byte("nova_persist"))
				if err != nil {
					t.Fatalf("DecryptString failed: %v", err)
				}
				if decoded != tc.plaintext {
					t.Errorf("expected %q, got %q", tc.plaintext, decoded)
				}
			})
		}
	}
}

func TestEncryptString_Layout(t *testing.T) {
	codec := newTestCodec(t, AlgorithmXChaCha20)
	encoded, err := codec.EncryptString("abc", pass(testPassphrase), nil)
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("output is not standard base64: %v", err)
	}
	// salt + nonce + plaintext + 16-byte tag
	want := SaltLength + 24 + 3 + 16
	if len(raw) != want {
		t.Errorf("decoded length = %d, want %d", len(raw), want)
	}
}

func TestEncryptString_FreshSaltAndNonce(t *testing.T) {
	codec := newTestCodec(t, AlgorithmChaCha20)
	a, _ := codec.EncryptString("same input", pass(testPassphrase), nil)
	b, _ := codec.EncryptString("same input", pass(testPassphrase), nil)
	if a == b {
		t.Error("same plaintext should produce different encodings")
	}
}

func TestEncryptString_ShortPassphrase(t *testing.T) {
	codec := newTestCodec(t, AlgorithmChaCha20)
	_, err := codec.EncryptString("x", pass("too-short"), nil)
	if !errors.Is(err, ErrPassphraseTooShort) {
		t.Errorf("expected ErrPassphraseTooShort, got %v", err)
	}
}

func TestDecryptString_Failures(t *testing.T) {
	codec := newTestCodec(t, AlgorithmXChaCha20)
	aad := []byte("nova_persist")
	encoded, err := codec.EncryptString("refresh-token", pass(testPassphrase), aad)
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(encoded)

	tampered := append([]byte(nil), raw...)
	tampered[len(tampered)-1] ^= 0x01

	tests := []struct {
		name       string
		encoded    string
		passphrase string
		aad        []byte
		wantErr    error
	}{
		{"wrong passphrase", encoded, testPassphrase + "x", aad, ErrAuthenticationFailed},
		{"wrong aad", encoded, testPassphrase, []byte("other"), ErrAuthenticationFailed},
		{"tampered ciphertext", base64.StdEncoding.EncodeToString(tampered), testPassphrase, aad, ErrAuthenticationFailed},
		{"invalid base64", "not-valid-base64!!!", testPassphrase, aad, ErrInvalidEncoding},
		{"truncated", base64.StdEncoding.EncodeToString(raw[:SaltLength+10]), testPassphrase, aad, ErrTruncated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.DecryptString(tc.encoded, pass(tc.passphrase), tc.aad)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDecryptString_EveryByteAuthenticated(t *testing.T) {
	codec := newTestCodec(t, AlgorithmChaCha20)
	encoded, _ := codec.EncryptString("tok", pass(testPassphrase), nil)
	raw, _ := base64.StdEncoding.DecodeString(encoded)

	for i := SaltLength; i < len(raw); i++ {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x80
		_, err := codec.DecryptString(base64.StdEncoding.EncodeToString(mutated), pass(testPassphrase), nil)
		if !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("byte %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
}

func TestNewCodec_UnknownAlgorithm(t *testing.T) {
	if _, err := NewCodec(Algorithm("des"), newTestKDF(t)); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestEncryptor(t *testing.T) {
	enc, err := New(pass(testPassphrase),
		WithAlgorithm(AlgorithmChaCha20),
		WithKeyDerivation(newTestKDF(t)),
		WithAssociatedData([]byte("ctx")),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ct, err := enc.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	pt, err := enc.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if pt != "payload" {
		t.Errorf("got %q, want payload", pt)
	}

	other, _ := New(pass(testPassphrase), WithAlgorithm(AlgorithmChaCha20), WithKeyDerivation(newTestKDF(t)))
	if _, err := other.Decrypt(ct); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("different aad: expected ErrAuthenticationFailed, got %v", err)
	}

	if _, err := New(pass("short")); !errors.Is(err, ErrPassphraseTooShort) {
		t.Errorf("expected ErrPassphraseTooShort, got %v", err)
	}
}
