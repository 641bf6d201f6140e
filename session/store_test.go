package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"

	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/logger"
)

type memKeyring struct {
	mu      sync.Mutex
	entries map[string]string
	setErr  error
}

func newMemKeyring() *memKeyring { return &memKeyring{entries: map[string]string{}} }

func (k *memKeyring) Get(service, account string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.entries[service+"/"+account]
	if !ok {
		return "", ErrCredentialNotFound
	}
	return v, nil
}

func (k *memKeyring) Set(service, account, secret string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.setErr != nil {
		return k.setErr
	}
	k.entries[service+"/"+account] = secret
	return nil
}

func (k *memKeyring) Delete(service, account string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.entries, service+"/"+account)
	return nil
}

var fastKDF = encryption.KDFConfig{Memory: 64, Time: 1, Parallelism: 1}

func newTestStore(t *testing.T, opts ...Option) (*Store, afero.Fs, *memKeyring) {
	t.Helper()
	fs := afero.NewMemMapFs()
	kr := newMemKeyring()
	all := append([]Option{WithFs(fs), WithKeyring(kr)}, opts...)
	store, err := NewStore(Config{Dir: "/home/u/.config/nova", KDF: fastKDF}, logger.NewDefault("session-test"), all...)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, fs, kr
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	store, _, kr := newTestStore(t)

	if err := store.Persist("refresh-token-1"); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != "refresh-token-1" {
		t.Errorf("Load() = %q, want refresh-token-1", got)
	}

	pass, err := kr.Get(DefaultService, DefaultAccount)
	if err != nil {
		t.Fatalf("keyring entry missing: %v", err)
	}
	if len(pass) < 32 {
		t.Errorf("passphrase length = %d, want >= 32", len(pass))
	}
}

func TestPersist_ReusesPassphraseAndOverwrites(t *testing.T) {
	store, fs, kr := newTestStore(t)

	store.Persist("first")
	pass1, _ := kr.Get(DefaultService, DefaultAccount)
	store.Persist("second")
	pass2, _ := kr.Get(DefaultService, DefaultAccount)

	if pass1 != pass2 {
		t.Error("existing keyring passphrase should be reused")
	}
	got, _ := store.Load()
	if got != "second" {
		t.Errorf("Load() = %q, want second", got)
	}

	data, _ := afero.ReadFile(fs, store.Path())
	if strings.Count(string(data), "[session]") != 1 {
		t.Errorf("file should hold exactly one session:\n%s", data)
	}
}

func TestPersist_DocumentLayout(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	store, fs, _ := newTestStore(t, WithClock(func() time.Time { return fixed }))

	if err := store.Persist("tok"); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if !strings.HasSuffix(store.Path(), "/nova_session.toml") {
		t.Errorf("unexpected path %s", store.Path())
	}

	data, err := afero.ReadFile(fs, store.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var doc map[string]map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not TOML: %v", err)
	}
	if doc["session"]["version"] != "1.0.0" {
		t.Errorf("version = %v", doc["session"]["version"])
	}
	if doc["session"]["created_at"] != "2024-05-06T07:08:09Z" {
		t.Errorf("created_at = %v", doc["session"]["created_at"])
	}
	if refresh, _ := doc["keys"]["refresh"].(string); refresh == "" || strings.Contains(refresh, "tok") {
		t.Errorf("keys.refresh should be an opaque blob, got %q", refresh)
	}

	info, err := fs.Stat(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	meta, err := store.Stat()
	if err != nil || meta.Version != Version {
		t.Errorf("Stat() = %+v, %v", meta, err)
	}
}

func TestLoad_NoSessionCases(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring)
	}{
		{"missing file", func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring) {}},
		{"missing keyring entry", func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring) {
			s.Persist("tok")
			kr.Delete(DefaultService, DefaultAccount)
		}},
		{"corrupt document", func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring) {
			s.Persist("tok")
			afero.WriteFile(fs, s.Path(), []byte("this is = = not toml"), 0o600)
		}},
		{"wrong version", func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring) {
			s.Persist("tok")
			data, _ := afero.ReadFile(fs, s.Path())
			afero.WriteFile(fs, s.Path(), []byte(strings.Replace(string(data), "1.0.0", "9.9.9", 1)), 0o600)
		}},
		{"rotated passphrase", func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring) {
			s.Persist("tok")
			kr.Set(DefaultService, DefaultAccount, strings.Repeat("x", 40))
		}},
		{"tampered blob", func(t *testing.T, s *Store, fs afero.Fs, kr *memKeyring) {
			s.Persist("tok")
			data, _ := afero.ReadFile(fs, s.Path())
			var rec Record
			toml.Unmarshal(data, &rec)
			b := []byte(rec.Keys.Refresh)
			b[len(b)-3] ^= 0x01
			rec.Keys.Refresh = string(b)
			out, _ := toml.Marshal(rec)
			afero.WriteFile(fs, s.Path(), out, 0o600)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, fs, kr := newTestStore(t)
			tc.setup(t, store, fs, kr)

			_, err := store.Load()
			if !errors.Is(err, ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
		})
	}
}

func TestPersist_KeyringFailure(t *testing.T) {
	store, fs, kr := newTestStore(t)
	kr.setErr = errors.New("keyring locked")

	if err := store.Persist("tok"); err == nil {
		t.Fatal("expected error when keyring cannot store passphrase")
	}
	if exists, _ := afero.Exists(fs, store.Path()); exists {
		t.Error("no file should be written without a stored passphrase")
	}
}

func TestRemove_Idempotent(t *testing.T) {
	store, fs, _ := newTestStore(t)
	store.Persist("tok")

	if err := store.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := afero.Exists(fs, store.Path()); exists {
		t.Error("file should be gone")
	}
	if err := store.Remove(); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}

func TestForget(t *testing.T) {
	store, _, kr := newTestStore(t)
	store.Persist("tok")

	if err := store.Forget(); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if _, err := kr.Get(DefaultService, DefaultAccount); !errors.Is(err, ErrCredentialNotFound) {
		t.Error("keyring entry should be deleted")
	}
}

func TestSystemKeyring_Mock(t *testing.T) {
	keyring.MockInit()

	fs := afero.NewMemMapFs()
	store, err := NewStore(Config{Dir: "/data", KDF: fastKDF}, nil, WithFs(fs))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var kr SystemKeyring
	if _, err := kr.Get(DefaultService, DefaultAccount); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}

	if err := store.Persist("tok"); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	got, err := store.Load()
	if err != nil || got != "tok" {
		t.Errorf("Load() = %q, %v", got, err)
	}
	if err := store.Forget(); err != nil {
		t.Errorf("Forget failed: %v", err)
	}
	if err := kr.Delete(DefaultService, DefaultAccount); err != nil {
		t.Errorf("Delete of missing entry should be nil, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Dir: "/x", PassphraseLength: 16, KDF: fastKDF}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short passphrase length")
	}
}
