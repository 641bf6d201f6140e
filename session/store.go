package session

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/kbukum/authkit/auth/password"
	"github.com/kbukum/authkit/encryption"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/secret"
)

// ErrNoSession means no usable persisted session exists.
var ErrNoSession = errors.New("session: no usable session")

// Record is the on-disk session document.
type Record struct {
	Session Metadata `toml:"session"`
	Keys    Keys     `toml:"keys"`
}

// Metadata describes a persisted session.
type Metadata struct {
	Version   string `toml:"version"`
	CreatedAt string `toml:"created_at"`
}

// Keys holds the encrypted secrets of a session.
type Keys struct {
	Refresh string `toml:"refresh"`
}

// Store persists one refresh token per user.
type Store struct {
	cfg       Config
	fs        afero.Fs
	keyring   Keyring
	codec     *encryption.Codec
	generator *password.Generator
	now       func() time.Time
	log       *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option { return func(s *Store) { s.fs = fs } }

// WithKeyring replaces the system keyring.
func WithKeyring(k Keyring) Option { return func(s *Store) { s.keyring = k } }

// WithClock overrides time.Now for created_at.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// NewStore creates a Store.
func NewStore(cfg Config, log *logger.Logger, opts ...Option) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kdf, err := encryption.NewKeyDerivation(cfg.KDF)
	if err != nil {
		return nil, err
	}
	codec, err := encryption.NewCodec(encryption.AlgorithmXChaCha20, kdf)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault("session")
	}

	s := &Store{
		cfg:       cfg,
		fs:        afero.NewOsFs(),
		keyring:   SystemKeyring{},
		codec:     codec,
		generator: password.NewGenerator(cfg.PassphraseLength),
		now:       time.Now,
		log:       log.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the session file path.
func (s *Store) Path() string { return s.cfg.Path() }

// Persist encrypts refreshToken and writes it to the session file,
// replacing any previous session.
func (s *Store) Persist(refreshToken string) error {
	s.log.Debug("Persisting login state")

	passphrase, err := s.resolvePassphrase()
	if err != nil {
		return err
	}
	defer passphrase.Destroy()

	encrypted, err := s.codec.EncryptString(refreshToken, passphrase, []byte(s.cfg.AssociatedData))
	if err != nil {
		return fmt.Errorf("session: encrypt: %w", err)
	}

	data, err := toml.Marshal(Record{
		Session: Metadata{
			Version:   Version,
			CreatedAt: s.now().UTC().Format(time.RFC3339),
		},
		Keys: Keys{Refresh: encrypted},
	})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	if err := s.fs.MkdirAll(s.cfg.Dir, 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}

	s.log.Debug("Session persisted", map[string]interface{}{"path": s.Path()})
	return nil
}

// Load returns the persisted refresh token. Every failure wraps ErrNoSession.
func (s *Store) Load() (string, error) {
	record, err := s.read()
	if err != nil {
		return "", err
	}

	stored, err := s.keyring.Get(s.cfg.Service, s.cfg.Account)
	if err != nil {
		return "", noSession("keyring entry unavailable", err)
	}
	passphrase := secret.NewString(stored)
	defer passphrase.Destroy()

	token, err := s.codec.DecryptString(record.Keys.Refresh, passphrase, []byte(s.cfg.AssociatedData))
	if err != nil {
		return "", noSession("decrypt", err)
	}
	return token, nil
}

// Stat returns the metadata of the persisted session without decrypting it.
func (s *Store) Stat() (Metadata, error) {
	record, err := s.read()
	if err != nil {
		return Metadata{}, err
	}
	return record.Session, nil
}

// Remove deletes the session file. Removing a missing file is a no-op.
func (s *Store) Remove() error {
	err := s.fs.Remove(s.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove: %w", err)
	}
	return nil
}

// Forget removes the session file and the keyring passphrase.
func (s *Store) Forget() error {
	if err := s.Remove(); err != nil {
		return err
	}
	if err := s.keyring.Delete(s.cfg.Service, s.cfg.Account); err != nil {
		return fmt.Errorf("session: delete keyring entry: %w", err)
	}
	return nil
}

func (s *Store) read() (*Record, error) {
	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, noSession("read", err)
	}

	var record Record
	if err := toml.Unmarshal(data, &record); err != nil {
		return nil, noSession("parse", err)
	}
	if record.Session.Version != Version {
		return nil, noSession("version", fmt.Errorf("unsupported version %q", record.Session.Version))
	}
	if record.Keys.Refresh == "" {
		return nil, noSession("parse", errors.New("missing keys.refresh"))
	}
	return &record, nil
}

// resolvePassphrase returns the keyring passphrase, creating and storing
// one if the entry does not exist yet.
func (s *Store) resolvePassphrase() (*secret.Secret, error) {
	stored, err := s.keyring.Get(s.cfg.Service, s.cfg.Account)
	if err == nil {
		s.log.Debug("Using existing keyring passphrase")
		return secret.NewString(stored), nil
	}
	if !errors.Is(err, ErrCredentialNotFound) {
		return nil, fmt.Errorf("session: read keyring: %w", err)
	}

	s.log.Debug("No keyring entry found, generating passphrase")
	passphrase, err := s.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("session: generate passphrase: %w", err)
	}
	if err := s.keyring.Set(s.cfg.Service, s.cfg.Account, passphrase.Expose()); err != nil {
		passphrase.Destroy()
		return nil, fmt.Errorf("session: store keyring entry: %w", err)
	}
	s.log.Debug("Keyring entry created", map[string]interface{}{
		"service": s.cfg.Service,
		"account": s.cfg.Account,
	})
	return passphrase, nil
}

func noSession(stage string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrNoSession, stage, cause)
}
