package authenticator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/authkit/validation"
)

// ErrUserNotFound is returned by UserStore.Lookup for unknown usernames.
var ErrUserNotFound = errors.New("authenticator: user not found")

// User is an account that may log in. PasswordHash is a PHC argon2id or
// bcrypt hash as produced by password.Hasher.
type User struct {
	Username     string `yaml:"username" json:"username" validate:"required,username"`
	PasswordHash string `yaml:"password_hash" json:"password_hash" validate:"required"`
}

// UserStore resolves usernames to accounts.
type UserStore interface {
	Lookup(ctx context.Context, username string) (User, error)
}

// MemoryUserStore keeps users in a map. It is safe for concurrent use.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryUserStore creates a store holding users. Invalid or duplicate
// entries are rejected.
func NewMemoryUserStore(users ...User) (*MemoryUserStore, error) {
	s := &MemoryUserStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		if err := s.Add(u); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts u. Usernames are case-sensitive.
func (s *MemoryUserStore) Add(u User) error {
	if err := validation.Validate(u); err != nil {
		return fmt.Errorf("user %q: %w", u.Username, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("user %q: duplicate username", u.Username)
	}
	s.users[u.Username] = u
	return nil
}

// Lookup implements UserStore.
func (s *MemoryUserStore) Lookup(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// Len returns the number of users.
func (s *MemoryUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// usersFile is the YAML layout of a users file:
//
//	users:
//	  - username: alice
//	    password_hash: $argon2id$v=19$m=19456,t=2,p=1$...
type usersFile struct {
	Users []User `yaml:"users"`
}

// FileUserStore serves users from a YAML file. Reload re-reads it; a failed
// reload keeps the previous users.
type FileUserStore struct {
	fs   afero.Fs
	path string

	mu  sync.RWMutex
	mem *MemoryUserStore
}

// NewFileUserStore loads the users file at path from fs.
func NewFileUserStore(fs afero.Fs, path string) (*FileUserStore, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &FileUserStore{fs: fs, path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the users file.
func (s *FileUserStore) Reload() error {
	users, err := ReadUsers(s.fs, s.path)
	if err != nil {
		return err
	}
	mem, err := NewMemoryUserStore(users...)
	if err != nil {
		return fmt.Errorf("users file %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.mem = mem
	s.mu.Unlock()
	return nil
}

// Lookup implements UserStore.
func (s *FileUserStore) Lookup(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	mem := s.mem
	s.mu.RUnlock()
	return mem.Lookup(ctx, username)
}

// Len returns the number of loaded users.
func (s *FileUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.Len()
}

// ReadUsers parses a users file. A missing file is an error.
func ReadUsers(fs afero.Fs, path string) ([]User, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}
	return f.Users, nil
}

// UpsertUser adds u to the users file at path, replacing an entry with the
// same username. The file is created when missing.
func UpsertUser(fs afero.Fs, path string, u User) error {
	if err := validation.Validate(u); err != nil {
		return fmt.Errorf("user %q: %w", u.Username, err)
	}
	users, err := ReadUsers(fs, path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if i := slices.IndexFunc(users, func(e User) bool { return e.Username == u.Username }); i >= 0 {
		users[i] = u
	} else {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b User) int { return strings.Compare(a.Username, b.Username) })

	data, err := yaml.Marshal(usersFile{Users: users})
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0o600)
}
