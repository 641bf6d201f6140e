package session

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// ErrCredentialNotFound is returned by a Keyring when no entry exists.
var ErrCredentialNotFound = errors.New("session: credential not found")

// Keyring stores one secret string per service/account pair.
type Keyring interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
}

// SystemKeyring is the platform credential store: Keychain on macOS,
// Secret Service on Linux, Credential Manager on Windows.
type SystemKeyring struct{}

// Get implements Keyring.
func (SystemKeyring) Get(service, account string) (string, error) {
	v, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrCredentialNotFound
	}
	return v, err
}

// Set implements Keyring.
func (SystemKeyring) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

// Delete implements Keyring. Deleting a missing entry is not an error.
func (SystemKeyring) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
