// Package security handles TLS configuration and private keys at rest.
//
// Private keys (TLS or JWT signing keys) can be stored encrypted with the
// ChaCha20-Poly1305 passphrase codec from package encryption:
//
//	enc, err := security.EncryptPrivateKey(pemBytes, passphrase, nil)
//	key, err := security.ReadPrivateKey("key.enc", passphrase, nil)
//	defer key.Destroy()
//
// TLSConfig builds client and server *tls.Config values and unlocks
// encrypted key files transparently.
package security
