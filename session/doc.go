// Package session persists a refresh token to disk, encrypted under a
// passphrase that lives only in the OS credential store.
//
// On first Persist a random passphrase (32+ characters, all four character
// classes) is generated and stored in the keyring under a fixed service and
// account. The token is encrypted with XChaCha20-Poly1305 via
// encryption.Codec and written as TOML:
//
//	[session]
//	version = "1.0.0"
//	created_at = "2024-01-01T00:00:00Z"
//
//	[keys]
//	refresh = "<base64(salt ‖ nonce ‖ ciphertext)>"
//
// Load fails with an error wrapping ErrNoSession for every unusable
// state: missing file, missing keyring entry, unparsable document or a
// blob that does not decrypt. Losing the keyring entry therefore discards
// the session.
package session
