// Package encryption provides passphrase-based authenticated encryption.
//
// It has three layers:
//
//   - KeyDerivation stretches a passphrase into a 32-byte key with Argon2id,
//     optionally mixing in a secret pepper.
//   - Algorithm profiles (AES-256-GCM, ChaCha20-Poly1305, XChaCha20-Poly1305)
//     seal and open raw bytes under a key with a fresh random nonce per call.
//   - Codec combines both into a self-describing string:
//     base64(salt ‖ nonce ‖ ciphertext).
//
// Malformed input is reported precisely (ErrInvalidEncoding, ErrTruncated).
// A wrong key, wrong associated data or tampered ciphertext always yields
// the single opaque ErrAuthenticationFailed.
//
// # Usage
//
//	kdf, err := encryption.NewKeyDerivation(encryption.KDFConfig{})
//	codec, err := encryption.NewCodec(encryption.AlgorithmXChaCha20, kdf)
//	encoded, err := codec.EncryptString(token, passphrase, []byte("context"))
//	token, err := codec.DecryptString(encoded, passphrase, []byte("context"))
package encryption
