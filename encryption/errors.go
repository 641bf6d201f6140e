package encryption

import "errors"

// Input-shape errors. These are safe to report to callers verbatim.
var (
	ErrInvalidEncoding    = errors.New("encryption: invalid base64 encoding")
	ErrTruncated          = errors.New("encryption: input shorter than salt and nonce")
	ErrKeyTooShort        = errors.New("encryption: key shorter than 32 bytes")
	ErrPassphraseTooShort = errors.New("encryption: passphrase shorter than 32 characters")
	ErrSaltTooShort       = errors.New("encryption: salt shorter than 32 bytes")
	ErrInvalidNonce       = errors.New("encryption: nonce has wrong length")
	ErrInvalidUTF8        = errors.New("encryption: plaintext is not valid UTF-8")
	ErrUnknownAlgorithm   = errors.New("encryption: unknown algorithm")
)

// ErrAuthenticationFailed covers every MAC, key and associated-data
// mismatch. It never carries the underlying cause.
var ErrAuthenticationFailed = errors.New("encryption: authentication failed")
