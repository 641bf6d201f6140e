// Package secret provides a zeroizing container for sensitive values such
// as passwords, keyring passphrases and derived encryption keys.
//
// A Secret owns a private copy of its bytes. Destroy overwrites that copy
// with zeros and is safe to call more than once, so callers can simply
//
//	pw := secret.NewString(input)
//	defer pw.Destroy()
//
// on every path that acquires one. The fmt and zerolog representations of
// a Secret are always redacted.
package secret
