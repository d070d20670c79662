// Package common defines shared constants and sentinel errors used across
// CredVault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. The two cases are deliberately indistinguishable to the
	// caller to avoid an account-enumeration side channel.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCryptoFailure indicates an AEAD tag mismatch or a corrupted
	// envelope. Decryption fails closed; no partial plaintext is returned.
	ErrCryptoFailure = errors.New("cryptographic failure")

	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrDuplicateAccount = errors.New("account already registered")

	// Session-level errors.
	ErrSessionLocked  = errors.New("session locked")
	ErrSessionExpired = errors.New("session expired")

	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failure")
)
