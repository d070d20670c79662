// Package models defines the persisted data model of the vault: user
// accounts and credential records. Secret-bearing fields are represented as
// cryptox.EncryptedField pairs; metadata stays plaintext so listings and
// search never need decryption.
package models

import (
	"time"

	"github.com/credvault/credvault/internal/cryptox"
)

// SecuritySettings holds per-user, non-secret preferences. Persisted as JSON
// inside the user row.
type SecuritySettings struct {
	// SessionTimeout is the wall-clock lifetime of an unlocked session.
	SessionTimeout time.Duration `json:"session_timeout"`
	// ClipboardClearAfter is how long a copied secret stays on the
	// clipboard before it is overwritten.
	ClipboardClearAfter time.Duration `json:"clipboard_clear_after"`
}

// DefaultSecuritySettings returns the settings applied at registration.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		SessionTimeout:      15 * time.Minute,
		ClipboardClearAfter: 30 * time.Second,
	}
}

// User is an account record. The authentication hash and the wrapped vault
// key are independent: the hash gates access, the envelope protects data.
// Neither is derivable from the other.
type User struct {
	// ID is a UUID assigned at registration.
	ID string

	// Email is the unique, case-sensitive account identifier.
	Email string

	// AuthHash is the self-describing argon2id PHC string
	// (algorithm$params$salt$digest). It never equals or contains the
	// plaintext password.
	AuthHash string

	// WrappedVaultKey is the vault key sealed under the KDF-derived
	// wrapping key, together with its nonce.
	WrappedVaultKey cryptox.EncryptedField

	// KDFSalt is the per-user salt for wrapping-key derivation (32 bytes).
	KDFSalt []byte

	// Settings holds session timeout and clipboard preferences.
	Settings SecuritySettings

	CreatedAt   time.Time
	LastLoginAt time.Time
}
