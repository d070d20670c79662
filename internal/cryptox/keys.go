package cryptox

import (
	"crypto/subtle"
	"errors"

	"github.com/credvault/credvault/internal/common"
)

var errKeyNotSerializable = errors.New("key handles are not serializable")

// VaultKey is the per-account random symmetric key that protects credential
// secrets. It exists unwrapped only inside an active session; at rest it is
// stored wrapped by a WrappingKey. The raw bytes are never exposed.
type VaultKey struct {
	key []byte
}

// EncryptField seals plaintext under the vault key with a fresh nonce.
func (k *VaultKey) EncryptField(plaintext []byte) (EncryptedField, error) {
	return sealAESGCM(k.key, plaintext)
}

// DecryptField opens a sealed field. Fails closed with
// common.ErrCryptoFailure on any tampering or key mismatch.
func (k *VaultKey) DecryptField(f EncryptedField) ([]byte, error) {
	return openAESGCM(k.key, f)
}

// Equal reports whether two handles hold the same key bytes, in constant
// time. Intended for tests and the rotation sanity check.
func (k *VaultKey) Equal(other *VaultKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return subtle.ConstantTimeCompare(k.key, other.key) == 1
}

// Zeroize wipes the key bytes. The handle must not be used afterwards.
func (k *VaultKey) Zeroize() {
	common.WipeByteArray(k.key)
	k.key = nil
}

// MarshalJSON always fails: a vault key must never end up in a generic
// serialized representation.
func (k *VaultKey) MarshalJSON() ([]byte, error) { return nil, errKeyNotSerializable }

// MarshalText always fails for the same reason as MarshalJSON.
func (k *VaultKey) MarshalText() ([]byte, error) { return nil, errKeyNotSerializable }

func (k *VaultKey) String() string { return "vaultkey(opaque)" }

// WrappingKey is the password-derived key used exclusively to wrap and
// unwrap a VaultKey. It is never persisted and never exposed as bytes.
type WrappingKey struct {
	key []byte
}

// WrapVaultKey seals the vault key bytes into an envelope.
func (w *WrappingKey) WrapVaultKey(vk *VaultKey) (EncryptedField, error) {
	return sealAESGCM(w.key, vk.key)
}

// UnwrapVaultKey opens an envelope produced by WrapVaultKey. A wrong
// wrapping key or a tampered envelope yields common.ErrCryptoFailure and no
// partial result.
func (w *WrappingKey) UnwrapVaultKey(envelope EncryptedField) (*VaultKey, error) {
	raw, err := openAESGCM(w.key, envelope)
	if err != nil {
		return nil, err
	}
	return &VaultKey{key: raw}, nil
}

// Zeroize wipes the key bytes. The handle must not be used afterwards.
func (w *WrappingKey) Zeroize() {
	common.WipeByteArray(w.key)
	w.key = nil
}

// MarshalJSON always fails: wrapping keys are not serializable.
func (w *WrappingKey) MarshalJSON() ([]byte, error) { return nil, errKeyNotSerializable }

// MarshalText always fails for the same reason as MarshalJSON.
func (w *WrappingKey) MarshalText() ([]byte, error) { return nil, errKeyNotSerializable }

func (w *WrappingKey) String() string { return "wrappingkey(opaque)" }
