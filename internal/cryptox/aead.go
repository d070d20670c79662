// Package cryptox implements the cryptographic core of CredVault: the
// master-password hasher, the wrapping-key KDF, the AES-GCM field cipher and
// the opaque key handles built on top of them.
//
// Raw key bytes never leave this package. Callers operate on *VaultKey and
// *WrappingKey handles whose only operations are encrypt/decrypt and
// wrap/unwrap.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/credvault/credvault/internal/common"
)

// Policy constants shared with collaborators. None of them is
// user-configurable.
const (
	// KeyLength is the AES-256 key size used for both the vault key and
	// the wrapping key.
	KeyLength = 32
	// NonceLength is the AES-GCM nonce size. A fresh random nonce is
	// generated per encryption; reuse under one key would break
	// confidentiality.
	NonceLength = 12
	// SaltLength applies to both the KDF salt and the hasher salt.
	SaltLength = 32
)

// EncryptedField is a single AEAD-protected value: ciphertext (with the GCM
// tag appended) plus the nonce it was sealed under. Ciphertext length tracks
// plaintext length; there is no length-hiding padding.
type EncryptedField struct {
	Ciphertext []byte
	Nonce      []byte
}

// Present reports whether the field actually carries a sealed value.
func (f EncryptedField) Present() bool {
	return len(f.Ciphertext) > 0
}

func sealAESGCM(key, plaintext []byte) (EncryptedField, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return EncryptedField{}, fmt.Errorf("create cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return EncryptedField{}, fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedField{}, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)
	return EncryptedField{Ciphertext: ciphertext, Nonce: nonce}, nil
}

// openAESGCM decrypts f under key. Any tampering with the ciphertext or the
// nonce makes the GCM tag check fail; the error always wraps
// common.ErrCryptoFailure and never carries partial plaintext.
func openAESGCM(key []byte, f EncryptedField) ([]byte, error) {
	if len(f.Nonce) != NonceLength {
		return nil, fmt.Errorf("%w: invalid nonce size", common.ErrCryptoFailure)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: create cipher", common.ErrCryptoFailure)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: create gcm", common.ErrCryptoFailure)
	}

	plaintext, err := aesgcm.Open(nil, f.Nonce, f.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", common.ErrCryptoFailure)
	}
	return plaintext, nil
}
