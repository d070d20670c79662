package cryptox

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Provider abstracts the platform crypto engine so the vault core can be
// exercised with deterministic entropy in tests and ported across runtimes.
// All key material produced by a Provider stays behind opaque handles.
type Provider interface {
	// HashPassword produces a self-describing, salted, slow hash of the
	// master password. Two calls with the same password yield different
	// strings (fresh salt per call).
	HashPassword(password []byte) (string, error)

	// VerifyPassword checks password against a stored hash string in
	// constant time. Malformed hash strings verify as false.
	VerifyPassword(password []byte, encoded string) bool

	// DeriveWrappingKey deterministically derives the envelope key from
	// (password, salt).
	DeriveWrappingKey(password, salt []byte) *WrappingKey

	// GenerateVaultKey creates a fresh random 256-bit vault key.
	GenerateVaultKey() (*VaultKey, error)

	// RandomBytes returns n cryptographically secure random bytes.
	RandomBytes(n int) ([]byte, error)
}

// StdProvider is the default Provider backed by crypto/rand, Argon2id,
// PBKDF2-SHA256 and AES-256-GCM.
type StdProvider struct {
	// Rand is the entropy source for salts and vault keys. Tests may
	// replace it; nonces always come from crypto/rand.
	Rand io.Reader
}

// NewStdProvider returns a StdProvider using the system random source.
func NewStdProvider() *StdProvider {
	return &StdProvider{Rand: rand.Reader}
}

func (p *StdProvider) HashPassword(password []byte) (string, error) {
	return hashPassword(password, p.Rand)
}

func (p *StdProvider) VerifyPassword(password []byte, encoded string) bool {
	return verifyPassword(password, encoded)
}

func (p *StdProvider) DeriveWrappingKey(password, salt []byte) *WrappingKey {
	return deriveWrappingKey(password, salt)
}

func (p *StdProvider) GenerateVaultKey() (*VaultKey, error) {
	key := make([]byte, KeyLength)
	if _, err := io.ReadFull(p.Rand, key); err != nil {
		return nil, fmt.Errorf("generate vault key: %w", err)
	}
	return &VaultKey{key: key}, nil
}

func (p *StdProvider) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(p.Rand, b); err != nil {
		return nil, err
	}
	return b, nil
}
