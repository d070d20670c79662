package cryptox

import (
	"testing"

	"github.com/credvault/credvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveWrappingKey_Deterministic(t *testing.T) {
	p := NewStdProvider()
	password := []byte("correct horse battery staple")
	salt, err := p.RandomBytes(SaltLength)
	require.NoError(t, err)

	k1 := p.DeriveWrappingKey(password, salt)
	k2 := p.DeriveWrappingKey(password, salt)

	// same inputs must produce keys that unwrap each other's envelopes
	vk, err := p.GenerateVaultKey()
	require.NoError(t, err)

	envelope, err := k1.WrapVaultKey(vk)
	require.NoError(t, err)

	unwrapped, err := k2.UnwrapVaultKey(envelope)
	require.NoError(t, err)
	assert.True(t, vk.Equal(unwrapped))
}

func TestDeriveWrappingKey_DifferentInputsDifferentKeys(t *testing.T) {
	p := NewStdProvider()
	salt1, err := p.RandomBytes(SaltLength)
	require.NoError(t, err)
	salt2, err := p.RandomBytes(SaltLength)
	require.NoError(t, err)

	vk, err := p.GenerateVaultKey()
	require.NoError(t, err)

	envelope, err := p.DeriveWrappingKey([]byte("pw"), salt1).WrapVaultKey(vk)
	require.NoError(t, err)

	// wrong salt
	_, err = p.DeriveWrappingKey([]byte("pw"), salt2).UnwrapVaultKey(envelope)
	require.ErrorIs(t, err, common.ErrCryptoFailure)

	// wrong password
	_, err = p.DeriveWrappingKey([]byte("pww"), salt1).UnwrapVaultKey(envelope)
	require.ErrorIs(t, err, common.ErrCryptoFailure)
}

func TestUnwrapVaultKey_TamperedEnvelope(t *testing.T) {
	p := NewStdProvider()
	salt, err := p.RandomBytes(SaltLength)
	require.NoError(t, err)
	wk := p.DeriveWrappingKey([]byte("pw"), salt)

	vk, err := p.GenerateVaultKey()
	require.NoError(t, err)

	envelope, err := wk.WrapVaultKey(vk)
	require.NoError(t, err)

	envelope.Ciphertext[0] ^= 0xFF
	_, err = wk.UnwrapVaultKey(envelope)
	require.ErrorIs(t, err, common.ErrCryptoFailure)
}

func TestUnwrapVaultKey_PreservesExactKeyBytes(t *testing.T) {
	p := NewStdProvider()
	salt, err := p.RandomBytes(SaltLength)
	require.NoError(t, err)
	wk := p.DeriveWrappingKey([]byte("pw"), salt)

	vk, err := p.GenerateVaultKey()
	require.NoError(t, err)

	envelope, err := wk.WrapVaultKey(vk)
	require.NoError(t, err)

	unwrapped, err := wk.UnwrapVaultKey(envelope)
	require.NoError(t, err)

	// data sealed before wrapping must decrypt with the unwrapped key
	f, err := vk.EncryptField([]byte("sealed before rotation"))
	require.NoError(t, err)
	got, err := unwrapped.DecryptField(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed before rotation"), got)
}

func TestGenerateVaultKey_Unique(t *testing.T) {
	p := NewStdProvider()
	k1, err := p.GenerateVaultKey()
	require.NoError(t, err)
	k2, err := p.GenerateVaultKey()
	require.NoError(t, err)
	assert.False(t, k1.Equal(k2))
}

func TestKDFIterationFloor(t *testing.T) {
	// policy constant: PBKDF2-class functions require at least 600k rounds
	if KDFIterations < 600_000 {
		t.Fatalf("KDF iteration count %d below policy floor", KDFIterations)
	}
}
