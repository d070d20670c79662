package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/dbx"
	"github.com/credvault/credvault/internal/repositories/users"
)

// ChangeMasterPassword rotates the authentication hash, the KDF salt and the
// vault-key envelope to a new master password.
//
// The vault key itself is not regenerated: credential ciphertext is keyed
// off the unchanged vault key, so rotation re-wraps a single envelope and
// costs O(1) regardless of how many credentials exist.
//
// Steps: verify the current password, unwrap the vault key with the old
// wrapping key, compute a new hash and an independent new salt, re-wrap the
// same key bytes under the new wrapping key, then commit hash+salt+envelope
// in one transaction. Any failure before the commit leaves the stored record
// untouched. After a successful commit the session is destroyed, forcing
// re-authentication with the new password.
func (m *Manager) ChangeMasterPassword(ctx context.Context, oldPassword, newPassword []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return common.ErrSessionLocked
	}
	userID := m.session.userID

	if err := ValidateMasterPassword(newPassword); err != nil {
		return err
	}
	if score := PasswordStrength(newPassword); score < 2 {
		m.log.Warn(ctx, "weak master password accepted", "score", score)
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	// verify current password; abort with no side effects on mismatch
	if !m.provider.VerifyPassword(oldPassword, user.AuthHash) {
		return common.ErrInvalidCredentials
	}

	// unwrap the vault key with the old wrapping key
	oldWrappingKey := m.provider.DeriveWrappingKey(oldPassword, user.KDFSalt)
	defer oldWrappingKey.Zeroize()

	vaultKey, err := oldWrappingKey.UnwrapVaultKey(user.WrappedVaultKey)
	if err != nil {
		// corrupted envelope is fatal to the rotation, never retried
		m.log.Error(ctx, "rotation aborted: envelope unwrap failed", "user_id", userID)
		return err
	}
	defer vaultKey.Zeroize()

	// new hash and an independently random salt
	newHash, err := m.provider.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing error: %w", err)
	}
	newSalt, err := m.provider.RandomBytes(cryptox.SaltLength)
	if err != nil {
		return fmt.Errorf("salt generation error: %w", err)
	}

	// re-wrap the same vault key bytes under the new wrapping key
	newWrappingKey := m.provider.DeriveWrappingKey(newPassword, newSalt)
	defer newWrappingKey.Zeroize()

	envelope, err := newWrappingKey.WrapVaultKey(vaultKey)
	if err != nil {
		return fmt.Errorf("vault key wrapping error: %w", err)
	}

	// sanity: the new envelope must round-trip before anything is stored
	check, err := newWrappingKey.UnwrapVaultKey(envelope)
	if err != nil || !vaultKey.Equal(check) {
		if check != nil {
			check.Zeroize()
		}
		return fmt.Errorf("%w: rewrap verification failed", common.ErrCryptoFailure)
	}
	check.Zeroize()

	// atomic commit: the old triple is never readable alongside the new one
	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return users.NewSQLiteRepository(tx).UpdateAuth(ctx, userID, newHash, newSalt, envelope)
	})
	if err != nil {
		if errors.Is(err, common.ErrCryptoFailure) {
			return err
		}
		return fmt.Errorf("rotation commit failed: %w", err)
	}

	m.log.Info(ctx, "master password rotated", "user_id", userID)

	// invalidate the session: every open handle re-authenticates with the
	// new password
	m.destroyLocked()
	return nil
}
