package users

import (
	"context"
	"time"

	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/models"
)

// Repository describes persistence operations for user accounts.
// Implementations are backed by the local SQLite vault database.
type Repository interface {
	// Create inserts a new account. Returns common.ErrDuplicateAccount if
	// the email is already registered.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the account with the given (case-sensitive)
	// email, or common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the account by id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateAuth replaces the authentication hash, the KDF salt and the
	// wrapped vault-key envelope in a single statement. Callers performing
	// a rotation run it inside a transaction so the triple is replaced
	// atomically or not at all.
	UpdateAuth(ctx context.Context, id string, authHash string, kdfSalt []byte, envelope cryptox.EncryptedField) error

	// TouchLastLogin records a successful authentication time.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// UpdateSettings replaces the user's security settings.
	UpdateSettings(ctx context.Context, id string, s models.SecuritySettings) error
}
