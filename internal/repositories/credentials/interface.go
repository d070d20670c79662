package credentials

import (
	"context"

	"github.com/credvault/credvault/internal/models"
)

// Repository describes CRUD and query operations for credential records.
// Rows carry plaintext metadata plus independently sealed secret fields; the
// repository never sees plaintext secrets.
type Repository interface {
	// Insert stores a new credential record.
	Insert(ctx context.Context, c *models.Credential) error

	// GetByID returns a credential by its identifier, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Credential, error)

	// GetAllByUser returns every credential of the given user, ordered by
	// favorite flag and title. Filtering happens over plaintext metadata;
	// no decryption is involved.
	GetAllByUser(ctx context.Context, userID string) ([]models.Credential, error)

	// Update replaces a stored record with c. Returns common.ErrNotFound
	// if no record with c.ID exists.
	Update(ctx context.Context, c *models.Credential) error

	// DeleteByID removes the record and its index entries. No ciphertext
	// survives a delete.
	DeleteByID(ctx context.Context, id string) error

	// Search returns the user's credentials whose metadata matches query
	// (case-insensitive substring over title, username, url, category and
	// tags).
	Search(ctx context.Context, userID, query string) ([]models.Credential, error)
}
