package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/credentials"
	"github.com/google/uuid"
)

// SessionGuard gates repository access on the session state. Satisfied by
// *Manager.
type SessionGuard interface {
	RequireUnlocked() error
}

// CredentialService is the CRUD layer over persisted credential records.
// Secret-bearing fields are sealed individually before anything reaches the
// repository; metadata is persisted as-is so listing and search never touch
// the vault key.
//
// Every operation consults the session guard first, so a locked or expired
// session cannot reach the repository even through the key-free paths (List,
// Delete). The vault key is received as a parameter for the duration of a
// single call and never retained.
type CredentialService struct {
	repo  credentials.Repository
	guard SessionGuard
	log   logging.Logger
	now   func() time.Time
}

// NewCredentialService constructs a CredentialService over the given
// repository, gated by the session guard.
func NewCredentialService(repo credentials.Repository, guard SessionGuard, log logging.Logger) *CredentialService {
	return &CredentialService{repo: repo, guard: guard, log: log, now: time.Now}
}

// sealField encrypts a secret value, or leaves the slot empty when the value
// is empty.
func sealField(key *cryptox.VaultKey, value string) (cryptox.EncryptedField, error) {
	if value == "" {
		return cryptox.EncryptedField{}, nil
	}
	f, err := key.EncryptField([]byte(value))
	if err != nil {
		return cryptox.EncryptedField{}, fmt.Errorf("encryption error: %w", err)
	}
	return f, nil
}

// Create encrypts every secret field of in under key and persists the
// record. Title is required.
func (s *CredentialService) Create(ctx context.Context, userID string, in models.CredentialInput, key *cryptox.VaultKey) (*models.Credential, error) {
	if err := s.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}

	category := in.Category
	if category == "" {
		category = models.CategoryGeneral
	}

	now := s.now().UTC()
	c := &models.Credential{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Username:  in.Username,
		URL:       in.URL,
		Category:  category,
		Tags:      in.Tags,
		Favorite:  in.Favorite,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var err error
	if c.Password, err = sealField(key, in.Password); err != nil {
		return nil, err
	}
	if c.Notes, err = sealField(key, in.Notes); err != nil {
		return nil, err
	}
	if c.TOTPSeed, err = sealField(key, in.TOTPSeed); err != nil {
		return nil, err
	}
	if c.CardNumber, err = sealField(key, in.CardNumber); err != nil {
		return nil, err
	}
	if c.CVV, err = sealField(key, in.CVV); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return c, nil
}

// openField decrypts one secret slot. A failed field is reported by name and
// left empty; it never fails the whole record.
func openField(key *cryptox.VaultKey, f cryptox.EncryptedField, name string, out *string, failed *[]string) {
	if !f.Present() {
		return
	}
	plaintext, err := key.DecryptField(f)
	if err != nil {
		*failed = append(*failed, name)
		return
	}
	*out = string(plaintext)
}

func (s *CredentialService) decrypt(ctx context.Context, c *models.Credential, key *cryptox.VaultKey) *models.DecryptedCredential {
	d := &models.DecryptedCredential{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		Username:  c.Username,
		URL:       c.URL,
		Category:  c.Category,
		Tags:      c.Tags,
		Favorite:  c.Favorite,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	openField(key, c.Password, "password", &d.Password, &d.Undecryptable)
	openField(key, c.Notes, "notes", &d.Notes, &d.Undecryptable)
	openField(key, c.TOTPSeed, "totp_seed", &d.TOTPSeed, &d.Undecryptable)
	openField(key, c.CardNumber, "card_number", &d.CardNumber, &d.Undecryptable)
	openField(key, c.CVV, "cvv", &d.CVV, &d.Undecryptable)

	if len(d.Undecryptable) > 0 {
		s.log.Warn(ctx, "credential has undecryptable fields",
			"credential_id", c.ID, "fields", d.Undecryptable)
	}
	return d
}

// Get returns a single decrypted credential owned by userID.
func (s *CredentialService) Get(ctx context.Context, userID, id string, key *cryptox.VaultKey) (*models.DecryptedCredential, error) {
	if err := s.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, common.ErrNotFound
	}
	return s.decrypt(ctx, c, key), nil
}

// List returns metadata overviews for all of the user's credentials. No
// decryption is performed.
func (s *CredentialService) List(ctx context.Context, userID string) ([]models.Overview, error) {
	if err := s.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.repo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving credentials: %w", err)
	}

	result := make([]models.Overview, 0, len(rows))
	for _, c := range rows {
		result = append(result, models.Overview{
			ID:        c.ID,
			Title:     c.Title,
			Username:  c.Username,
			URL:       c.URL,
			Category:  c.Category,
			Tags:      c.Tags,
			Favorite:  c.Favorite,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return result, nil
}

// FindAll returns every credential of the user, decrypted.
func (s *CredentialService) FindAll(ctx context.Context, userID string, key *cryptox.VaultKey) ([]models.DecryptedCredential, error) {
	if err := s.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.repo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving credentials: %w", err)
	}
	return s.decryptAll(ctx, rows, key), nil
}

// Search filters over plaintext metadata, then decrypts only the matching
// records.
func (s *CredentialService) Search(ctx context.Context, userID, query string, key *cryptox.VaultKey) ([]models.DecryptedCredential, error) {
	if err := s.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.repo.Search(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("error searching credentials: %w", err)
	}
	return s.decryptAll(ctx, rows, key), nil
}

func (s *CredentialService) decryptAll(ctx context.Context, rows []models.Credential, key *cryptox.VaultKey) []models.DecryptedCredential {
	result := make([]models.DecryptedCredential, 0, len(rows))
	for i := range rows {
		result = append(result, *s.decrypt(ctx, &rows[i], key))
	}
	return result
}

// applyUpdate merges a partial update into the stored record, re-encrypting
// the secret fields that change.
func applyUpdate(c *models.Credential, upd models.CredentialUpdate, key *cryptox.VaultKey) error {
	if upd.Title != nil {
		if *upd.Title == "" {
			return fmt.Errorf("%w: title is required", common.ErrValidation)
		}
		c.Title = *upd.Title
	}
	if upd.Username != nil {
		c.Username = *upd.Username
	}
	if upd.URL != nil {
		c.URL = *upd.URL
	}
	if upd.Category != nil {
		c.Category = *upd.Category
	}
	if upd.Tags != nil {
		c.Tags = *upd.Tags
	}
	if upd.Favorite != nil {
		c.Favorite = *upd.Favorite
	}

	secrets := []struct {
		value *string
		field *cryptox.EncryptedField
	}{
		{upd.Password, &c.Password},
		{upd.Notes, &c.Notes},
		{upd.TOTPSeed, &c.TOTPSeed},
		{upd.CardNumber, &c.CardNumber},
		{upd.CVV, &c.CVV},
	}
	for _, sf := range secrets {
		if sf.value == nil {
			continue
		}
		f, err := sealField(key, *sf.value)
		if err != nil {
			return err
		}
		*sf.field = f
	}
	return nil
}

// Update applies a partial update to a credential owned by userID. Secret
// fields present in upd are re-encrypted with fresh nonces; absent fields
// keep their stored ciphertext.
func (s *CredentialService) Update(ctx context.Context, userID, id string, upd models.CredentialUpdate, key *cryptox.VaultKey) (*models.Credential, error) {
	if err := s.guard.RequireUnlocked(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, common.ErrNotFound
	}

	if err := applyUpdate(c, upd, key); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	return c, nil
}

// Delete removes a credential owned by userID together with its ciphertext.
func (s *CredentialService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.RequireUnlocked(); err != nil {
		return err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return common.ErrNotFound
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("error deleting credential: %w", err)
	}
	return nil
}
