package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  auth_hash TEXT NOT NULL,
  wrapped_vault_key BLOB NOT NULL,
  wrapped_vault_key_nonce BLOB NOT NULL,
  kdf_salt BLOB NOT NULL,
  settings TEXT NOT NULL DEFAULT '{}',
  created_at TIMESTAMP NOT NULL,
  last_login_at TIMESTAMP
);
`)
	require.NoError(t, err)

	return db
}

func testUser(email string) *models.User {
	return &models.User{
		ID:       "u-" + email,
		Email:    email,
		AuthHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$ZGlnZXN0",
		WrappedVaultKey: cryptox.EncryptedField{
			Ciphertext: []byte{0x01, 0x02},
			Nonce:      []byte{0x03, 0x04},
		},
		KDFSalt:   []byte{0x05, 0x06},
		Settings:  models.DefaultSecuritySettings(),
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreate_AndGetByEmail(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	u := testUser("a@x.com")
	_, err := r.Create(ctx, u)
	require.NoError(t, err)

	got, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.AuthHash, got.AuthHash)
	assert.Equal(t, u.WrappedVaultKey, got.WrappedVaultKey)
	assert.Equal(t, u.KDFSalt, got.KDFSalt)
	assert.Equal(t, u.Settings, got.Settings)
	assert.True(t, got.LastLoginAt.IsZero())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)

	dup := testUser("a@x.com")
	dup.ID = "u-other"
	_, err = r.Create(ctx, dup)
	require.ErrorIs(t, err, common.ErrDuplicateAccount)
}

func TestGetByEmail_CaseSensitive(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := r.Create(ctx, testUser("a@x.com"))
	require.NoError(t, err)

	_, err = r.GetByEmail(ctx, "A@x.com")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateAuth_ReplacesTriple(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	u := testUser("a@x.com")
	_, err := r.Create(ctx, u)
	require.NoError(t, err)

	newEnvelope := cryptox.EncryptedField{Ciphertext: []byte{0xAA}, Nonce: []byte{0xBB}}
	err = r.UpdateAuth(ctx, u.ID, "$argon2id$v=19$m=65536,t=3,p=4$bmV3$bmV3", []byte{0xCC}, newEnvelope)
	require.NoError(t, err)

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$v=19$m=65536,t=3,p=4$bmV3$bmV3", got.AuthHash)
	assert.Equal(t, []byte{0xCC}, got.KDFSalt)
	assert.Equal(t, newEnvelope, got.WrappedVaultKey)
}

func TestUpdateAuth_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	err := r.UpdateAuth(context.Background(), "nope", "h", []byte{1}, cryptox.EncryptedField{})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestTouchLastLogin(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	u := testUser("a@x.com")
	_, err := r.Create(ctx, u)
	require.NoError(t, err)

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, r.TouchLastLogin(ctx, u.ID, at))

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, at, got.LastLoginAt.UTC())
}

func TestUpdateSettings(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	u := testUser("a@x.com")
	_, err := r.Create(ctx, u)
	require.NoError(t, err)

	s := models.SecuritySettings{SessionTimeout: time.Hour, ClipboardClearAfter: 10 * time.Second}
	require.NoError(t, r.UpdateSettings(ctx, u.ID, s))

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got.Settings)
}
