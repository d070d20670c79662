// Package users provides the SQLite persistence layer for user accounts.
//
// A user row carries the authentication hash, the per-user KDF salt and the
// wrapped vault-key envelope. No plaintext password or raw key material ever
// reaches this layer.
package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/dbx"
	"github.com/credvault/credvault/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	settings, err := json.Marshal(user.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `INSERT INTO users (id, email, auth_hash, wrapped_vault_key, wrapped_vault_key_nonce, kdf_salt, settings, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.AuthHash,
		user.WrappedVaultKey.Ciphertext, user.WrappedVaultKey.Nonce,
		user.KDFSalt, string(settings), user.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, common.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

const selectUser = `SELECT id, email, auth_hash, wrapped_vault_key, wrapped_vault_key_nonce, kdf_salt, settings, created_at, last_login_at FROM users`

func (r *SQLiteRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var settings string
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.AuthHash,
		&u.WrappedVaultKey.Ciphertext, &u.WrappedVaultKey.Nonce,
		&u.KDFSalt, &settings, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &u.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if lastLogin.Valid {
		u.LastLoginAt = lastLogin.Time
	}
	return u, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email)
	return r.scanUser(row)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id)
	return r.scanUser(row)
}

// UpdateAuth replaces the hash/salt/envelope triple in one statement, so the
// old values are never readable alongside the new ones.
func (r *SQLiteRepository) UpdateAuth(ctx context.Context, id string, authHash string, kdfSalt []byte, envelope cryptox.EncryptedField) error {
	query := `UPDATE users SET auth_hash=?, kdf_salt=?, wrapped_vault_key=?, wrapped_vault_key_nonce=? WHERE id=?`
	res, err := r.db.ExecContext(ctx, query, authHash, kdfSalt, envelope.Ciphertext, envelope.Nonce, id)
	if err != nil {
		return fmt.Errorf("failed to update auth data: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at=? WHERE id=?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateSettings(ctx context.Context, id string, s models.SecuritySettings) error {
	settings, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET settings=? WHERE id=?`, string(settings), id)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}
