// Package credentials provides the SQLite persistence layer for credential
// records.
//
// Each secret field is stored as its own ciphertext+nonce column pair, so
// fields can be decrypted (and fail) independently. Metadata columns are
// plaintext to support listing and search without touching the vault key.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/credvault/credvault/internal/common"
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

const credentialColumns = `id, user_id, title, username, url, category, tags, favorite,
	password, password_nonce, notes, notes_nonce, totp_seed, totp_seed_nonce,
	card_number, card_number_nonce, cvv, cvv_nonce, created_at, updated_at`

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.Credential) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `INSERT INTO credentials (` + credentialColumns + `)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Title, c.Username, c.URL, string(c.Category), string(tags), c.Favorite,
		c.Password.Ciphertext, c.Password.Nonce,
		c.Notes.Ciphertext, c.Notes.Nonce,
		c.TOTPSeed.Ciphertext, c.TOTPSeed.Nonce,
		c.CardNumber.Ciphertext, c.CardNumber.Nonce,
		c.CVV.Ciphertext, c.CVV.Nonce,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	c := &models.Credential{}
	var tags, category string
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Username, &c.URL, &category, &tags, &c.Favorite,
		&c.Password.Ciphertext, &c.Password.Nonce,
		&c.Notes.Ciphertext, &c.Notes.Nonce,
		&c.TOTPSeed.Ciphertext, &c.TOTPSeed.Nonce,
		&c.CardNumber.Ciphertext, &c.CardNumber.Nonce,
		&c.CVV.Ciphertext, &c.CVV.Nonce,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Category = models.Category(category)
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id=?`, id)
	c, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	defer rows.Close()

	var result []models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetAllByUser(ctx context.Context, userID string) ([]models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE user_id=? ORDER BY favorite DESC, title COLLATE NOCASE`
	return r.queryMany(ctx, query, userID)
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.Credential) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `UPDATE credentials SET title=?, username=?, url=?, category=?, tags=?, favorite=?,
			password=?, password_nonce=?, notes=?, notes_nonce=?,
			totp_seed=?, totp_seed_nonce=?, card_number=?, card_number_nonce=?,
			cvv=?, cvv_nonce=?, updated_at=?
		WHERE id=?`
	res, err := r.db.ExecContext(ctx, query,
		c.Title, c.Username, c.URL, string(c.Category), string(tags), c.Favorite,
		c.Password.Ciphertext, c.Password.Nonce,
		c.Notes.Ciphertext, c.Notes.Nonce,
		c.TOTPSeed.Ciphertext, c.TOTPSeed.Nonce,
		c.CardNumber.Ciphertext, c.CardNumber.Nonce,
		c.CVV.Ciphertext, c.CVV.Nonce,
		c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
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

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
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

func (r *SQLiteRepository) Search(ctx context.Context, userID, query string) ([]models.Credential, error) {
	pattern := "%" + query + "%"
	q := `SELECT ` + credentialColumns + ` FROM credentials
		WHERE user_id=? AND (title LIKE ? OR username LIKE ? OR url LIKE ? OR category LIKE ? OR tags LIKE ?)
		ORDER BY favorite DESC, title COLLATE NOCASE`
	return r.queryMany(ctx, q, userID, pattern, pattern, pattern, pattern, pattern)
}
