package models

import (
	"time"

	"github.com/credvault/credvault/internal/cryptox"
)

// Category classifies a credential for filtering. Free-form values are
// allowed; these are the well-known ones.
type Category string

const (
	CategoryLogin   Category = "login"
	CategoryCard    Category = "card"
	CategoryNote    Category = "note"
	CategoryGeneral Category = "general"
)

// SecretFieldNames enumerates the encrypted field slots of a credential, in
// persistence order.
var SecretFieldNames = []string{"password", "notes", "totp_seed", "card_number", "cvv"}

// Credential is the persisted shape of a secret record. Metadata fields are
// stored plaintext to support listing, sorting and search without
// decryption; every secret field is an independently sealed
// EncryptedField with its own nonce.
type Credential struct {
	ID     string
	UserID string

	// Plaintext, searchable metadata.
	Title    string
	Username string
	URL      string
	Category Category
	Tags     []string
	Favorite bool

	// Encrypted secret fields. A zero EncryptedField means "not set".
	Password   cryptox.EncryptedField
	Notes      cryptox.EncryptedField
	TOTPSeed   cryptox.EncryptedField
	CardNumber cryptox.EncryptedField
	CVV        cryptox.EncryptedField

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialInput carries the plaintext values for creating a credential.
// Secret fields left empty are not stored at all.
type CredentialInput struct {
	Title    string
	Username string
	URL      string
	Category Category
	Tags     []string
	Favorite bool

	Password   string
	Notes      string
	TOTPSeed   string
	CardNumber string
	CVV        string
}

// CredentialUpdate is a partial update: nil pointers leave the stored value
// untouched, non-nil pointers replace it (an empty string clears a secret
// field).
type CredentialUpdate struct {
	Title    *string
	Username *string
	URL      *string
	Category *Category
	Tags     *[]string
	Favorite *bool

	Password   *string
	Notes      *string
	TOTPSeed   *string
	CardNumber *string
	CVV        *string
}

// DecryptedCredential is the read-side view: metadata plus decrypted secret
// values. Fields whose ciphertext failed authentication are listed in
// Undecryptable and left empty; one corrupt field never hides the rest of
// the record.
type DecryptedCredential struct {
	ID       string
	UserID   string
	Title    string
	Username string
	URL      string
	Category Category
	Tags     []string
	Favorite bool

	Password   string
	Notes      string
	TOTPSeed   string
	CardNumber string
	CVV        string

	// Undecryptable names secret fields that failed decryption.
	Undecryptable []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overview is the listing row shown by findAll/search: metadata only, no
// decryption involved.
type Overview struct {
	ID       string
	Title    string
	Username string
	URL      string
	Category Category
	Tags     []string
	Favorite bool

	UpdatedAt time.Time
}
