// Package vault implements the key-management core: account registration,
// authentication, the session lifecycle that owns the unwrapped vault key,
// field-level credential encryption and master-password rotation.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/users"
	"github.com/google/uuid"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnauthenticated: no user identity, no vault key.
	StateUnauthenticated State = iota
	// StateUnlocked: authenticated, vault key resident in memory.
	StateUnlocked
	// StateLocked: identity retained, vault key purged.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateUnlocked:
		return "unlocked"
	case StateLocked:
		return "locked"
	default:
		return "unauthenticated"
	}
}

// StateChange is emitted on every session transition.
type StateChange struct {
	From State
	To   State
	At   time.Time
}

// session is the in-memory, never-persisted session record. The vault key
// lives here and nowhere else while the vault is unlocked.
type session struct {
	userID    string
	email     string
	vaultKey  *cryptox.VaultKey
	expiresAt time.Time
	state     State
	settings  models.SecuritySettings
}

// Manager owns the single live session and serializes authentication,
// unlock and rotation behind one mutex, so a rotation in progress can never
// interleave with an authentication against stale credentials.
type Manager struct {
	db       *sql.DB
	users    users.Repository
	provider cryptox.Provider
	log      logging.Logger

	// now is a test seam for expiry checks.
	now func() time.Time

	mu       sync.Mutex
	session  *session
	events   chan StateChange
	defaults models.SecuritySettings
}

// NewManager constructs a session manager over the given store.
func NewManager(db *sql.DB, usersRepo users.Repository, provider cryptox.Provider, log logging.Logger) *Manager {
	return &Manager{
		db:       db,
		users:    usersRepo,
		provider: provider,
		log:      log,
		now:      time.Now,
		events:   make(chan StateChange, 16),
		defaults: models.DefaultSecuritySettings(),
	}
}

// SetDefaultSettings overrides the security settings applied to newly
// registered accounts.
func (m *Manager) SetDefaultSettings(s models.SecuritySettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = s
}

func (m *Manager) defaultSettings() models.SecuritySettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaults
}

// Events returns the channel carrying session state changes. The channel is
// buffered; if a consumer lags, new notifications are dropped rather than
// blocking a transition.
func (m *Manager) Events() <-chan StateChange {
	return m.events
}

func (m *Manager) emit(from, to State) {
	select {
	case m.events <- StateChange{From: from, To: to, At: m.now()}:
	default:
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return StateUnauthenticated
	}
	return m.session.state
}

// CurrentUserID returns the authenticated user's id, or empty if none.
func (m *Manager) CurrentUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.userID
}

// requireUnlockedLocked verifies a live, unexpired unlocked session. An
// expired session is destroyed on the spot. Caller must hold m.mu.
func (m *Manager) requireUnlockedLocked() error {
	if m.session == nil || m.session.state != StateUnlocked {
		return common.ErrSessionLocked
	}
	if m.now().After(m.session.expiresAt) {
		m.destroyLocked()
		return common.ErrSessionExpired
	}
	return nil
}

// RequireUnlocked fails fast with common.ErrSessionLocked when the vault is
// locked or unauthenticated and with common.ErrSessionExpired when the
// wall-clock deadline has passed (the session is destroyed in that case).
// Repository-facing services call it before every operation, including the
// ones that touch no key material.
func (m *Manager) RequireUnlocked() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requireUnlockedLocked()
}

// VaultKey returns the resident vault key for the duration of a single
// credential operation, applying the same gate as RequireUnlocked. Callers
// must not retain the handle.
func (m *Manager) VaultKey() (*cryptox.VaultKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	return m.session.vaultKey, nil
}

// CurrentSettings returns the authenticated user's security settings, or the
// registration defaults when no session is live.
func (m *Manager) CurrentSettings() models.SecuritySettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return m.defaults
	}
	return m.session.settings
}

// UpdateSecuritySettings persists new security settings for the
// authenticated user and applies them to the live session, re-arming the
// expiry deadline when the vault is unlocked.
func (m *Manager) UpdateSecuritySettings(ctx context.Context, s models.SecuritySettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return common.ErrSessionLocked
	}
	if s.SessionTimeout <= 0 || s.ClipboardClearAfter < 0 {
		return fmt.Errorf("%w: invalid security settings", common.ErrValidation)
	}

	if err := m.users.UpdateSettings(ctx, m.session.userID, s); err != nil {
		return err
	}

	m.session.settings = s
	if m.session.state == StateUnlocked {
		m.session.expiresAt = m.now().Add(s.SessionTimeout)
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}

// Register creates a new account: hashes the master password, generates the
// per-user KDF salt and a fresh random vault key, wraps the key and persists
// the user record. It does not open a session.
func (m *Manager) Register(ctx context.Context, email string, password []byte) (*models.User, error) {
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if err := ValidateMasterPassword(password); err != nil {
		return nil, err
	}
	if score := PasswordStrength(password); score < 2 {
		m.log.Warn(ctx, "weak master password accepted", "score", score)
	}

	authHash, err := m.provider.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing error: %w", err)
	}

	kdfSalt, err := m.provider.RandomBytes(cryptox.SaltLength)
	if err != nil {
		return nil, fmt.Errorf("salt generation error: %w", err)
	}

	vaultKey, err := m.provider.GenerateVaultKey()
	if err != nil {
		return nil, fmt.Errorf("vault key generation error: %w", err)
	}
	defer vaultKey.Zeroize()

	wrappingKey := m.provider.DeriveWrappingKey(password, kdfSalt)
	defer wrappingKey.Zeroize()

	envelope, err := wrappingKey.WrapVaultKey(vaultKey)
	if err != nil {
		return nil, fmt.Errorf("vault key wrapping error: %w", err)
	}

	user := &models.User{
		ID:              uuid.NewString(),
		Email:           email,
		AuthHash:        authHash,
		WrappedVaultKey: envelope,
		KDFSalt:         kdfSalt,
		Settings:        m.defaultSettings(),
		CreatedAt:       m.now().UTC(),
	}

	if _, err := m.users.Create(ctx, user); err != nil {
		return nil, err
	}

	m.log.Info(ctx, "account registered", "user_id", user.ID)
	return user, nil
}

// Authenticate verifies the master password, unwraps the vault key and
// opens an unlocked session. A wrong email and a wrong password both yield
// common.ErrInvalidCredentials; callers must not distinguish them.
func (m *Manager) Authenticate(ctx context.Context, email string, password []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidCredentials
		}
		return err
	}

	if !m.provider.VerifyPassword(password, user.AuthHash) {
		return common.ErrInvalidCredentials
	}

	wrappingKey := m.provider.DeriveWrappingKey(password, user.KDFSalt)
	defer wrappingKey.Zeroize()

	vaultKey, err := wrappingKey.UnwrapVaultKey(user.WrappedVaultKey)
	if err != nil {
		// hash verified but envelope does not open: stored data is corrupt
		return err
	}

	from := StateUnauthenticated
	if m.session != nil {
		from = m.session.state
		m.session.purge()
	}

	m.session = &session{
		userID:    user.ID,
		email:     user.Email,
		vaultKey:  vaultKey,
		expiresAt: m.now().Add(user.Settings.SessionTimeout),
		state:     StateUnlocked,
		settings:  user.Settings,
	}

	if err := m.users.TouchLastLogin(ctx, user.ID, m.now()); err != nil {
		m.log.Warn(ctx, "failed to record last login", "error", err)
	}

	m.log.Info(ctx, "session opened", "user_id", user.ID)
	m.emit(from, StateUnlocked)
	return nil
}

// Lock purges the vault key from memory but keeps the user identity, moving
// the session to StateLocked.
func (m *Manager) Lock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.state != StateUnlocked {
		return common.ErrSessionLocked
	}

	m.session.vaultKey.Zeroize()
	m.session.vaultKey = nil
	m.session.state = StateLocked

	m.emit(StateUnlocked, StateLocked)
	return nil
}

// Unlock re-derives the wrapping key from the supplied password and restores
// the vault key without a full re-authentication. On a wrong password the
// session stays locked.
func (m *Manager) Unlock(ctx context.Context, password []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.state != StateLocked {
		return common.ErrSessionLocked
	}

	user, err := m.users.GetByID(ctx, m.session.userID)
	if err != nil {
		return err
	}

	if !m.provider.VerifyPassword(password, user.AuthHash) {
		return common.ErrInvalidCredentials
	}

	wrappingKey := m.provider.DeriveWrappingKey(password, user.KDFSalt)
	defer wrappingKey.Zeroize()

	vaultKey, err := wrappingKey.UnwrapVaultKey(user.WrappedVaultKey)
	if err != nil {
		return err
	}

	m.session.vaultKey = vaultKey
	m.session.expiresAt = m.now().Add(user.Settings.SessionTimeout)
	m.session.state = StateUnlocked
	m.session.settings = user.Settings

	m.emit(StateLocked, StateUnlocked)
	return nil
}

// SignOut destroys the session entirely: key purged, identity dropped.
func (m *Manager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyLocked()
}

// destroyLocked purges the session. Caller must hold m.mu.
func (m *Manager) destroyLocked() {
	if m.session == nil {
		return
	}
	from := m.session.state
	m.session.purge()
	m.session = nil
	m.emit(from, StateUnauthenticated)
}

func (s *session) purge() {
	if s.vaultKey != nil {
		s.vaultKey.Zeroize()
		s.vaultKey = nil
	}
}
