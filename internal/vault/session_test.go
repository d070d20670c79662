package vault

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/credvault/credvault/internal/common"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/credentials"
	"github.com/credvault/credvault/internal/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@x.com"
	testPassword = "Pw12345678!!"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.NewString())
	store, err := OpenStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestVault(t *testing.T) (*Store, *Manager, *CredentialService) {
	t.Helper()
	store := newTestStore(t)
	log := testLogger()
	mgr := NewManager(store.DB, users.NewSQLiteRepository(store.DB), cryptox.NewStdProvider(), log)
	svc := NewCredentialService(credentials.NewSQLiteRepository(store.DB), mgr, log)
	return store, mgr, svc
}

func newTestManager(t *testing.T) (*Manager, *CredentialService) {
	t.Helper()
	_, mgr, svc := newTestVault(t)
	return mgr, svc
}

func TestRegister_CreatesAccountWithoutSession(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	u, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)
	assert.Equal(t, testEmail, u.Email)
	assert.NotEmpty(t, u.AuthHash)
	assert.NotContains(t, u.AuthHash, testPassword)
	assert.Len(t, u.KDFSalt, cryptox.SaltLength)
	assert.True(t, u.WrappedVaultKey.Present())

	assert.Equal(t, StateUnauthenticated, mgr.State())
	_, err = mgr.VaultKey()
	require.ErrorIs(t, err, common.ErrSessionLocked)
}

func TestRegister_Validation(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Register(ctx, "not-an-email", []byte(testPassword))
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = mgr.Register(ctx, testEmail, []byte("short1!A"))
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)

	_, err = mgr.Register(ctx, testEmail, []byte(testPassword))
	require.ErrorIs(t, err, common.ErrDuplicateAccount)
}

func TestAuthenticate_WrongEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)

	errEmail := mgr.Authenticate(ctx, "b@x.com", []byte(testPassword))
	require.ErrorIs(t, errEmail, common.ErrInvalidCredentials)

	errPassword := mgr.Authenticate(ctx, testEmail, []byte("Wrong12345!!"))
	require.ErrorIs(t, errPassword, common.ErrInvalidCredentials)

	assert.Equal(t, errEmail.Error(), errPassword.Error())
	assert.Equal(t, StateUnauthenticated, mgr.State())
}

func TestAuthenticate_RecordsLastLogin(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	u, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)

	require.NoError(t, mgr.Authenticate(ctx, testEmail, []byte(testPassword)))

	got, err := mgr.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.LastLoginAt.IsZero())
}

func TestSessionScenario_LockUnlockReadBack(t *testing.T) {
	mgr, svc := newTestManager(t)
	ctx := context.Background()

	u, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, mgr.Authenticate(ctx, testEmail, []byte(testPassword)))
	assert.Equal(t, StateUnlocked, mgr.State())

	key, err := mgr.VaultKey()
	require.NoError(t, err)

	created, err := svc.Create(ctx, u.ID, models.CredentialInput{Title: "Site", Password: "Secret1"}, key)
	require.NoError(t, err)

	// lock: vault key purged, repository access fails fast
	require.NoError(t, mgr.Lock())
	assert.Equal(t, StateLocked, mgr.State())
	_, err = mgr.VaultKey()
	require.ErrorIs(t, err, common.ErrSessionLocked)

	// wrong password: stays locked
	require.ErrorIs(t, mgr.Unlock(ctx, []byte("Wrong12345!!")), common.ErrInvalidCredentials)
	assert.Equal(t, StateLocked, mgr.State())
	_, err = mgr.VaultKey()
	require.ErrorIs(t, err, common.ErrSessionLocked)

	// correct password: same decrypted data as before locking
	require.NoError(t, mgr.Unlock(ctx, []byte(testPassword)))
	assert.Equal(t, StateUnlocked, mgr.State())

	key, err = mgr.VaultKey()
	require.NoError(t, err)
	got, err := svc.Get(ctx, u.ID, created.ID, key)
	require.NoError(t, err)
	assert.Equal(t, "Secret1", got.Password)
	assert.Empty(t, got.Undecryptable)
}

func TestVaultKey_Expiry(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, mgr.Authenticate(ctx, testEmail, []byte(testPassword)))

	_, err = mgr.VaultKey()
	require.NoError(t, err)

	// jump past the wall-clock deadline
	mgr.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	_, err = mgr.VaultKey()
	require.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, StateUnauthenticated, mgr.State())
}

func TestSignOut_PurgesEverything(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, mgr.Authenticate(ctx, testEmail, []byte(testPassword)))

	mgr.SignOut()
	assert.Equal(t, StateUnauthenticated, mgr.State())
	assert.Empty(t, mgr.CurrentUserID())
	_, err = mgr.VaultKey()
	require.ErrorIs(t, err, common.ErrSessionLocked)
}

func TestLock_RequiresUnlockedSession(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.ErrorIs(t, mgr.Lock(), common.ErrSessionLocked)
	require.ErrorIs(t, mgr.Unlock(context.Background(), []byte(testPassword)), common.ErrSessionLocked)
}

func TestUpdateSecuritySettings(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	u, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)

	// no session: settings fall back to defaults and updates are rejected
	assert.Equal(t, models.DefaultSecuritySettings(), mgr.CurrentSettings())
	err = mgr.UpdateSecuritySettings(ctx, models.SecuritySettings{SessionTimeout: time.Hour})
	require.ErrorIs(t, err, common.ErrSessionLocked)

	require.NoError(t, mgr.Authenticate(ctx, testEmail, []byte(testPassword)))

	next := models.SecuritySettings{
		SessionTimeout:      time.Hour,
		ClipboardClearAfter: 10 * time.Second,
	}
	require.NoError(t, mgr.UpdateSecuritySettings(ctx, next))
	assert.Equal(t, next, mgr.CurrentSettings())

	// persisted, not just in-memory
	stored, err := mgr.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, next, stored.Settings)

	// invalid values are rejected
	err = mgr.UpdateSecuritySettings(ctx, models.SecuritySettings{SessionTimeout: 0})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestEvents_EmittedOnTransitions(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Register(ctx, testEmail, []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, mgr.Authenticate(ctx, testEmail, []byte(testPassword)))
	require.NoError(t, mgr.Lock())
	require.NoError(t, mgr.Unlock(ctx, []byte(testPassword)))
	mgr.SignOut()

	want := []struct{ from, to State }{
		{StateUnauthenticated, StateUnlocked},
		{StateUnlocked, StateLocked},
		{StateLocked, StateUnlocked},
		{StateUnlocked, StateUnauthenticated},
	}
	for _, w := range want {
		select {
		case ev := <-mgr.Events():
			assert.Equal(t, w.from, ev.From)
			assert.Equal(t, w.to, ev.To)
		default:
			t.Fatalf("missing event %v -> %v", w.from, w.to)
		}
	}
}

func TestEvents_LaggingConsumerKeepsOldest(t *testing.T) {
	mgr, _ := newTestManager(t)

	// fill the buffer without a consumer, then emit one more
	for i := 0; i < cap(mgr.events); i++ {
		mgr.emit(StateUnlocked, StateLocked)
	}
	mgr.emit(StateLocked, StateUnauthenticated)

	require.Len(t, mgr.events, cap(mgr.events))
	for i := 0; i < cap(mgr.events); i++ {
		ev := <-mgr.Events()
		assert.Equal(t, StateUnlocked, ev.From)
		assert.Equal(t, StateLocked, ev.To)
	}
}
