package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/credvault/credvault/internal/config"
	"github.com/credvault/credvault/internal/cryptox"
	"github.com/credvault/credvault/internal/logging"
	"github.com/credvault/credvault/internal/models"
	"github.com/credvault/credvault/internal/repositories/credentials"
	"github.com/credvault/credvault/internal/repositories/users"
	"github.com/credvault/credvault/internal/vault"
)

// App is the interactive credvault client. It owns the vault store, the
// session manager and the credential service, and exposes the REPL command
// handlers.
type App struct {
	config  *config.Config
	store   *vault.Store
	session *vault.Manager
	creds   *vault.CredentialService
	log     logging.Logger
	email   string
	reader  *bufio.Reader
}

// NewApp opens the vault store at the configured path and wires the session
// manager and credential service over it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := vault.OpenStore(ctx, c.VaultPath)
	if err != nil {
		log.Error(ctx, "error opening vault store", "error", err)
		return nil, err
	}

	session := vault.NewManager(store.DB, users.NewSQLiteRepository(store.DB), cryptox.NewStdProvider(), log)
	session.SetDefaultSettings(models.SecuritySettings{
		SessionTimeout:      c.SessionTimeout,
		ClipboardClearAfter: c.ClipboardClearAfter,
	})
	creds := vault.NewCredentialService(credentials.NewSQLiteRepository(store.DB), session, log)

	return &App{
		config:  c,
		store:   store,
		session: session,
		creds:   creds,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isAuthenticated() bool {
	return a.session.State() != vault.StateUnauthenticated
}

func (a *App) isUnlocked() bool {
	return a.session.State() == vault.StateUnlocked
}

func (a *App) getStatus() string {
	s := ""
	if a.email != "" {
		s = a.email + " "
	}
	s = s + a.session.State().String()
	return fmt.Sprintf("(%s)", s)
}

// Run starts the interactive loop and blocks until the user exits. The store
// is closed on the way out.
func (a *App) Run(ctx context.Context) {
	defer a.store.Close()

	fmt.Println("Welcome to credvault (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
