package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/credvault/credvault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and master password and creates a
// new account. It does not sign the user in.
//
// The password byte slices are securely wiped before returning. Any I/O or
// service error is returned unchanged.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}

	if _, err := a.session.Register(ctx, email, password); err != nil {
		return err
	}

	fmt.Println("Account created. Use 'login' to open the vault.")
	return nil
}

// Login prompts for credentials, authenticates and unlocks the vault.
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Authenticate(ctx, email, password); err != nil {
		return err
	}

	a.email = email
	fmt.Println("Vault unlocked.")
	return nil
}

// Lock purges the vault key from memory; the user stays signed in.
func (a *App) Lock(ctx context.Context) error {
	if err := a.session.Lock(); err != nil {
		return err
	}
	fmt.Println("Vault locked.")
	return nil
}

// Unlock restores vault access after a lock by re-entering the master password.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword("Enter master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Unlock(ctx, password); err != nil {
		return err
	}
	fmt.Println("Vault unlocked.")
	return nil
}

// ChangePassword rotates the master password. On success the session is
// invalidated and the user must log in again with the new password.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := getPassword("Enter current master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword("Enter new master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	confirm, err := getPassword("Repeat new master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(next) != string(confirm) {
		return fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}

	if err := a.session.ChangeMasterPassword(ctx, current, next); err != nil {
		return err
	}

	fmt.Println("Master password changed. Please log in again.")
	return nil
}

// Settings shows the current security settings and updates them from user
// input. Empty answers keep the current value.
func (a *App) Settings(ctx context.Context) error {
	cur := a.session.CurrentSettings()
	fmt.Printf("Session timeout: %s, clipboard clear delay: %s\n", cur.SessionTimeout, cur.ClipboardClearAfter)

	timeout, err := getSimpleText(a.reader, "Enter session timeout (e.g. 15m, empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	clear, err := getSimpleText(a.reader, "Enter clipboard clear delay (e.g. 30s, empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	next := cur
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("%w: invalid session timeout", common.ErrValidation)
		}
		next.SessionTimeout = d
	}
	if clear != "" {
		d, err := time.ParseDuration(clear)
		if err != nil {
			return fmt.Errorf("%w: invalid clipboard clear delay", common.ErrValidation)
		}
		next.ClipboardClearAfter = d
	}

	if err := a.session.UpdateSecuritySettings(ctx, next); err != nil {
		return err
	}
	fmt.Println("Settings updated.")
	return nil
}

// Logout destroys the session entirely.
func (a *App) Logout(ctx context.Context) error {
	a.session.SignOut()
	a.email = ""
	fmt.Println("Signed out.")
	return nil
}
