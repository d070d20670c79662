package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/credvault/credvault/internal/models"
)

// Add collects credential fields interactively and stores the record with
// every secret field encrypted.
func (a *App) Add(ctx context.Context) error {
	key, err := a.session.VaultKey()
	if err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getSimpleText(a.reader, "Enter password", os.Stdout)
	if err != nil {
		return err
	}
	url, err := getSimpleText(a.reader, "Enter URL", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Enter category (login, card, note, general)", os.Stdout)
	if err != nil {
		return err
	}
	tagLine, err := getSimpleText(a.reader, "Enter tags (comma-separated)", os.Stdout)
	if err != nil {
		return err
	}
	notes, err := GetMultiline(a.reader, "Enter notes (double Enter to finish):", os.Stdout)
	if err != nil {
		return err
	}

	created, err := a.creds.Create(ctx, a.session.CurrentUserID(), models.CredentialInput{
		Title:    title,
		Username: username,
		Password: password,
		URL:      url,
		Category: models.Category(category),
		Tags:     splitTags(tagLine),
		Notes:    notes,
	}, key)
	if err != nil {
		return err
	}

	fmt.Println("Saved:", created.ID)
	return nil
}

func splitTags(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	parts := strings.Split(line, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// List prints a metadata overview for each stored credential. No secret is
// decrypted.
func (a *App) List(ctx context.Context) error {
	rows, err := a.creds.List(ctx, a.session.CurrentUserID())
	if err != nil {
		return err
	}
	for _, item := range rows {
		printOverview(item)
	}
	return nil
}

func printOverview(o models.Overview) {
	marker := " "
	if o.Favorite {
		marker = "*"
	}
	line := fmt.Sprintf("%s %s  %s", marker, o.ID, o.Title)
	if o.Username != "" {
		line += "  (" + o.Username + ")"
	}
	if len(o.Tags) > 0 {
		line += "  [" + strings.Join(o.Tags, ", ") + "]"
	}
	fmt.Println(line)
}

// Show fetches and displays a single credential by ID, decrypting its secret
// fields. Fields that fail to decrypt are reported by name.
func (a *App) Show(ctx context.Context) error {
	key, err := a.session.VaultKey()
	if err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Enter record id to show", os.Stdout)
	if err != nil {
		return err
	}

	item, err := a.creds.Get(ctx, a.session.CurrentUserID(), id, key)
	if err != nil {
		return err
	}

	fmt.Println("Title:", item.Title)
	fmt.Println("Username:", item.Username)
	fmt.Println("Password:", item.Password)
	fmt.Println("URL:", item.URL)
	fmt.Println("Category:", item.Category)
	if len(item.Tags) > 0 {
		fmt.Println("Tags:", strings.Join(item.Tags, ", "))
	}
	if item.Notes != "" {
		fmt.Println("Notes:", item.Notes)
	}
	if len(item.Undecryptable) > 0 {
		fmt.Println("Warning: fields could not be decrypted:", strings.Join(item.Undecryptable, ", "))
	}
	return nil
}

// Search filters credentials by metadata and prints the matches.
func (a *App) Search(ctx context.Context) error {
	key, err := a.session.VaultKey()
	if err != nil {
		return err
	}

	query, err := getSimpleText(a.reader, "Enter search text", os.Stdout)
	if err != nil {
		return err
	}

	rows, err := a.creds.Search(ctx, a.session.CurrentUserID(), query, key)
	if err != nil {
		return err
	}
	for _, item := range rows {
		fmt.Printf("%s  %s  (%s)\n", item.ID, item.Title, item.Username)
	}
	return nil
}

// Delete removes a credential by its identifier, prompting the user for the ID.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter record id to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.creds.Delete(ctx, a.session.CurrentUserID(), id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

// Copy places a credential's password on the system clipboard and schedules
// the clipboard to be cleared after the configured delay.
func (a *App) Copy(ctx context.Context) error {
	key, err := a.session.VaultKey()
	if err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Enter record id to copy", os.Stdout)
	if err != nil {
		return err
	}

	item, err := a.creds.Get(ctx, a.session.CurrentUserID(), id, key)
	if err != nil {
		return err
	}
	if item.Password == "" {
		return fmt.Errorf("credential %s has no password to copy", id)
	}

	// clear delay comes from the user's persisted security settings
	clearAfter := a.session.CurrentSettings().ClipboardClearAfter
	if err := copyToClipboard(item.Password, clearAfter); err != nil {
		return err
	}

	fmt.Printf("Password copied. Clipboard clears in %s.\n", clearAfter)
	return nil
}
