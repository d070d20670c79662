package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isAuthenticated() bool
	isUnlocked() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Search(ctx context.Context) error
	Delete(ctx context.Context) error
	Copy(ctx context.Context) error
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Settings(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the credvault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not signed in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate and unlock the vault
//	  - exit | quit    — leave the program
//
//	Signed in, vault locked:
//	  - unlock         — restore vault access with the master password
//	  - logout         — sign out entirely
//
//	Signed in, vault unlocked:
//	  - add            — add a credential
//	  - list           — list credentials (metadata only)
//	  - show           — show a single credential (interactive ID prompt)
//	  - search         — search credentials by metadata
//	  - copy           — copy a credential's password to the clipboard
//	  - delete         — delete a credential
//	  - lock           — purge the vault key from memory
//	  - passwd         — change the master password
//	  - settings       — view and change session timeout and clipboard delay
//	  - logout         — sign out entirely
//
// Any errors returned by command handlers are reported to the user here, not
// logged by the handlers. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	report := func(err error) {
		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}

	for {
		printlnFn(fmt.Sprintf("cv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			switch {
			case a.isUnlocked():
				printlnFn("Available commands: add, (l)ist, show, search, copy, delete, lock, passwd, settings, logout, exit")
			case a.isAuthenticated():
				printlnFn("Available commands: unlock, logout, exit")
			default:
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "add":
			report(a.Add(ctx))

		case "l", "list":
			report(a.List(ctx))

		case "show":
			report(a.Show(ctx))

		case "search":
			report(a.Search(ctx))

		case "copy":
			report(a.Copy(ctx))

		case "delete":
			report(a.Delete(ctx))

		case "lock":
			report(a.Lock(ctx))

		case "unlock":
			report(a.Unlock(ctx))

		case "passwd":
			report(a.ChangePassword(ctx))

		case "settings":
			report(a.Settings(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
