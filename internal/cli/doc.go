// Package cli provides the interactive credvault command-line client.
//
// It wires configuration, the local encrypted vault store and an interactive
// REPL. Typical flow: register or log in with the master password, then manage
// credentials while the vault is unlocked.
//
// Key features:
//   - Register / Login / Logout, plus Lock and Unlock for short absences
//   - Add, List, Show, Search and Delete credentials
//   - Copy a password to the clipboard with an automatic timed clear
//   - Master password change (passwd) with O(1) vault-key re-wrap
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
