// Package session implements the admin login gate.
//
// The gate is cosmetic: the default secret ships with the application and
// the durable flag lives wherever the visitor's local storage lives. It
// decides whether the editor is shown, nothing more. CredentialChecker is
// the seam for replacing the secret comparison with real authentication.
package session

import (
	"errors"
	"fmt"
)

// State is the gate's login state.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

const (
	// FlagKey is the durable storage key marking an authenticated admin.
	FlagKey = "adminAuthenticated"
	// DefaultPassword is the built-in admin secret.
	DefaultPassword = "admin123"

	flagTrue = "true"
)

// WrongPasswordMessage is shown in the login prompt after a mismatch.
const WrongPasswordMessage = "Contraseña incorrecta"

// ErrLocked is returned when an admin-only operation runs while logged out.
var ErrLocked = errors.New("admin login required")

// Gate tracks login state, the login prompt and its inline error.
// Memory is authoritative within a process; the FlagStore is authoritative
// across restarts.
type Gate struct {
	checker    CredentialChecker
	flags      FlagStore
	state      State
	promptOpen bool
	errMsg     string
}

// NewGate restores the login state from flags. A read error leaves the
// gate logged out and is returned alongside the usable gate.
func NewGate(checker CredentialChecker, flags FlagStore) (*Gate, error) {
	g := &Gate{checker: checker, flags: flags}

	v, ok, err := flags.Get(FlagKey)
	if err != nil {
		return g, fmt.Errorf("reading session flag: %w", err)
	}
	if ok && v == flagTrue {
		g.state = LoggedIn
	}
	return g, nil
}

// State returns the current login state.
func (g *Gate) State() State { return g.state }

// LoggedIn reports whether the admin has passed the challenge.
func (g *Gate) LoggedIn() bool { return g.state == LoggedIn }

// PromptOpen reports whether the login prompt is showing.
func (g *Gate) PromptOpen() bool { return g.promptOpen }

// Error returns the inline prompt error, if any.
func (g *Gate) Error() string { return g.errMsg }

// OpenPrompt shows the login prompt.
func (g *Gate) OpenPrompt() { g.promptOpen = true }

// CancelPrompt hides the prompt and clears its error.
func (g *Gate) CancelPrompt() {
	g.promptOpen = false
	g.errMsg = ""
}

// Challenge checks secret. On a match the gate logs in, persists the flag
// and closes the prompt. On a mismatch it stays logged out and records the
// inline error, which persists until the next attempt or a cancel.
// The returned error only reports a failure to persist the flag; the
// in-memory login still holds.
func (g *Gate) Challenge(secret string) (bool, error) {
	if !g.checker.Check(secret) {
		g.errMsg = WrongPasswordMessage
		return false, nil
	}

	g.state = LoggedIn
	g.promptOpen = false
	g.errMsg = ""

	if err := g.flags.Set(FlagKey, flagTrue); err != nil {
		return true, fmt.Errorf("persisting session flag: %w", err)
	}
	return true, nil
}

// Logout clears the login state and the durable flag.
func (g *Gate) Logout() error {
	g.state = LoggedOut
	g.promptOpen = false
	g.errMsg = ""

	if err := g.flags.Delete(FlagKey); err != nil {
		return fmt.Errorf("clearing session flag: %w", err)
	}
	return nil
}
