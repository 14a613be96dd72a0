package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by the command handlers and the session.
// Every failure is converted to a single user-facing chat message at the
// session boundary; none propagate as raw errors to the caller of Submit.
var (
	// ErrNotAuthenticated means no stable user identity is available.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoWallet means the user has no wallet at all; the user must be
	// prompted to create one first. Ambiguity never auto-creates a wallet.
	ErrNoWallet = errors.New("no wallet available")

	// ErrWalletExists is returned when creating a wallet whose name collides
	// with an existing non-deleted wallet of the same user.
	ErrWalletExists = errors.New("wallet already exists")

	// ErrStoreUnavailable wraps transient document-store failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrModelUnavailable wraps model call failures (network, timeout).
	ErrModelUnavailable = errors.New("model unavailable")
)

// ValidationError reports a bad command field. It is user-facing and specific.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// WalletNotFoundError reports that a wallet referenced by name does not exist
// for the user.
type WalletNotFoundError struct {
	Name string
}

func (e *WalletNotFoundError) Error() string {
	return fmt.Sprintf("wallet %q not found", e.Name)
}
