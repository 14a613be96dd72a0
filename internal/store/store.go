// Package store defines the document-store contract the engine runs against.
//
// The remote store is a per-user collection of wallets, transactions and
// conversation messages. Implementations must provide one atomic
// read-modify-write primitive (ApplyTransaction / ReverseTransaction) so that
// a wallet-balance mutation and the corresponding transaction insert can never
// be torn apart by a racing writer.
package store

import (
	"context"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

// WalletStore provides typed access to a user's wallets.
type WalletStore interface {
	// CreateWallet inserts a wallet. The uniqueness check against the user's
	// non-deleted wallets happens inside the same atomic unit as the insert;
	// a collision returns domain.ErrWalletExists.
	CreateWallet(ctx context.Context, userID string, w *domain.Wallet) error

	// GetWalletByName returns the non-deleted wallet with the exact name, or
	// a *domain.WalletNotFoundError.
	GetWalletByName(ctx context.Context, userID, name string) (*domain.Wallet, error)

	// ListWallets returns the user's non-deleted wallets in creation order.
	ListWallets(ctx context.Context, userID string) ([]*domain.Wallet, error)

	// ListTrash returns the user's soft-deleted wallets.
	ListTrash(ctx context.Context, userID string) ([]*domain.Wallet, error)

	// UpdateWallet overwrites name, balance and expense threshold of an
	// existing wallet; every other field is left untouched. A rename that
	// collides with another of the user's non-deleted wallets returns
	// domain.ErrWalletExists, checked inside the same atomic unit as the
	// write. This is the manual-override path; it bypasses the transaction
	// log.
	UpdateWallet(ctx context.Context, userID string, w *domain.Wallet) error

	// SetWalletDeleted moves a wallet into or out of the trash.
	SetWalletDeleted(ctx context.Context, userID, walletID string, deleted bool) error

	// WatchWallets streams the user's non-deleted wallet list whenever it
	// changes. The channel is closed when ctx is cancelled.
	WatchWallets(ctx context.Context, userID string) (<-chan []*domain.Wallet, error)
}

// TransactionStore provides typed access to a user's transactions.
type TransactionStore interface {
	// ApplyTransaction atomically inserts tx and applies its signed amount to
	// the owning wallet's balance. It returns the balance after the write.
	ApplyTransaction(ctx context.Context, userID string, tx *domain.Transaction) (newBalance float64, err error)

	// ReverseTransaction atomically deletes a transaction and reverses its
	// effect on the owning wallet's balance.
	ReverseTransaction(ctx context.Context, userID, walletID, txID string) error

	// ListTransactions returns all transactions of one wallet.
	ListTransactions(ctx context.Context, userID, walletID string) ([]*domain.Transaction, error)
}

// MessageStore persists the append-only conversation history.
type MessageStore interface {
	// AppendMessage persists one conversation message.
	AppendMessage(ctx context.Context, userID string, m *domain.Message) error

	// ListMessages returns the most recent limit messages in chronological
	// order (oldest first). limit <= 0 returns everything.
	ListMessages(ctx context.Context, userID string, limit int) ([]*domain.Message, error)
}

// Store is the full per-user document store the engine depends on.
type Store interface {
	WalletStore
	TransactionStore
	MessageStore
}
