package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

// Direct wallet and transaction operations, used by the HTTP API rather than
// the conversational path. They share the store and validation rules with the
// command handlers.

// Wallets returns the user's active wallets.
func (s *Service) Wallets(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.store.ListWallets(ctx, userID)
}

// Trash returns the user's soft-deleted wallets.
func (s *Service) Trash(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.store.ListTrash(ctx, userID)
}

// EditWallet overwrites a wallet's name, balance and expense threshold.
// This is the manual-override path; it does not write a transaction.
func (s *Service) EditWallet(ctx context.Context, userID string, w *domain.Wallet) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if strings.TrimSpace(w.Name) == "" {
		return &domain.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if err := s.store.UpdateWallet(ctx, userID, w); err != nil {
		if errors.Is(err, domain.ErrWalletExists) {
			return &domain.ValidationError{Field: "name", Reason: "a wallet with this name already exists"}
		}
		return err
	}
	s.log.Info().Str("user_id", userID).Str("wallet_id", w.ID).Msg("Wallet updated")
	return nil
}

// MoveWalletToTrash soft-deletes a wallet. Its transactions stay intact and
// come back on restore.
func (s *Service) MoveWalletToTrash(ctx context.Context, userID, walletID string) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.store.SetWalletDeleted(ctx, userID, walletID, true); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("wallet_id", walletID).Msg("Wallet moved to trash")
	return nil
}

// RestoreWallet brings a wallet back from the trash.
func (s *Service) RestoreWallet(ctx context.Context, userID, walletID string) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.store.SetWalletDeleted(ctx, userID, walletID, false); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("wallet_id", walletID).Msg("Wallet restored")
	return nil
}

// WalletTransactions lists one wallet's transactions.
func (s *Service) WalletTransactions(ctx context.Context, userID, walletID string) ([]*domain.Transaction, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.store.ListTransactions(ctx, userID, walletID)
}

// DeleteTransaction removes a transaction and reverses its effect on the
// owning wallet's balance in the same atomic unit.
func (s *Service) DeleteTransaction(ctx context.Context, userID, walletID, txID string) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.store.ReverseTransaction(ctx, userID, walletID, txID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("wallet_id", walletID).Str("transaction_id", txID).Msg("Transaction deleted")
	return nil
}
