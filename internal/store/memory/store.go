// Package memory is an in-memory implementation of the document store.
// It is safe for concurrent use and is the backend used by tests and by the
// CLI when no Firestore project is configured. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/store"
)

type userData struct {
	wallets      []*domain.Wallet
	transactions map[string][]*domain.Transaction // walletID -> entries
	messages     []*domain.Message
}

// Store holds all users' data behind a single mutex. The mutex is what makes
// ApplyTransaction a genuine read-modify-write: two racing additions to the
// same wallet serialize instead of losing an update.
type Store struct {
	mu       sync.Mutex
	users    map[string]*userData
	watchers map[string][]chan []*domain.Wallet
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*userData),
		watchers: make(map[string][]chan []*domain.Wallet),
	}
}

func (s *Store) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{transactions: make(map[string][]*domain.Transaction)}
		s.users[userID] = u
	}
	return u
}

// CreateWallet implements store.WalletStore. The duplicate-name check and the
// insert happen under the same lock.
func (s *Store) CreateWallet(ctx context.Context, userID string, w *domain.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	for _, existing := range u.wallets {
		if !existing.Deleted && existing.Name == w.Name {
			return domain.ErrWalletExists
		}
	}

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	cp := *w
	u.wallets = append(u.wallets, &cp)
	s.notifyLocked(userID)
	return nil
}

// GetWalletByName implements store.WalletStore.
func (s *Store) GetWalletByName(ctx context.Context, userID, name string) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.user(userID).wallets {
		if !w.Deleted && w.Name == name {
			cp := *w
			return &cp, nil
		}
	}
	return nil, &domain.WalletNotFoundError{Name: name}
}

// ListWallets implements store.WalletStore.
func (s *Store) ListWallets(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listWalletsLocked(userID, false), nil
}

// ListTrash implements store.WalletStore.
func (s *Store) ListTrash(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listWalletsLocked(userID, true), nil
}

func (s *Store) listWalletsLocked(userID string, deleted bool) []*domain.Wallet {
	var result []*domain.Wallet
	for _, w := range s.user(userID).wallets {
		if w.Deleted == deleted {
			cp := *w
			result = append(result, &cp)
		}
	}
	// Insertion order already matches creation order; sort keeps it stable
	// even after restores.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// UpdateWallet implements store.WalletStore. Only name, balance and the
// expense threshold are overwritten; the rename is checked against the user's
// other live wallets under the same lock.
func (s *Store) UpdateWallet(ctx context.Context, userID string, w *domain.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *domain.Wallet
	for _, existing := range s.user(userID).wallets {
		if existing.ID == w.ID {
			target = existing
			continue
		}
		if !existing.Deleted && existing.Name == w.Name {
			return domain.ErrWalletExists
		}
	}
	if target == nil {
		return &domain.WalletNotFoundError{Name: w.Name}
	}

	target.Name = w.Name
	target.Balance = w.Balance
	target.ExpenseThreshold = w.ExpenseThreshold
	s.notifyLocked(userID)
	return nil
}

// SetWalletDeleted implements store.WalletStore.
func (s *Store) SetWalletDeleted(ctx context.Context, userID, walletID string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.user(userID).wallets {
		if w.ID == walletID {
			w.Deleted = deleted
			s.notifyLocked(userID)
			return nil
		}
	}
	return &domain.WalletNotFoundError{Name: walletID}
}

// ApplyTransaction implements store.TransactionStore.
func (s *Store) ApplyTransaction(ctx context.Context, userID string, tx *domain.Transaction) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	for _, w := range u.wallets {
		if w.ID == tx.WalletID && !w.Deleted {
			if tx.ID == "" {
				tx.ID = uuid.NewString()
			}
			cp := *tx
			u.transactions[w.ID] = append(u.transactions[w.ID], &cp)
			w.Balance += tx.SignedAmount()
			s.notifyLocked(userID)
			return w.Balance, nil
		}
	}
	return 0, &domain.WalletNotFoundError{Name: tx.WalletID}
}

// ReverseTransaction implements store.TransactionStore.
func (s *Store) ReverseTransaction(ctx context.Context, userID, walletID, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	entries := u.transactions[walletID]
	for i, tx := range entries {
		if tx.ID != txID {
			continue
		}
		for _, w := range u.wallets {
			if w.ID == walletID {
				w.Balance -= tx.SignedAmount()
				u.transactions[walletID] = append(entries[:i], entries[i+1:]...)
				s.notifyLocked(userID)
				return nil
			}
		}
		return &domain.WalletNotFoundError{Name: walletID}
	}
	return &domain.WalletNotFoundError{Name: txID}
}

// ListTransactions implements store.TransactionStore.
func (s *Store) ListTransactions(ctx context.Context, userID, walletID string) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Transaction
	for _, tx := range s.user(userID).transactions[walletID] {
		cp := *tx
		result = append(result, &cp)
	}
	return result, nil
}

// AppendMessage implements store.MessageStore.
func (s *Store) AppendMessage(ctx context.Context, userID string, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.user(userID).messages = append(s.user(userID).messages, &cp)
	return nil
}

// ListMessages implements store.MessageStore.
func (s *Store) ListMessages(ctx context.Context, userID string, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.user(userID).messages
	sorted := make([]*domain.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}

	result := make([]*domain.Message, 0, len(sorted))
	for _, m := range sorted {
		cp := *m
		result = append(result, &cp)
	}
	return result, nil
}

// WatchWallets implements store.WalletStore. Each subscriber gets the current
// wallet list immediately and a fresh snapshot after every mutation. Slow
// subscribers drop intermediate snapshots rather than block writers.
func (s *Store) WatchWallets(ctx context.Context, userID string) (<-chan []*domain.Wallet, error) {
	ch := make(chan []*domain.Wallet, 1)

	s.mu.Lock()
	s.watchers[userID] = append(s.watchers[userID], ch)
	ch <- s.listWalletsLocked(userID, false)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.watchers[userID]
		for i, sub := range subs {
			if sub == ch {
				s.watchers[userID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

func (s *Store) notifyLocked(userID string) {
	subs := s.watchers[userID]
	if len(subs) == 0 {
		return
	}
	snapshot := s.listWalletsLocked(userID, false)
	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot waiting in the buffer, then retry once
			// so the subscriber always ends up with the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// Ensure Store implements the full store interface.
var _ store.Store = (*Store)(nil)
