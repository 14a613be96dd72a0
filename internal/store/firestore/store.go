// Package firestore backs the document store with Cloud Firestore.
//
// Layout mirrors the mobile app's collections:
//
//	users/{uid}/wallets/{walletID}
//	users/{uid}/wallets/{walletID}/transactions/{txID}
//	users/{uid}/chat/{messageID}
//
// Message documents are keyed by ULID, so ordering by document ID replays the
// conversation chronologically.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/store"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store is a Firestore-backed implementation of store.Store.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed store for the given project.
// It assumes Application Default Credentials unless opts override them.
func NewStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) walletsColl(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("wallets")
}

func (s *Store) chatColl(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("chat")
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

// CreateWallet implements store.WalletStore. The duplicate-name query and the
// insert run inside one Firestore transaction, so two racing creates with the
// same name cannot both succeed.
func (s *Store) CreateWallet(ctx context.Context, userID string, w *domain.Wallet) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	coll := s.walletsColl(userID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := coll.Where("name", "==", w.Name).Where("deleted", "==", false).Limit(1)
		it := tx.Documents(query)
		defer it.Stop()
		if _, err := it.Next(); err != iterator.Done {
			if err == nil {
				return domain.ErrWalletExists
			}
			return err
		}
		return tx.Create(coll.Doc(w.ID), w)
	})
	if err == domain.ErrWalletExists {
		return err
	}
	if err != nil {
		return storeErr("create wallet", err)
	}
	return nil
}

// GetWalletByName implements store.WalletStore.
func (s *Store) GetWalletByName(ctx context.Context, userID, name string) (*domain.Wallet, error) {
	query := s.walletsColl(userID).Where("name", "==", name).Where("deleted", "==", false).Limit(1)
	it := query.Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, &domain.WalletNotFoundError{Name: name}
	}
	if err != nil {
		return nil, storeErr("get wallet", err)
	}

	var w domain.Wallet
	if err := snap.DataTo(&w); err != nil {
		return nil, storeErr("decode wallet", err)
	}
	return &w, nil
}

// ListWallets implements store.WalletStore.
func (s *Store) ListWallets(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	return s.listWallets(ctx, userID, false)
}

// ListTrash implements store.WalletStore.
func (s *Store) ListTrash(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	return s.listWallets(ctx, userID, true)
}

func (s *Store) listWallets(ctx context.Context, userID string, deleted bool) ([]*domain.Wallet, error) {
	query := s.walletsColl(userID).
		Where("deleted", "==", deleted).
		OrderBy("created_at", firestore.Asc)
	it := query.Documents(ctx)
	defer it.Stop()

	var result []*domain.Wallet
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("list wallets", err)
		}
		var w domain.Wallet
		if err := snap.DataTo(&w); err != nil {
			return nil, storeErr("decode wallet", err)
		}
		result = append(result, &w)
	}
	return result, nil
}

// UpdateWallet implements store.WalletStore. Only name, balance and the
// expense threshold are overwritten. The rename is validated against the
// user's other live wallets inside the same transaction, so a racing create
// or rename cannot slip a second live wallet with the same name past it.
func (s *Store) UpdateWallet(ctx context.Context, userID string, w *domain.Wallet) error {
	coll := s.walletsColl(userID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := coll.Where("name", "==", w.Name).Where("deleted", "==", false).Limit(2)
		it := tx.Documents(query)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return err
			}
			if snap.Ref.ID != w.ID {
				return domain.ErrWalletExists
			}
		}
		return tx.Update(coll.Doc(w.ID), []firestore.Update{
			{Path: "name", Value: w.Name},
			{Path: "balance", Value: w.Balance},
			{Path: "expense_threshold", Value: w.ExpenseThreshold},
		})
	})
	if err == domain.ErrWalletExists {
		return err
	}
	if status.Code(err) == codes.NotFound {
		return &domain.WalletNotFoundError{Name: w.Name}
	}
	if err != nil {
		return storeErr("update wallet", err)
	}
	return nil
}

// SetWalletDeleted implements store.WalletStore.
func (s *Store) SetWalletDeleted(ctx context.Context, userID, walletID string, deleted bool) error {
	_, err := s.walletsColl(userID).Doc(walletID).Update(ctx, []firestore.Update{
		{Path: "deleted", Value: deleted},
	})
	if status.Code(err) == codes.NotFound {
		return &domain.WalletNotFoundError{Name: walletID}
	}
	if err != nil {
		return storeErr("set wallet deleted", err)
	}
	return nil
}

// ApplyTransaction implements store.TransactionStore. The wallet read, the
// transaction insert and the balance update run as one Firestore transaction.
func (s *Store) ApplyTransaction(ctx context.Context, userID string, txn *domain.Transaction) (float64, error) {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	walletRef := s.walletsColl(userID).Doc(txn.WalletID)
	txRef := walletRef.Collection("transactions").Doc(txn.ID)

	var newBalance float64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(walletRef)
		if err != nil {
			return err
		}
		var w domain.Wallet
		if err := snap.DataTo(&w); err != nil {
			return err
		}
		newBalance = w.Balance + txn.SignedAmount()
		if err := tx.Create(txRef, txn); err != nil {
			return err
		}
		return tx.Update(walletRef, []firestore.Update{
			{Path: "balance", Value: newBalance},
		})
	})
	if status.Code(err) == codes.NotFound {
		return 0, &domain.WalletNotFoundError{Name: txn.WalletID}
	}
	if err != nil {
		return 0, storeErr("apply transaction", err)
	}
	return newBalance, nil
}

// ReverseTransaction implements store.TransactionStore.
func (s *Store) ReverseTransaction(ctx context.Context, userID, walletID, txID string) error {
	walletRef := s.walletsColl(userID).Doc(walletID)
	txRef := walletRef.Collection("transactions").Doc(txID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		walletSnap, err := tx.Get(walletRef)
		if err != nil {
			return err
		}
		txSnap, err := tx.Get(txRef)
		if err != nil {
			return err
		}

		var w domain.Wallet
		if err := walletSnap.DataTo(&w); err != nil {
			return err
		}
		var txn domain.Transaction
		if err := txSnap.DataTo(&txn); err != nil {
			return err
		}

		if err := tx.Delete(txRef); err != nil {
			return err
		}
		return tx.Update(walletRef, []firestore.Update{
			{Path: "balance", Value: w.Balance - txn.SignedAmount()},
		})
	})
	if status.Code(err) == codes.NotFound {
		return &domain.WalletNotFoundError{Name: txID}
	}
	if err != nil {
		return storeErr("reverse transaction", err)
	}
	return nil
}

// ListTransactions implements store.TransactionStore.
func (s *Store) ListTransactions(ctx context.Context, userID, walletID string) ([]*domain.Transaction, error) {
	it := s.walletsColl(userID).Doc(walletID).Collection("transactions").Documents(ctx)
	defer it.Stop()

	var result []*domain.Transaction
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("list transactions", err)
		}
		var txn domain.Transaction
		if err := snap.DataTo(&txn); err != nil {
			return nil, storeErr("decode transaction", err)
		}
		result = append(result, &txn)
	}
	return result, nil
}

// AppendMessage implements store.MessageStore.
func (s *Store) AppendMessage(ctx context.Context, userID string, m *domain.Message) error {
	_, err := s.chatColl(userID).Doc(m.ID).Create(ctx, m)
	if err != nil {
		return storeErr("append message", err)
	}
	return nil
}

// ListMessages implements store.MessageStore. Messages are fetched newest
// first by document ID and reversed so the caller sees chronological order.
func (s *Store) ListMessages(ctx context.Context, userID string, limit int) ([]*domain.Message, error) {
	query := s.chatColl(userID).OrderBy(firestore.DocumentID, firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	it := query.Documents(ctx)
	defer it.Stop()

	var newestFirst []*domain.Message
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("list messages", err)
		}
		var m domain.Message
		if err := snap.DataTo(&m); err != nil {
			return nil, storeErr("decode message", err)
		}
		newestFirst = append(newestFirst, &m)
	}

	result := make([]*domain.Message, len(newestFirst))
	for i, m := range newestFirst {
		result[len(newestFirst)-1-i] = m
	}
	return result, nil
}

// WatchWallets implements store.WalletStore using Firestore snapshot listeners.
func (s *Store) WatchWallets(ctx context.Context, userID string) (<-chan []*domain.Wallet, error) {
	query := s.walletsColl(userID).
		Where("deleted", "==", false).
		OrderBy("created_at", firestore.Asc)

	snapIt := query.Snapshots(ctx)
	ch := make(chan []*domain.Wallet, 1)

	go func() {
		defer close(ch)
		defer snapIt.Stop()
		for {
			qsnap, err := snapIt.Next()
			if err != nil {
				return
			}
			var wallets []*domain.Wallet
			docs := qsnap.Documents
			for {
				snap, err := docs.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return
				}
				var w domain.Wallet
				if err := snap.DataTo(&w); err != nil {
					continue
				}
				wallets = append(wallets, &w)
			}
			select {
			case ch <- wallets:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Ensure Store implements the full store interface.
var _ store.Store = (*Store)(nil)
