// Package backup snapshots a user's full ledger (wallets, transactions,
// conversation) into a JSON object on Google Cloud Storage and restores it
// into an empty store.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/store"
)

// Snapshot is the serialized backup payload.
type Snapshot struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	Wallets      []*domain.Wallet      `json:"wallets"`
	Transactions []*domain.Transaction `json:"transactions"`
	Messages     []*domain.Message     `json:"messages"`
}

// TakeSnapshot reads the user's full state from the store. Trashed wallets
// are included so a restore brings the trash back too.
func TakeSnapshot(ctx context.Context, st store.Store, userID string) (*Snapshot, error) {
	wallets, err := st.ListWallets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing wallets: %w", err)
	}
	trash, err := st.ListTrash(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing trash: %w", err)
	}
	wallets = append(wallets, trash...)

	snap := &Snapshot{
		UserID:    userID,
		CreatedAt: time.Now(),
		Wallets:   wallets,
	}

	for _, w := range wallets {
		txns, err := st.ListTransactions(ctx, userID, w.ID)
		if err != nil {
			return nil, fmt.Errorf("snapshot: listing transactions of %s: %w", w.ID, err)
		}
		snap.Transactions = append(snap.Transactions, txns...)
	}

	msgs, err := st.ListMessages(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing messages: %w", err)
	}
	snap.Messages = msgs

	return snap, nil
}

// Upload writes a snapshot as JSON to gs://bucket/object.
// It assumes Application Default Credentials are configured.
func Upload(ctx context.Context, bucketName, objectName string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write snapshot to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Download fetches and decodes a snapshot from gs://bucket/object.
func Download(ctx context.Context, bucketName, objectName string) (*Snapshot, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open snapshot reader %s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()

	var snap Snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore replays a snapshot into the store. Wallet balances are written as
// captured, so transactions are inserted without re-applying their amounts.
// The target user must have no wallets yet.
func Restore(ctx context.Context, st store.Store, snap *Snapshot) error {
	existing, err := st.ListWallets(ctx, snap.UserID)
	if err != nil {
		return fmt.Errorf("restore: listing wallets: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("restore: user %s already has wallets", snap.UserID)
	}

	byWallet := make(map[string][]*domain.Transaction)
	for _, t := range snap.Transactions {
		byWallet[t.WalletID] = append(byWallet[t.WalletID], t)
	}

	for _, w := range snap.Wallets {
		// Start from the pre-transaction balance; replaying the ledger brings
		// it back to the captured value.
		restored := *w
		restored.Deleted = false
		for _, t := range byWallet[w.ID] {
			restored.Balance -= t.SignedAmount()
		}
		if err := st.CreateWallet(ctx, snap.UserID, &restored); err != nil {
			return fmt.Errorf("restore: creating wallet %s: %w", w.Name, err)
		}
		for _, t := range byWallet[w.ID] {
			if _, err := st.ApplyTransaction(ctx, snap.UserID, t); err != nil {
				return fmt.Errorf("restore: applying transaction %s: %w", t.ID, err)
			}
		}
		if w.Deleted {
			if err := st.SetWalletDeleted(ctx, snap.UserID, w.ID, true); err != nil {
				return fmt.Errorf("restore: trashing wallet %s: %w", w.Name, err)
			}
		}
	}

	for _, m := range snap.Messages {
		if err := st.AppendMessage(ctx, snap.UserID, m); err != nil {
			return fmt.Errorf("restore: appending message %s: %w", m.ID, err)
		}
	}
	return nil
}
