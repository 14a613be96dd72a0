package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

func TestCreateWallet_DuplicateName(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{Name: "Momo"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := st.CreateWallet(ctx, "u1", &domain.Wallet{Name: "Momo"})
	if !errors.Is(err, domain.ErrWalletExists) {
		t.Fatalf("expected ErrWalletExists, got %v", err)
	}

	// Another user can reuse the name.
	if err := st.CreateWallet(ctx, "u2", &domain.Wallet{Name: "Momo"}); err != nil {
		t.Errorf("other user must not collide: %v", err)
	}
}

func TestCreateWallet_TrashedNameIsFree(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	w := &domain.Wallet{ID: "w1", Name: "Momo"}
	if err := st.CreateWallet(ctx, "u1", w); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.SetWalletDeleted(ctx, "u1", "w1", true); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{Name: "Momo"}); err != nil {
		t.Errorf("trashed wallet must free its name: %v", err)
	}
}

func TestUpdateWallet_OnlyOverwritesContractFields(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	threshold := 50000.0
	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo", Currency: "VND"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.SetWalletDeleted(ctx, "u1", "w1", true); err != nil {
		t.Fatalf("trash: %v", err)
	}

	if err := st.UpdateWallet(ctx, "u1", &domain.Wallet{
		ID: "w1", Name: "Ví chính", Balance: 120000, ExpenseThreshold: &threshold,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	trash, _ := st.ListTrash(ctx, "u1")
	if len(trash) != 1 {
		t.Fatalf("update must not pull a wallet out of the trash, trash = %+v", trash)
	}
	w := trash[0]
	if w.Name != "Ví chính" || w.Balance != 120000 || w.ExpenseThreshold == nil || *w.ExpenseThreshold != threshold {
		t.Errorf("update did not apply: %+v", w)
	}
	if w.Currency != "VND" {
		t.Errorf("update must preserve currency, got %q", w.Currency)
	}
}

func TestUpdateWallet_DuplicateName(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w2", Name: "Tiền mặt"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := st.UpdateWallet(ctx, "u1", &domain.Wallet{ID: "w2", Name: "Momo"})
	if !errors.Is(err, domain.ErrWalletExists) {
		t.Fatalf("expected ErrWalletExists on rename collision, got %v", err)
	}
	if w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt"); w == nil {
		t.Error("rejected rename must leave the wallet unchanged")
	}

	// Renaming a wallet to its own name is not a collision.
	if err := st.UpdateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo", Balance: 5000}); err != nil {
		t.Errorf("same-name update must succeed: %v", err)
	}
}

func TestApplyTransaction_Concurrent(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.ApplyTransaction(ctx, "u1", &domain.Transaction{
				ID:       fmt.Sprintf("t%d", i),
				WalletID: "w1",
				Type:     domain.TypeIncome,
				Amount:   1,
			})
			if err != nil {
				t.Errorf("apply %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	w, err := st.GetWalletByName(ctx, "u1", "Momo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w.Balance != n {
		t.Errorf("expected balance %d, got %v", n, w.Balance)
	}
	txns, _ := st.ListTransactions(ctx, "u1", "w1")
	if len(txns) != n {
		t.Errorf("expected %d transactions, got %d", n, len(txns))
	}
}

func TestApplyTransaction_TrashedWallet(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.SetWalletDeleted(ctx, "u1", "w1", true); err != nil {
		t.Fatalf("trash: %v", err)
	}

	_, err := st.ApplyTransaction(ctx, "u1", &domain.Transaction{WalletID: "w1", Type: domain.TypeIncome, Amount: 1})
	var wnf *domain.WalletNotFoundError
	if !errors.As(err, &wnf) {
		t.Fatalf("expected WalletNotFoundError for trashed wallet, got %v", err)
	}
}

func TestReverseTransaction(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.ApplyTransaction(ctx, "u1", &domain.Transaction{
		ID: "t1", WalletID: "w1", Type: domain.TypeExpense, Amount: 30000,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := st.ReverseTransaction(ctx, "u1", "w1", "t1"); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	w, _ := st.GetWalletByName(ctx, "u1", "Momo")
	if w.Balance != 0 {
		t.Errorf("expected balance restored, got %v", w.Balance)
	}
	txns, _ := st.ListTransactions(ctx, "u1", "w1")
	if len(txns) != 0 {
		t.Errorf("expected transaction removed, got %d", len(txns))
	}
}

func TestListMessages_LimitAndOrder(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	// Append out of order; ULID-style IDs sort chronologically.
	for _, id := range []string{"0003", "0001", "0002"} {
		if err := st.AppendMessage(ctx, "u1", &domain.Message{ID: id, Text: id}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := st.ListMessages(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "0002" || msgs[1].ID != "0003" {
		t.Errorf("expected the most recent messages oldest-first, got %s, %s", msgs[0].ID, msgs[1].ID)
	}
}

func TestMutationsDoNotLeakInternalState(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{ID: "w1", Name: "Momo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	w, _ := st.GetWalletByName(ctx, "u1", "Momo")
	w.Balance = 999999

	fresh, _ := st.GetWalletByName(ctx, "u1", "Momo")
	if fresh.Balance != 0 {
		t.Errorf("mutating a returned wallet must not affect the store")
	}
}

func TestWatchWallets(t *testing.T) {
	st := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := st.WatchWallets(ctx, "u1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Initial snapshot is empty.
	select {
	case snap := <-ch:
		if len(snap) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d", len(snap))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	if err := st.CreateWallet(ctx, "u1", &domain.Wallet{Name: "Momo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case snap := <-ch:
		if len(snap) != 1 || snap[0].Name != "Momo" {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after create")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A buffered snapshot may still drain; the next receive must
			// observe the close.
			if _, ok := <-ch; ok {
				t.Fatal("channel not closed after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
