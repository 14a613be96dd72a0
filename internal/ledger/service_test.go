package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/resolver"
	"github.com/lehuyminh/wallet-assistant/internal/store/memory"
)

var testNow = time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memory.Store) {
	st := memory.NewStore()
	svc := NewService(st, resolver.New(), zerolog.Nop(), WithClock(func() time.Time { return testNow }))
	return svc, st
}

func mustCreateWallet(t *testing.T, svc *Service, userID, name string) {
	t.Helper()
	_, err := svc.Handle(context.Background(), userID, domain.CreateWalletCommand{Name: name}, "")
	if err != nil {
		t.Fatalf("creating wallet %s: %v", name, err)
	}
}

func TestHandle_CreateWallet(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	outcome, err := svc.Handle(ctx, "u1", domain.CreateWalletCommand{Name: "Tiền mặt", Balance: 100000}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomeWalletCreated {
		t.Fatalf("expected OutcomeWalletCreated, got %v", outcome.Kind)
	}
	if outcome.WalletName != "Tiền mặt" {
		t.Errorf("unexpected wallet name %q", outcome.WalletName)
	}
	if outcome.Currency != "VND" {
		t.Errorf("expected default currency VND, got %q", outcome.Currency)
	}

	wallets, _ := st.ListWallets(ctx, "u1")
	if len(wallets) != 1 || wallets[0].Balance != 100000 {
		t.Fatalf("unexpected wallets: %+v", wallets)
	}
}

func TestHandle_CreateWallet_BlankName(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	_, err := svc.Handle(ctx, "u1", domain.CreateWalletCommand{Name: "   "}, "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	wallets, _ := st.ListWallets(ctx, "u1")
	if len(wallets) != 0 {
		t.Errorf("validation failure must not create a wallet, got %d", len(wallets))
	}
}

func TestHandle_CreateWallet_DuplicateName(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Momo")

	_, err := svc.Handle(ctx, "u1", domain.CreateWalletCommand{Name: "Momo"}, "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for duplicate, got %v", err)
	}

	wallets, _ := st.ListWallets(ctx, "u1")
	if len(wallets) != 1 {
		t.Errorf("duplicate create must not add a wallet, got %d", len(wallets))
	}
}

func TestHandle_AddTransaction_UpdatesBalance(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	outcome, err := svc.Handle(ctx, "u1", domain.AddTransactionCommand{
		WalletRef: "Tiền mặt",
		Type:      domain.TypeIncome,
		Amount:    500000,
		Category:  "lương",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomeTransactionAdded {
		t.Fatalf("expected OutcomeTransactionAdded, got %v", outcome.Kind)
	}
	if outcome.NewBalance != 500000 {
		t.Errorf("expected balance 500000, got %v", outcome.NewBalance)
	}

	outcome, err = svc.Handle(ctx, "u1", domain.AddTransactionCommand{
		WalletRef: "Tiền mặt",
		Type:      domain.TypeExpense,
		Amount:    30000,
		Category:  "ăn sáng",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.NewBalance != 470000 {
		t.Errorf("expected balance 470000, got %v", outcome.NewBalance)
	}

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	txns, _ := st.ListTransactions(ctx, "u1", w.ID)
	sum := 0.0
	for _, tx := range txns {
		sum += tx.SignedAmount()
	}
	if w.Balance != sum {
		t.Errorf("balance %v does not equal signed sum %v", w.Balance, sum)
	}
}

func TestHandle_AddTransaction_ValidationLeavesNoTrace(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	day := 40
	tests := []domain.AddTransactionCommand{
		{WalletRef: "Tiền mặt", Type: "loan", Amount: 100, Category: "x"},
		{WalletRef: "Tiền mặt", Type: domain.TypeExpense, Amount: 0, Category: "x"},
		{WalletRef: "Tiền mặt", Type: domain.TypeExpense, Amount: -5, Category: "x"},
		{WalletRef: "Tiền mặt", Type: domain.TypeExpense, Amount: 100, Category: "x", Recurrence: domain.RecurrenceMonthly},
		{WalletRef: "Tiền mặt", Type: domain.TypeExpense, Amount: 100, Category: "x", Recurrence: domain.RecurrenceMonthly, RecurrenceDay: &day},
	}

	for i, cmd := range tests {
		_, err := svc.Handle(ctx, "u1", cmd, "")
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	if w.Balance != 0 {
		t.Errorf("rejected commands must not touch the balance, got %v", w.Balance)
	}
	txns, _ := st.ListTransactions(ctx, "u1", w.ID)
	if len(txns) != 0 {
		t.Errorf("rejected commands must not insert transactions, got %d", len(txns))
	}
}

func TestHandle_AddTransaction_NoWallet(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Handle(context.Background(), "u1", domain.AddTransactionCommand{
		Type:     domain.TypeExpense,
		Amount:   30000,
		Category: "ăn sáng",
	}, "")
	if !errors.Is(err, domain.ErrNoWallet) {
		t.Fatalf("expected ErrNoWallet, got %v", err)
	}
}

func TestHandle_AddTransaction_UnknownWallet(t *testing.T) {
	svc, _ := newTestService()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	_, err := svc.Handle(context.Background(), "u1", domain.AddTransactionCommand{
		WalletRef: "Vietcombank",
		Type:      domain.TypeExpense,
		Amount:    30000,
		Category:  "ăn sáng",
	}, "")
	var wnf *domain.WalletNotFoundError
	if !errors.As(err, &wnf) {
		t.Fatalf("expected WalletNotFoundError, got %v", err)
	}
	if wnf.Name != "Vietcombank" {
		t.Errorf("unexpected wallet name in error: %q", wnf.Name)
	}
}

func TestHandle_AddTransaction_LastWalletFallback(t *testing.T) {
	svc, _ := newTestService()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")
	mustCreateWallet(t, svc, "u1", "Momo")

	outcome, err := svc.Handle(context.Background(), "u1", domain.AddTransactionCommand{
		Type:     domain.TypeExpense,
		Amount:   30000,
		Category: "ăn sáng",
	}, "Momo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.WalletName != "Momo" {
		t.Errorf("expected last wallet Momo, got %q", outcome.WalletName)
	}
}

func TestHandle_AddTransaction_ThresholdAdvisory(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	threshold := 50000.0
	w.ExpenseThreshold = &threshold
	if err := st.UpdateWallet(ctx, "u1", w); err != nil {
		t.Fatalf("updating wallet: %v", err)
	}

	outcome, err := svc.Handle(ctx, "u1", domain.AddTransactionCommand{
		WalletRef: "Tiền mặt",
		Type:      domain.TypeExpense,
		Amount:    80000,
		Category:  "ăn tối",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.ThresholdExceeded {
		t.Error("expected threshold advisory")
	}
	if outcome.NewBalance != -80000 {
		t.Errorf("advisory must not block the write, balance %v", outcome.NewBalance)
	}

	// Income above the threshold does not warn.
	outcome, err = svc.Handle(ctx, "u1", domain.AddTransactionCommand{
		WalletRef: "Tiền mặt",
		Type:      domain.TypeIncome,
		Amount:    80000,
		Category:  "lương",
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.ThresholdExceeded {
		t.Error("income must not trigger the expense threshold")
	}
}

func TestHandle_Statistic(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")
	mustCreateWallet(t, svc, "u1", "Momo")

	add := func(wallet string, typ domain.TransactionType, amount float64, category string, date time.Time) {
		t.Helper()
		_, err := svc.Handle(ctx, "u1", domain.AddTransactionCommand{
			WalletRef: wallet,
			Type:      typ,
			Amount:    amount,
			Category:  category,
			Date:      date,
		}, "")
		if err != nil {
			t.Fatalf("adding transaction: %v", err)
		}
	}

	add("Tiền mặt", domain.TypeExpense, 30000, "ăn sáng", testNow)
	add("Momo", domain.TypeExpense, 120000, "mua sắm", testNow)
	add("Tiền mặt", domain.TypeIncome, 500000, "lương", testNow)
	// Same ISO week (Aug 14 2026 is a Friday; Aug 10 the Monday before).
	add("Tiền mặt", domain.TypeExpense, 70000, "xăng xe", time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC))
	// Same month, previous week.
	add("Tiền mặt", domain.TypeExpense, 40000, "cà phê", time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC))
	// Previous month, never counted.
	add("Tiền mặt", domain.TypeExpense, 99000, "cũ", time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC))

	tests := []struct {
		name      string
		cmd       domain.StatisticCommand
		wantTotal float64
		wantItems int
	}{
		{"expense today", domain.StatisticCommand{Type: domain.StatExpense, Period: domain.PeriodToday}, 150000, 2},
		{"income today", domain.StatisticCommand{Type: domain.StatIncome, Period: domain.PeriodToday}, 500000, 1},
		{"all today", domain.StatisticCommand{Type: domain.StatAll, Period: domain.PeriodToday}, 650000, 3},
		{"expense week", domain.StatisticCommand{Type: domain.StatExpense, Period: domain.PeriodWeek}, 220000, 3},
		{"expense month", domain.StatisticCommand{Type: domain.StatExpense, Period: domain.PeriodMonth}, 260000, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := svc.Handle(ctx, "u1", tt.cmd, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.Kind != OutcomeStatistic {
				t.Fatalf("expected OutcomeStatistic, got %v", outcome.Kind)
			}
			if outcome.Total != tt.wantTotal {
				t.Errorf("expected total %v, got %v", tt.wantTotal, outcome.Total)
			}
			if len(outcome.Items) != tt.wantItems {
				t.Errorf("expected %d items, got %d", tt.wantItems, len(outcome.Items))
			}
		})
	}
}

func TestHandle_Statistic_SkipsTrashedWallets(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	_, err := svc.Handle(ctx, "u1", domain.AddTransactionCommand{
		WalletRef: "Tiền mặt", Type: domain.TypeExpense, Amount: 30000, Category: "ăn sáng",
	}, "")
	if err != nil {
		t.Fatalf("adding transaction: %v", err)
	}

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	if err := st.SetWalletDeleted(ctx, "u1", w.ID, true); err != nil {
		t.Fatalf("trashing wallet: %v", err)
	}

	outcome, err := svc.Handle(ctx, "u1", domain.StatisticCommand{Type: domain.StatAll, Period: domain.PeriodToday}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Total != 0 || len(outcome.Items) != 0 {
		t.Errorf("trashed wallets must be excluded, got total %v items %d", outcome.Total, len(outcome.Items))
	}
}

func TestHandle_Unrecognized(t *testing.T) {
	svc, st := newTestService()

	outcome, err := svc.Handle(context.Background(), "u1", domain.UnrecognizedCommand{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomeUnrecognized {
		t.Fatalf("expected OutcomeUnrecognized, got %v", outcome.Kind)
	}

	wallets, _ := st.ListWallets(context.Background(), "u1")
	if len(wallets) != 0 {
		t.Error("unrecognized commands must not mutate anything")
	}
}

func TestHandle_NotAuthenticated(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Handle(context.Background(), "", domain.CreateWalletCommand{Name: "x"}, "")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestHandle_ConcurrentAdditionsBothLand(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Handle(ctx, "u1", domain.AddTransactionCommand{
				WalletRef: "Tiền mặt",
				Type:      domain.TypeIncome,
				Amount:    1000,
				Category:  "test",
			}, "")
			if err != nil {
				t.Errorf("concurrent add failed: %v", err)
			}
		}()
	}
	wg.Wait()

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	if w.Balance != 2000 {
		t.Errorf("expected both additions to land, balance %v", w.Balance)
	}
}

func TestDeleteTransaction_ReversesBalance(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	_, err := svc.Handle(ctx, "u1", domain.AddTransactionCommand{
		WalletRef: "Tiền mặt", Type: domain.TypeExpense, Amount: 30000, Category: "ăn sáng",
	}, "")
	if err != nil {
		t.Fatalf("adding transaction: %v", err)
	}

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	txns, _ := st.ListTransactions(ctx, "u1", w.ID)
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}

	if err := svc.DeleteTransaction(ctx, "u1", w.ID, txns[0].ID); err != nil {
		t.Fatalf("deleting transaction: %v", err)
	}

	w, _ = st.GetWalletByName(ctx, "u1", "Tiền mặt")
	if w.Balance != 0 {
		t.Errorf("expected balance restored to 0, got %v", w.Balance)
	}
	txns, _ = st.ListTransactions(ctx, "u1", w.ID)
	if len(txns) != 0 {
		t.Errorf("expected transaction removed, got %d", len(txns))
	}
}

func TestEditWallet_RenameCollision(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")
	mustCreateWallet(t, svc, "u1", "Momo")

	w, _ := st.GetWalletByName(ctx, "u1", "Momo")
	w.Name = "Tiền mặt"

	err := svc.EditWallet(ctx, "u1", w)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "name" {
		t.Fatalf("expected a name validation error on rename collision, got %v", err)
	}
	if _, err := st.GetWalletByName(ctx, "u1", "Momo"); err != nil {
		t.Errorf("rejected rename must leave the wallet untouched: %v", err)
	}
}

func TestTrashAndRestore(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	w, _ := st.GetWalletByName(ctx, "u1", "Tiền mặt")
	if err := svc.MoveWalletToTrash(ctx, "u1", w.ID); err != nil {
		t.Fatalf("trashing: %v", err)
	}

	active, _ := svc.Wallets(ctx, "u1")
	trash, _ := svc.Trash(ctx, "u1")
	if len(active) != 0 || len(trash) != 1 {
		t.Fatalf("expected 0 active / 1 trashed, got %d/%d", len(active), len(trash))
	}

	// A trashed wallet frees up its name.
	mustCreateWallet(t, svc, "u1", "Tiền mặt")

	if err := svc.RestoreWallet(ctx, "u1", w.ID); err != nil {
		t.Fatalf("restoring: %v", err)
	}
	active, _ = svc.Wallets(ctx, "u1")
	if len(active) != 2 {
		t.Errorf("expected 2 active wallets after restore, got %d", len(active))
	}
}
