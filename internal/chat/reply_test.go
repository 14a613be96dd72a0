package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/ledger"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{500, "500"},
		{30000, "30.000"},
		{1234567, "1.234.567"},
		{1234567.5, "1.234.567,5"},
		{-80000, "-80.000"},
	}

	for _, tt := range tests {
		if got := formatAmount(tt.in); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderOutcome_TransactionWithThreshold(t *testing.T) {
	got := renderOutcome(&ledger.Outcome{
		Kind:              ledger.OutcomeTransactionAdded,
		WalletName:        "Tiền mặt",
		Currency:          "VND",
		Type:              domain.TypeExpense,
		Category:          "ăn tối",
		Amount:            80000,
		NewBalance:        420000,
		ThresholdExceeded: true,
	})

	for _, want := range []string{"chi tiêu 80.000", "ăn tối", "ví Tiền mặt", "420.000 VND", "vượt ngưỡng"} {
		if !strings.Contains(got, want) {
			t.Errorf("confirmation %q missing %q", got, want)
		}
	}
}

func TestRenderOutcome_StatisticEmpty(t *testing.T) {
	got := renderOutcome(&ledger.Outcome{
		Kind:     ledger.OutcomeStatistic,
		StatType: domain.StatExpense,
		Period:   domain.PeriodToday,
	})

	if !strings.Contains(got, "Không có giao dịch") {
		t.Errorf("expected empty-statistic message, got %q", got)
	}
}

func TestRenderOutcome_StatisticItemized(t *testing.T) {
	got := renderOutcome(&ledger.Outcome{
		Kind:     ledger.OutcomeStatistic,
		StatType: domain.StatAll,
		Period:   domain.PeriodWeek,
		Total:    150000,
		Items: []ledger.StatisticItem{
			{Wallet: "Tiền mặt", Category: "ăn sáng", Amount: 30000, Note: "bánh mì", Date: time.Now()},
			{Wallet: "Momo", Category: "mua sắm", Amount: 120000, Date: time.Now()},
		},
	})

	for _, want := range []string{"tuần này", "[Tiền mặt] ăn sáng: 30.000 (bánh mì)", "[Momo] mua sắm: 120.000", "Tổng: 150.000"} {
		if !strings.Contains(got, want) {
			t.Errorf("statistic %q missing %q", got, want)
		}
	}
}

func TestRenderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no wallet", domain.ErrNoWallet, replyNoWallet},
		{"store down", domain.ErrStoreUnavailable, replyStoreFailure},
		{"unknown wallet", &domain.WalletNotFoundError{Name: "Vietcombank"}, "Vietcombank"},
		{"validation", &domain.ValidationError{Field: "amount", Reason: "must be a positive number"}, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderError(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("renderError = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
