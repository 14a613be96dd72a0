package resolver

import (
	"testing"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

func wallets(names ...string) []*domain.Wallet {
	out := make([]*domain.Wallet, 0, len(names))
	for _, n := range names {
		out = append(out, &domain.Wallet{ID: n, Name: n})
	}
	return out
}

func TestResolve_ExplicitRefWins(t *testing.T) {
	r := New()

	got := r.Resolve("Momo", Hint{Category: "Tiền mặt"}, wallets("Tiền mặt", "Momo"), "Tiền mặt")
	if got != "Momo" {
		t.Errorf("expected explicit ref to win, got %q", got)
	}
}

func TestResolve_PlaceholderTreatedAsEmpty(t *testing.T) {
	r := New()

	tests := []string{"ví gần nhất", "most recent", "the last wallet", "recent wallet"}
	for _, ref := range tests {
		got := r.Resolve(ref, Hint{}, wallets("Tiền mặt", "Momo"), "Momo")
		if got != "Momo" {
			t.Errorf("ref %q: expected fallback to last wallet, got %q", ref, got)
		}
	}
}

func TestResolve_CategoryMatchBeforeNote(t *testing.T) {
	r := New()
	ws := wallets("Tiền mặt", "Momo")

	got := r.Resolve("", Hint{Category: "nạp Momo", Note: "rút Tiền mặt"}, ws, "")
	if got != "Momo" {
		t.Errorf("expected category match to win over note, got %q", got)
	}
}

func TestResolve_NoteMatch(t *testing.T) {
	r := New()

	got := r.Resolve("", Hint{Category: "ăn uống", Note: "chuyển từ Momo"}, wallets("Tiền mặt", "Momo"), "")
	if got != "Momo" {
		t.Errorf("expected note match, got %q", got)
	}
}

func TestResolve_MatchIsCaseInsensitive(t *testing.T) {
	r := New()

	got := r.Resolve("", Hint{Category: "topup MOMO"}, wallets("Tiền mặt", "Momo"), "")
	if got != "Momo" {
		t.Errorf("expected case-insensitive match, got %q", got)
	}
}

func TestResolve_LastWalletFallback(t *testing.T) {
	r := New()

	got := r.Resolve("", Hint{Category: "ăn uống"}, wallets("Tiền mặt", "Momo"), "Momo")
	if got != "Momo" {
		t.Errorf("expected last wallet fallback, got %q", got)
	}
}

func TestResolve_FirstWalletFallback(t *testing.T) {
	r := New()

	got := r.Resolve("", Hint{}, wallets("Tiền mặt", "Momo"), "")
	if got != "Tiền mặt" {
		t.Errorf("expected first wallet in creation order, got %q", got)
	}
}

func TestResolve_NothingResolves(t *testing.T) {
	r := New()

	got := r.Resolve("", Hint{Category: "ăn uống"}, nil, "")
	if got != "" {
		t.Errorf("expected empty result with no wallets, got %q", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := New()
	ws := wallets("A", "B", "C")

	first := r.Resolve("", Hint{Note: "moved to B"}, ws, "C")
	for i := 0; i < 10; i++ {
		if got := r.Resolve("", Hint{Note: "moved to B"}, ws, "C"); got != first {
			t.Fatalf("run %d: result changed from %q to %q", i, first, got)
		}
	}
}

type yesMatcher struct{}

func (yesMatcher) Match(walletName, text string) bool { return text != "" }

func TestResolve_CustomMatcher(t *testing.T) {
	r := NewWithMatcher(yesMatcher{})

	got := r.Resolve("", Hint{Category: "anything"}, wallets("First", "Second"), "")
	if got != "First" {
		t.Errorf("expected first wallet via custom matcher, got %q", got)
	}
}
