// Package resolver picks a concrete wallet for an ambiguous reference.
//
// Users rarely name a wallet explicitly in casual phrasing, so resolution
// walks a deterministic fallback chain that trades precision for low-friction
// interaction. The resolver is pure: it never touches the store and never
// creates a wallet as a side effect of ambiguity.
package resolver

import (
	"strings"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

// Hint carries the transaction fields the fuzzy match inspects.
type Hint struct {
	Category string
	Note     string
}

// Matcher decides whether a wallet name "appears in" a piece of user text.
// It is pluggable so the heuristic can be replaced without touching the
// session or the handlers.
type Matcher interface {
	Match(walletName, text string) bool
}

// SubstringMatcher is the default heuristic: case-insensitive substring
// containment of the wallet name in the text. It is deliberately not NLP.
type SubstringMatcher struct{}

// Match implements Matcher.
func (SubstringMatcher) Match(walletName, text string) bool {
	if walletName == "" || text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(walletName))
}

// Resolver resolves wallet references against a user's wallet list.
type Resolver struct {
	matcher Matcher
}

// New creates a resolver with the default substring matcher.
func New() *Resolver {
	return &Resolver{matcher: SubstringMatcher{}}
}

// NewWithMatcher creates a resolver with a custom matching strategy.
func NewWithMatcher(m Matcher) *Resolver {
	return &Resolver{matcher: m}
}

// placeholderPhrases are the "most recent wallet" spellings the model emits.
// The Vietnamese phrase is what Gemini actually returns when prompted in
// Vietnamese.
var placeholderPhrases = []string{
	"gần nhất",
	"most recent",
	"recent wallet",
	"last wallet",
}

func isRecentPlaceholder(ref string) bool {
	lower := strings.ToLower(ref)
	for _, p := range placeholderPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Resolve returns the wallet name the command should land in, or "" when no
// wallet can be chosen (the caller must then prompt the user to create one).
//
// Resolution order, first match wins:
//  1. a non-empty ref that is not a placeholder phrase, verbatim (existence
//     is validated by the caller);
//  2. a wallet whose name appears in the transaction category;
//  3. a wallet whose name appears in the transaction note;
//  4. lastWalletName;
//  5. the first wallet in creation order.
func (r *Resolver) Resolve(ref string, hint Hint, wallets []*domain.Wallet, lastWalletName string) string {
	ref = strings.TrimSpace(ref)
	if ref != "" && !isRecentPlaceholder(ref) {
		return ref
	}

	if hint.Category != "" {
		for _, w := range wallets {
			if r.matcher.Match(w.Name, hint.Category) {
				return w.Name
			}
		}
	}
	if hint.Note != "" {
		for _, w := range wallets {
			if r.matcher.Match(w.Name, hint.Note) {
				return w.Name
			}
		}
	}

	if lastWalletName != "" {
		return lastWalletName
	}
	if len(wallets) > 0 {
		return wallets[0].Name
	}
	return ""
}
