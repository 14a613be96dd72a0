// Package intent turns raw model text into a typed command or plain text.
//
// The model is instructed to emit bare JSON for commands, but the reply is
// untrusted: it may wrap JSON in Markdown fences, surround it with prose, or
// be ordinary conversation. Extract never fails; every input maps to exactly
// one classification.
package intent

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

// Kind classifies an extraction result.
type Kind int

const (
	// KindCommand means a Command variant was recovered (possibly
	// UnrecognizedCommand when required fields were missing or the action
	// was unknown).
	KindCommand Kind = iota

	// KindText means the reply is ordinary conversation, shown verbatim.
	KindText

	// KindMalformed means the reply looks like an intended command (it still
	// contains both braces after isolation) but does not parse. It is
	// surfaced as a recoverable error message, never as raw text.
	KindMalformed
)

// Result is the outcome of extracting one model reply.
type Result struct {
	Kind    Kind
	Command domain.Command // set when Kind == KindCommand
	Text    string         // set when Kind == KindText
}

var (
	jsonFenceRe    = regexp.MustCompile("(?s)```json(.*?)```")
	genericFenceRe = regexp.MustCompile("(?s)```(.*?)```")
)

// Extract classifies one raw model reply. It is deterministic: the same input
// always yields the same result.
func Extract(raw string) Result {
	candidate := isolateJSON(raw)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		if strings.Contains(candidate, "{") && strings.Contains(candidate, "}") {
			return Result{Kind: KindMalformed}
		}
		return Result{Kind: KindText, Text: raw}
	}

	return Result{Kind: KindCommand, Command: mapCommand(payload)}
}

// isolateJSON performs best-effort JSON isolation: the content of a fenced
// ```json block wins over a generic fenced block, then any prose before the
// first '{' and after the last '}' is trimmed away.
func isolateJSON(raw string) string {
	s := raw
	if m := jsonFenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if m := genericFenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

// mapCommand maps a parsed JSON object onto the Command union. Unknown
// actions and missing required fields degrade to UnrecognizedCommand.
func mapCommand(payload map[string]interface{}) domain.Command {
	action, _ := payload["action"].(string)

	switch action {
	case "create_wallet":
		return mapCreateWallet(payload)
	case "add_transaction":
		return mapAddTransaction(payload)
	case "statistic":
		return mapStatistic(payload)
	default:
		return domain.UnrecognizedCommand{}
	}
}

func mapCreateWallet(payload map[string]interface{}) domain.Command {
	name := stringField(payload, "name")
	if strings.TrimSpace(name) == "" {
		return domain.UnrecognizedCommand{}
	}
	currency := stringField(payload, "currency")
	if currency == "" {
		currency = "VND"
	}
	balance, _ := numberField(payload, "balance")
	return domain.CreateWalletCommand{
		Name:     name,
		Currency: currency,
		Balance:  balance,
	}
}

func mapAddTransaction(payload map[string]interface{}) domain.Command {
	txType := domain.TransactionType(stringField(payload, "type"))
	if !txType.Valid() {
		return domain.UnrecognizedCommand{}
	}
	amount, ok := numberField(payload, "amount")
	if !ok {
		return domain.UnrecognizedCommand{}
	}
	category := stringField(payload, "category")
	if strings.TrimSpace(category) == "" {
		return domain.UnrecognizedCommand{}
	}

	cmd := domain.AddTransactionCommand{
		WalletRef: stringField(payload, "wallet"),
		Type:      txType,
		Amount:    amount,
		Category:  category,
		Note:      stringField(payload, "note"),
	}

	// Optional ledger date; an unparseable date falls back to "today".
	if dateStr := stringField(payload, "date"); dateStr != "" {
		if d, err := time.Parse("2006-01-02", dateStr); err == nil {
			cmd.Date = d
		}
	}

	// Optional recurrence metadata. Validation of the monthly day happens in
	// the handler so the rejection is specific rather than a silent degrade.
	if rec := domain.Recurrence(stringField(payload, "recurrence")); rec.Valid() && rec != "" {
		cmd.Recurrence = rec
	}
	if day, ok := numberField(payload, "recurrence_day"); ok {
		d := int(day)
		cmd.RecurrenceDay = &d
	}
	if tags := stringSliceField(payload, "tags"); len(tags) > 0 {
		cmd.Tags = tags
	}

	return cmd
}

func mapStatistic(payload map[string]interface{}) domain.Command {
	statType := domain.StatisticType(stringField(payload, "type"))
	period := domain.Period(stringField(payload, "period"))
	if !statType.Valid() || !period.Valid() {
		return domain.UnrecognizedCommand{}
	}
	return domain.StatisticCommand{Type: statType, Period: period}
}
