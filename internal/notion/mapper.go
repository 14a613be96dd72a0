package notion

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{
			Start: &d,
		},
	}
}

// WalletToProperties maps a wallet onto the Wallets database schema.
// The Wallet ID title is the idempotency key.
func WalletToProperties(w *domain.Wallet) notionapi.Properties {
	props := notionapi.Properties{
		"Wallet ID": notionapi.TitleProperty{
			Title: richText(w.ID),
		},
		"Name": notionapi.RichTextProperty{
			RichText: richText(w.Name),
		},
		"Balance": notionapi.NumberProperty{
			Number: w.Balance,
		},
		"In Trash": notionapi.CheckboxProperty{
			Checkbox: w.Deleted,
		},
	}

	if w.Currency != "" {
		props["Currency"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: w.Currency,
			},
		}
	}
	if w.ExpenseThreshold != nil {
		props["Expense Threshold"] = notionapi.NumberProperty{
			Number: *w.ExpenseThreshold,
		}
	}
	if !w.CreatedAt.IsZero() {
		props["Created"] = dateProperty(w.CreatedAt)
	}

	return props
}

// TransactionToProperties maps a ledger entry onto the Transactions database
// schema. walletName is denormalized so rows are readable without a relation.
// The Transaction ID title is the idempotency key.
func TransactionToProperties(t *domain.Transaction, walletName string) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: richText(t.ID),
		},
		"Amount": notionapi.NumberProperty{
			Number: t.SignedAmount(),
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(t.Type),
			},
		},
	}

	if t.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: t.Category,
			},
		}
	}
	if walletName != "" {
		props["Wallet"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: walletName,
			},
		}
	}
	if t.Note != "" {
		props["Note"] = notionapi.RichTextProperty{
			RichText: richText(t.Note),
		}
	}
	if len(t.Tags) > 0 {
		options := make([]notionapi.Option, 0, len(t.Tags))
		for _, tag := range t.Tags {
			options = append(options, notionapi.Option{Name: tag})
		}
		props["Tags"] = notionapi.MultiSelectProperty{
			MultiSelect: options,
		}
	}
	if t.Recurrence != "" && t.Recurrence != domain.RecurrenceNone {
		props["Recurrence"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(t.Recurrence),
			},
		}
	}
	if !t.Date.IsZero() {
		props["Date"] = dateProperty(t.Date)
	}

	return props
}

// extractTitleID pulls the plain-text title out of a page, used to read the
// idempotency key back from Notion. The SDK decodes properties as pointers;
// locally built pages may carry values.
func extractTitleID(page notionapi.Page, property string) string {
	var title []notionapi.RichText
	switch p := page.Properties[property].(type) {
	case *notionapi.TitleProperty:
		title = p.Title
	case notionapi.TitleProperty:
		title = p.Title
	default:
		return ""
	}

	var b strings.Builder
	for _, rt := range title {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}
