package export

import (
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
)

// Table names inside the export dataset.
const (
	walletsTable      = "wallets"
	transactionsTable = "transactions"
)

// WalletRow is the BigQuery shape of one wallet.
type WalletRow struct {
	UserID   string `bigquery:"user_id"`   // REQUIRED
	WalletID string `bigquery:"wallet_id"` // REQUIRED

	Name     string  `bigquery:"name"`     // REQUIRED
	Currency string  `bigquery:"currency"` // REQUIRED
	Balance  float64 `bigquery:"balance"`  // REQUIRED

	ExpenseThreshold bigquery.NullFloat64 `bigquery:"expense_threshold"` // NULLABLE
	Deleted          bool                 `bigquery:"deleted"`           // REQUIRED

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // NULLABLE
}

// TransactionRow is the BigQuery shape of one ledger entry.
type TransactionRow struct {
	UserID        string `bigquery:"user_id"`        // REQUIRED
	WalletID      string `bigquery:"wallet_id"`      // REQUIRED
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	Type     string  `bigquery:"type"`     // REQUIRED (income | expense)
	Category string  `bigquery:"category"` // REQUIRED
	Amount   float64 `bigquery:"amount"`   // REQUIRED, always positive
	Signed   float64 `bigquery:"signed"`   // REQUIRED, balance delta

	Note bigquery.NullString `bigquery:"note"` // NULLABLE
	Tags string              `bigquery:"tags"` // NULLABLE, comma joined

	Recurrence    string             `bigquery:"recurrence"`     // NULLABLE
	RecurrenceDay bigquery.NullInt64 `bigquery:"recurrence_day"` // NULLABLE

	Date      civil.Date             `bigquery:"date"`       // DATE, REQUIRED
	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // NULLABLE
}

func walletToRow(userID string, w *domain.Wallet) *WalletRow {
	row := &WalletRow{
		UserID:   userID,
		WalletID: w.ID,
		Name:     w.Name,
		Currency: w.Currency,
		Balance:  w.Balance,
		Deleted:  w.Deleted,
	}
	if w.ExpenseThreshold != nil {
		row.ExpenseThreshold = bigquery.NullFloat64{Float64: *w.ExpenseThreshold, Valid: true}
	}
	if !w.CreatedAt.IsZero() {
		row.CreatedTS = bigquery.NullTimestamp{Timestamp: w.CreatedAt, Valid: true}
	}
	return row
}

func transactionToRow(userID string, t *domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		UserID:        userID,
		WalletID:      t.WalletID,
		TransactionID: t.ID,
		Type:          string(t.Type),
		Category:      t.Category,
		Amount:        t.Amount,
		Signed:        t.SignedAmount(),
		Tags:          strings.Join(t.Tags, ","),
		Recurrence:    string(t.Recurrence),
		Date:          civil.DateOf(t.Date),
	}
	if t.Note != "" {
		row.Note = bigquery.NullString{StringVal: t.Note, Valid: true}
	}
	if t.RecurrenceDay != nil {
		row.RecurrenceDay = bigquery.NullInt64{Int64: int64(*t.RecurrenceDay), Valid: true}
	}
	if !t.CreatedAt.IsZero() {
		row.CreatedTS = bigquery.NullTimestamp{Timestamp: t.CreatedAt, Valid: true}
	}
	return row
}
