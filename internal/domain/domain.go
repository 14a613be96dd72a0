package domain

import (
	"time"
)

// TransactionType distinguishes money coming into a wallet from money leaving it.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Recurrence describes how often a transaction is meant to repeat.
// It is stored as metadata only; nothing materializes recurring transactions
// automatically.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Valid reports whether r is one of the known recurrence values.
// The empty string is accepted and treated as RecurrenceNone.
func (r Recurrence) Valid() bool {
	switch r {
	case "", RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Wallet is a named balance bucket owned by a user.
// Name is unique among the user's non-deleted wallets. Deleted wallets sit in
// the trash and can be restored; they are excluded from resolution and
// statistics.
type Wallet struct {
	ID       string  `json:"id" firestore:"id"`
	Name     string  `json:"name" firestore:"name"`
	Currency string  `json:"currency" firestore:"currency"`
	Balance  float64 `json:"balance" firestore:"balance"`

	// ExpenseThreshold, when set, marks the amount above which a single
	// expense triggers an advisory warning. It never blocks the transaction.
	ExpenseThreshold *float64 `json:"expense_threshold,omitempty" firestore:"expense_threshold"`

	Deleted   bool      `json:"deleted" firestore:"deleted"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// Transaction is a signed ledger entry against exactly one wallet.
// Income adds Amount to the wallet balance, expense subtracts it.
// Transactions are immutable once created; deleting one must reverse its
// effect on the owning wallet's balance.
type Transaction struct {
	ID       string          `json:"id" firestore:"id"`
	WalletID string          `json:"wallet_id" firestore:"wallet_id"`
	Type     TransactionType `json:"type" firestore:"type"`
	Category string          `json:"category" firestore:"category"`
	Amount   float64         `json:"amount" firestore:"amount"`
	Note     string          `json:"note,omitempty" firestore:"note"`
	Tags     []string        `json:"tags,omitempty" firestore:"tags"`

	Recurrence Recurrence `json:"recurrence,omitempty" firestore:"recurrence"`
	// RecurrenceDay is the day of month (1..31); required iff
	// Recurrence == RecurrenceMonthly.
	RecurrenceDay *int `json:"recurrence_day,omitempty" firestore:"recurrence_day"`

	Date      time.Time `json:"date" firestore:"date"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// SignedAmount returns the amount with the sign implied by the type.
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TypeExpense {
		return -t.Amount
	}
	return t.Amount
}

// Sender identifies who produced a conversation message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one persisted conversation entry. Messages are append-only;
// replay order is the lexicographic order of the ULID ID, which matches
// chronological order.
type Message struct {
	ID     string `json:"id" firestore:"id"`
	Sender Sender `json:"sender" firestore:"sender"`
	Text   string `json:"text" firestore:"text"`

	// WalletName records, on bot messages, the wallet a successful command
	// touched. Session restore recovers the "last wallet" default from the
	// most recent message carrying one.
	WalletName string `json:"wallet_name,omitempty" firestore:"wallet_name"`

	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}
