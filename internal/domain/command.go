package domain

import "time"

// Command is the closed union of structured actions derived from model output.
// Everything downstream of the intent extractor works with these typed
// variants, never with raw model JSON.
type Command interface {
	isCommand()
}

// CreateWalletCommand creates a new wallet for the user.
type CreateWalletCommand struct {
	Name     string
	Currency string
	Balance  float64
}

// AddTransactionCommand records a single income or expense.
// WalletRef is free text: it may be a literal wallet name, a "most recent
// wallet" placeholder phrase, or empty. Resolution to a concrete wallet is the
// resolver's job.
type AddTransactionCommand struct {
	WalletRef string
	Type      TransactionType
	Amount    float64
	Category  string
	Note      string
	Tags      []string

	Recurrence    Recurrence
	RecurrenceDay *int

	// Date is the ledger date; the zero value means "today".
	Date time.Time
}

// StatisticType selects which transactions a statistic covers.
type StatisticType string

const (
	StatIncome  StatisticType = "income"
	StatExpense StatisticType = "expense"
	StatAll     StatisticType = "all"
)

// Valid reports whether s is a known statistic type.
func (s StatisticType) Valid() bool {
	return s == StatIncome || s == StatExpense || s == StatAll
}

// Period selects the time window of a statistic.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	return p == PeriodToday || p == PeriodWeek || p == PeriodMonth
}

// StatisticCommand requests an aggregation over the user's transactions.
type StatisticCommand struct {
	Type   StatisticType
	Period Period
}

// UnrecognizedCommand is returned when the model emitted JSON with an unknown
// action or with missing required fields. Handling it never mutates anything.
type UnrecognizedCommand struct{}

func (CreateWalletCommand) isCommand()   {}
func (AddTransactionCommand) isCommand() {}
func (StatisticCommand) isCommand()      {}
func (UnrecognizedCommand) isCommand()   {}
