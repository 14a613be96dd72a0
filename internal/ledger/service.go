// Package ledger implements the command handlers: validation, atomic mutation
// of the store, and structured outcomes describing what happened. All
// user-facing phrasing lives with the session; handlers only report facts.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/resolver"
	"github.com/lehuyminh/wallet-assistant/internal/store"
	"github.com/rs/zerolog"
)

// OutcomeKind identifies what a handled command did.
type OutcomeKind int

const (
	OutcomeWalletCreated OutcomeKind = iota
	OutcomeTransactionAdded
	OutcomeStatistic
	OutcomeUnrecognized
)

// StatisticItem is one itemized row of a statistic report.
type StatisticItem struct {
	Wallet   string                 `json:"wallet"`
	Type     domain.TransactionType `json:"type"`
	Category string                 `json:"category"`
	Amount   float64                `json:"amount"`
	Note     string                 `json:"note,omitempty"`
	Date     time.Time              `json:"date"`
}

// Outcome describes a successfully handled command. WalletName is set only by
// outcomes that should update the session's last-wallet default.
type Outcome struct {
	Kind OutcomeKind

	// Create/add fields.
	WalletName string
	Currency   string
	Type       domain.TransactionType
	Category   string
	Amount     float64
	NewBalance float64

	// ThresholdExceeded marks an expense above the wallet's expense
	// threshold. Advisory only; the transaction has already committed.
	ThresholdExceeded bool

	// Statistic fields.
	StatType domain.StatisticType
	Period   domain.Period
	Total    float64
	Items    []StatisticItem
}

// Service dispatches commands against the store.
type Service struct {
	store    store.Store
	resolver *resolver.Resolver
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a command-handling service.
func NewService(st store.Store, res *resolver.Resolver, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		resolver: res,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle executes one command for the user. lastWalletName is the session's
// current default wallet, consumed by resolution; the returned outcome's
// WalletName is the new default on success.
func (s *Service) Handle(ctx context.Context, userID string, cmd domain.Command, lastWalletName string) (*Outcome, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	switch c := cmd.(type) {
	case domain.CreateWalletCommand:
		return s.createWallet(ctx, userID, c)
	case domain.AddTransactionCommand:
		return s.addTransaction(ctx, userID, c, lastWalletName)
	case domain.StatisticCommand:
		return s.statistic(ctx, userID, c)
	default:
		return &Outcome{Kind: OutcomeUnrecognized}, nil
	}
}

func (s *Service) createWallet(ctx context.Context, userID string, c domain.CreateWalletCommand) (*Outcome, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be blank"}
	}
	currency := c.Currency
	if currency == "" {
		currency = "VND"
	}

	w := &domain.Wallet{
		ID:        uuid.NewString(),
		Name:      name,
		Currency:  currency,
		Balance:   c.Balance,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateWallet(ctx, userID, w); err != nil {
		if errors.Is(err, domain.ErrWalletExists) {
			return nil, &domain.ValidationError{Field: "name", Reason: "a wallet with this name already exists"}
		}
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("wallet", name).Msg("Wallet created")

	return &Outcome{
		Kind:       OutcomeWalletCreated,
		WalletName: name,
		Currency:   currency,
		NewBalance: c.Balance,
	}, nil
}

func (s *Service) addTransaction(ctx context.Context, userID string, c domain.AddTransactionCommand, lastWalletName string) (*Outcome, error) {
	if !c.Type.Valid() {
		return nil, &domain.ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	if c.Amount <= 0 {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	if c.Recurrence == domain.RecurrenceMonthly {
		if c.RecurrenceDay == nil || *c.RecurrenceDay < 1 || *c.RecurrenceDay > 31 {
			return nil, &domain.ValidationError{Field: "recurrence_day", Reason: "monthly recurrence requires a day between 1 and 31"}
		}
	} else if c.RecurrenceDay != nil {
		return nil, &domain.ValidationError{Field: "recurrence_day", Reason: "only valid with monthly recurrence"}
	}

	wallets, err := s.store.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := s.resolver.Resolve(c.WalletRef, resolver.Hint{Category: c.Category, Note: c.Note}, wallets, lastWalletName)
	if name == "" {
		return nil, domain.ErrNoWallet
	}

	w, err := s.store.GetWalletByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	date := c.Date
	if date.IsZero() {
		date = now
	}
	recurrence := c.Recurrence
	if recurrence == "" {
		recurrence = domain.RecurrenceNone
	}

	txn := &domain.Transaction{
		ID:            uuid.NewString(),
		WalletID:      w.ID,
		Type:          c.Type,
		Category:      c.Category,
		Amount:        c.Amount,
		Note:          c.Note,
		Tags:          c.Tags,
		Recurrence:    recurrence,
		RecurrenceDay: c.RecurrenceDay,
		Date:          date,
		CreatedAt:     now,
	}

	newBalance, err := s.store.ApplyTransaction(ctx, userID, txn)
	if err != nil {
		return nil, err
	}

	exceeded := c.Type == domain.TypeExpense &&
		w.ExpenseThreshold != nil &&
		c.Amount > *w.ExpenseThreshold

	s.log.Info().
		Str("user_id", userID).
		Str("wallet", w.Name).
		Str("type", string(c.Type)).
		Float64("amount", c.Amount).
		Float64("balance", newBalance).
		Bool("threshold_exceeded", exceeded).
		Msg("Transaction recorded")

	return &Outcome{
		Kind:              OutcomeTransactionAdded,
		WalletName:        w.Name,
		Currency:          w.Currency,
		Type:              c.Type,
		Category:          c.Category,
		Amount:            c.Amount,
		NewBalance:        newBalance,
		ThresholdExceeded: exceeded,
	}, nil
}

func (s *Service) statistic(ctx context.Context, userID string, c domain.StatisticCommand) (*Outcome, error) {
	wallets, err := s.store.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	outcome := &Outcome{
		Kind:     OutcomeStatistic,
		StatType: c.Type,
		Period:   c.Period,
	}

	for _, w := range wallets {
		txns, err := s.store.ListTransactions(ctx, userID, w.ID)
		if err != nil {
			return nil, err
		}
		for _, txn := range txns {
			if c.Type != domain.StatAll && txn.Type != domain.TransactionType(c.Type) {
				continue
			}
			if !matchesPeriod(now, txn.Date, c.Period) {
				continue
			}
			outcome.Total += txn.Amount
			outcome.Items = append(outcome.Items, StatisticItem{
				Wallet:   w.Name,
				Type:     txn.Type,
				Category: txn.Category,
				Amount:   txn.Amount,
				Note:     txn.Note,
				Date:     txn.Date,
			})
		}
	}

	return outcome, nil
}

// matchesPeriod reports whether date falls inside the period anchored at now.
// Weeks are ISO weeks; months are calendar months.
func matchesPeriod(now, date time.Time, p domain.Period) bool {
	switch p {
	case domain.PeriodToday:
		y1, m1, d1 := now.Date()
		y2, m2, d2 := date.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case domain.PeriodWeek:
		y1, w1 := now.ISOWeek()
		y2, w2 := date.ISOWeek()
		return y1 == y2 && w1 == w2
	case domain.PeriodMonth:
		return now.Year() == date.Year() && now.Month() == date.Month()
	}
	return false
}
