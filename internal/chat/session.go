// Package chat runs the conversational loop: it owns per-user session state,
// feeds the model, hands extracted commands to the ledger service and persists
// both sides of the conversation.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/intent"
	"github.com/lehuyminh/wallet-assistant/internal/ledger"
	"github.com/lehuyminh/wallet-assistant/internal/model"
	"github.com/lehuyminh/wallet-assistant/internal/store"
	"github.com/rs/zerolog"
)

// ErrBusy is returned by Submit while a previous message is still in flight.
// The session processes strictly one message at a time.
var ErrBusy = errors.New("chat: previous message still processing")

// State is the session's processing phase.
type State int

const (
	// StateIdle accepts new user messages.
	StateIdle State = iota
	// StateAwaitingModelReply means the model call is in flight.
	StateAwaitingModelReply
	// StateDispatching means an extracted command is being executed.
	StateDispatching
)

// historyWindow bounds how many persisted messages are replayed into the
// prompt and returned on load.
const historyWindow = 50

// greeting is the seeded first bot message of a brand-new conversation.
const greeting = "Xin chào! Tôi là quản trị viên quản lý chi tiêu cá nhân của bạn!"

// Session is one user's conversation. All methods are safe for concurrent use;
// overlapping Submits are rejected with ErrBusy rather than queued.
type Session struct {
	userID  string
	store   store.Store
	gen     model.Generator
	svc     *ledger.Service
	phraser Phraser
	log     zerolog.Logger
	now     func() time.Time

	mu             sync.Mutex
	state          State
	lastWalletName string
}

// SessionOption configures a session.
type SessionOption func(*Session)

// WithPhraser enables model-based rephrasing of confirmation templates.
// Without it confirmations are deterministic templates.
func WithPhraser(p Phraser) SessionOption {
	return func(s *Session) {
		s.phraser = p
	}
}

// WithSessionClock overrides the time source, used by tests.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a session for one user. Call Load before the first Submit
// to recover history and the last-wallet default.
func NewSession(userID string, st store.Store, gen model.Generator, svc *ledger.Service, log zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		userID: userID,
		store:  st,
		gen:    gen,
		svc:    svc,
		log:    log.With().Str("user_id", userID).Logger(),
		now:    time.Now,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current processing phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastWalletName returns the session's current default wallet.
func (s *Session) LastWalletName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWalletName
}

// Load restores the bounded history window and recovers the last-wallet
// default from the most recent message that carries a wallet name. A brand-new
// conversation gets a persisted greeting so the window is never empty.
func (s *Session) Load(ctx context.Context) ([]*domain.Message, error) {
	if s.userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	msgs, err := s.store.ListMessages(ctx, s.userID, historyWindow)
	if err != nil {
		return nil, err
	}

	if len(msgs) == 0 {
		m := s.newBotMessage(greeting, "")
		if err := s.store.AppendMessage(ctx, s.userID, m); err != nil {
			return nil, err
		}
		return []*domain.Message{m}, nil
	}

	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].WalletName != "" {
			s.mu.Lock()
			s.lastWalletName = msgs[i].WalletName
			s.mu.Unlock()
			break
		}
	}
	return msgs, nil
}

// Submit processes one user message end to end and returns the bot reply.
// Every failure past the busy check still produces a persisted reply; the
// session always returns to idle.
func (s *Session) Submit(ctx context.Context, text string) (*domain.Message, error) {
	if s.userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.state = StateAwaitingModelReply
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	}()

	// Snapshot the window before appending so the new message appears in the
	// prompt exactly once.
	history, err := s.store.ListMessages(ctx, s.userID, historyWindow)
	if err != nil {
		s.log.Warn().Err(err).Msg("History fetch failed, prompting without context")
		history = nil
	}

	userMsg := &domain.Message{
		ID:        domain.NewMessageID(s.now()),
		Sender:    domain.SenderUser,
		Text:      text,
		Timestamp: s.now(),
	}
	if err := s.store.AppendMessage(ctx, s.userID, userMsg); err != nil {
		s.log.Warn().Err(err).Msg("User message not persisted")
	}

	raw, err := s.gen.Generate(ctx, model.BuildPrompt(history, text))
	if err != nil {
		s.log.Error().Err(err).Msg("Model call failed")
		return s.reply(ctx, replyModelFailure, "")
	}

	s.mu.Lock()
	s.state = StateDispatching
	lastWallet := s.lastWalletName
	s.mu.Unlock()

	res := intent.Extract(raw)
	switch res.Kind {
	case intent.KindText:
		return s.reply(ctx, res.Text, "")
	case intent.KindMalformed:
		s.log.Warn().Str("raw", raw).Msg("Model reply looked like a command but did not parse")
		return s.reply(ctx, replyNotUnderstood, "")
	}

	outcome, err := s.svc.Handle(ctx, s.userID, res.Command, lastWallet)
	if err != nil {
		s.log.Warn().Err(err).Msg("Command rejected")
		return s.reply(ctx, renderError(err), "")
	}

	confirmation := renderOutcome(outcome)
	if s.phraser != nil {
		confirmation = s.rephrase(ctx, confirmation)
	}

	if outcome.WalletName != "" {
		s.mu.Lock()
		s.lastWalletName = outcome.WalletName
		s.mu.Unlock()
	}
	return s.reply(ctx, confirmation, outcome.WalletName)
}

// rephrase runs the confirmation draft through the phraser, falling back to
// the deterministic template on any failure.
func (s *Session) rephrase(ctx context.Context, draft string) string {
	out, err := s.phraser.Rephrase(ctx, draft)
	if err != nil || out == "" {
		s.log.Warn().Err(err).Msg("Rephrase failed, using template")
		return draft
	}
	return out
}

// reply persists and returns the bot message. Persistence failure is logged
// but does not swallow the reply.
func (s *Session) reply(ctx context.Context, text, walletName string) (*domain.Message, error) {
	m := s.newBotMessage(text, walletName)
	if err := s.store.AppendMessage(ctx, s.userID, m); err != nil {
		s.log.Warn().Err(err).Msg("Bot message not persisted")
	}
	return m, nil
}

func (s *Session) newBotMessage(text, walletName string) *domain.Message {
	return &domain.Message{
		ID:         domain.NewMessageID(s.now()),
		Sender:     domain.SenderBot,
		Text:       text,
		WalletName: walletName,
		Timestamp:  s.now(),
	}
}
