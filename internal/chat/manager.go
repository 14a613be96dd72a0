package chat

import (
	"sync"

	"github.com/lehuyminh/wallet-assistant/internal/ledger"
	"github.com/lehuyminh/wallet-assistant/internal/model"
	"github.com/lehuyminh/wallet-assistant/internal/store"
	"github.com/rs/zerolog"
)

// Manager hands out one long-lived session per user so that session state
// (busy flag, last-wallet default) survives across HTTP requests.
type Manager struct {
	store store.Store
	gen   model.Generator
	svc   *ledger.Service
	log   zerolog.Logger
	opts  []SessionOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. opts are applied to every session it
// creates.
func NewManager(st store.Store, gen model.Generator, svc *ledger.Service, log zerolog.Logger, opts ...SessionOption) *Manager {
	return &Manager{
		store:    st,
		gen:      gen,
		svc:      svc,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, creating it on first use.
func (m *Manager) Session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, m.store, m.gen, m.svc, m.log, m.opts...)
	m.sessions[userID] = s
	return s
}
