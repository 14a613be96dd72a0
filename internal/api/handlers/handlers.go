package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lehuyminh/wallet-assistant/internal/api/middleware"
	"github.com/lehuyminh/wallet-assistant/internal/chat"
	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/ledger"
	"github.com/rs/zerolog"
)

// writeDomainError maps engine failures onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		middleware.WriteError(w, http.StatusBadRequest, ve.Error())
		return
	}
	var wnf *domain.WalletNotFoundError
	if errors.As(err, &wnf) {
		middleware.WriteError(w, http.StatusNotFound, wnf.Error())
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrNoWallet):
		middleware.WriteError(w, http.StatusBadRequest, "No wallet exists yet")
	case errors.Is(err, domain.ErrModelUnavailable):
		middleware.WriteError(w, http.StatusBadGateway, "Model call failed")
	case errors.Is(err, domain.ErrStoreUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Store unavailable")
	default:
		log.Error().Err(err).Msg("Unhandled engine error")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// ChatHandler handles the conversational endpoints.
type ChatHandler struct {
	sessions *chat.Manager
	log      zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(sessions *chat.Manager, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{sessions: sessions, log: log}
}

// History handles GET /api/chat
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	session := h.sessions.Session(userID)
	msgs, err := session.Load(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load conversation")
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages":    msgs,
		"count":       len(msgs),
		"last_wallet": session.LastWalletName(),
	})
}

// Send handles POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	session := h.sessions.Session(userID)
	reply, err := session.Submit(ctx, req.Text)
	if err != nil {
		if errors.Is(err, chat.ErrBusy) {
			middleware.WriteError(w, http.StatusConflict, "Previous message still processing")
			return
		}
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reply)
}

// WalletsHandler handles wallet CRUD and the trash.
type WalletsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewWalletsHandler creates a new wallets handler.
func NewWalletsHandler(svc *ledger.Service, log zerolog.Logger) *WalletsHandler {
	return &WalletsHandler{svc: svc, log: log}
}

// ListWallets handles GET /api/wallets
func (h *WalletsHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wallets, err := h.svc.Wallets(ctx, middleware.UserID(ctx))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if wallets == nil {
		wallets = []*domain.Wallet{}
	}
	middleware.WriteJSON(w, http.StatusOK, wallets)
}

// CreateWallet handles POST /api/wallets
func (h *WalletsHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Name     string  `json:"name"`
		Currency string  `json:"currency"`
		Balance  float64 `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := domain.CreateWalletCommand{Name: req.Name, Currency: req.Currency, Balance: req.Balance}
	outcome, err := h.svc.Handle(ctx, middleware.UserID(ctx), cmd, "")
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"name":     outcome.WalletName,
		"currency": outcome.Currency,
		"balance":  outcome.NewBalance,
	})
}

// ListTrash handles GET /api/wallets/trash
func (h *WalletsHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wallets, err := h.svc.Trash(ctx, middleware.UserID(ctx))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if wallets == nil {
		wallets = []*domain.Wallet{}
	}
	middleware.WriteJSON(w, http.StatusOK, wallets)
}

// UpdateWallet handles PUT /api/wallets/{id}
func (h *WalletsHandler) UpdateWallet(w http.ResponseWriter, r *http.Request, walletID string) {
	ctx := r.Context()

	var req struct {
		Name             string   `json:"name"`
		Balance          float64  `json:"balance"`
		ExpenseThreshold *float64 `json:"expense_threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wallet := &domain.Wallet{
		ID:               walletID,
		Name:             req.Name,
		Balance:          req.Balance,
		ExpenseThreshold: req.ExpenseThreshold,
	}
	if err := h.svc.EditWallet(ctx, middleware.UserID(ctx), wallet); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteWallet handles DELETE /api/wallets/{id} (soft delete into the trash).
func (h *WalletsHandler) DeleteWallet(w http.ResponseWriter, r *http.Request, walletID string) {
	ctx := r.Context()

	if err := h.svc.MoveWalletToTrash(ctx, middleware.UserID(ctx), walletID); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "trashed"})
}

// RestoreWallet handles POST /api/wallets/{id}/restore
func (h *WalletsHandler) RestoreWallet(w http.ResponseWriter, r *http.Request, walletID string) {
	ctx := r.Context()

	if err := h.svc.RestoreWallet(ctx, middleware.UserID(ctx), walletID); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *ledger.Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

// ListTransactions handles GET /api/wallets/{id}/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request, walletID string) {
	ctx := r.Context()

	txns, err := h.svc.WalletTransactions(ctx, middleware.UserID(ctx), walletID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if txns == nil {
		txns = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txns)
}

// CreateTransaction handles POST /api/transactions. The wallet is referenced
// by name and goes through the same resolution as the conversational path.
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Wallet        string   `json:"wallet"`
		Type          string   `json:"type"`
		Amount        float64  `json:"amount"`
		Category      string   `json:"category"`
		Note          string   `json:"note"`
		Tags          []string `json:"tags"`
		Recurrence    string   `json:"recurrence"`
		RecurrenceDay *int     `json:"recurrence_day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := domain.AddTransactionCommand{
		WalletRef:     req.Wallet,
		Type:          domain.TransactionType(req.Type),
		Amount:        req.Amount,
		Category:      req.Category,
		Note:          req.Note,
		Tags:          req.Tags,
		Recurrence:    domain.Recurrence(req.Recurrence),
		RecurrenceDay: req.RecurrenceDay,
	}
	outcome, err := h.svc.Handle(ctx, middleware.UserID(ctx), cmd, "")
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"wallet":             outcome.WalletName,
		"type":               outcome.Type,
		"amount":             outcome.Amount,
		"category":           outcome.Category,
		"balance":            outcome.NewBalance,
		"threshold_exceeded": outcome.ThresholdExceeded,
	})
}

// DeleteTransaction handles DELETE /api/wallets/{id}/transactions/{txId}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, walletID, txID string) {
	ctx := r.Context()

	if err := h.svc.DeleteTransaction(ctx, middleware.UserID(ctx), walletID, txID); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// StatisticsHandler handles GET /api/statistics.
type StatisticsHandler struct {
	svc *ledger.Service
	log zerolog.Logger
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(svc *ledger.Service, log zerolog.Logger) *StatisticsHandler {
	return &StatisticsHandler{svc: svc, log: log}
}

// GetStatistics handles GET /api/statistics?type=all&period=month
func (h *StatisticsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	statType := domain.StatisticType(query.Get("type"))
	period := domain.Period(query.Get("period"))
	if statType == "" {
		statType = domain.StatAll
	}
	if period == "" {
		period = domain.PeriodMonth
	}
	if !statType.Valid() || !period.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid type or period")
		return
	}

	cmd := domain.StatisticCommand{Type: statType, Period: period}
	outcome, err := h.svc.Handle(ctx, middleware.UserID(ctx), cmd, "")
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	items := outcome.Items
	if items == nil {
		items = []ledger.StatisticItem{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"type":   outcome.StatType,
		"period": outcome.Period,
		"total":  outcome.Total,
		"items":  items,
		"count":  len(items),
	})
}
