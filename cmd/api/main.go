package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/api/handlers"
	"github.com/lehuyminh/wallet-assistant/internal/api/middleware"
	"github.com/lehuyminh/wallet-assistant/internal/chat"
	"github.com/lehuyminh/wallet-assistant/internal/ledger"
	"github.com/lehuyminh/wallet-assistant/internal/logger"
	"github.com/lehuyminh/wallet-assistant/internal/model"
	"github.com/lehuyminh/wallet-assistant/internal/resolver"
	"github.com/lehuyminh/wallet-assistant/internal/store"
	firestorestore "github.com/lehuyminh/wallet-assistant/internal/store/firestore"
	memorystore "github.com/lehuyminh/wallet-assistant/internal/store/memory"
)

func main() {
	// Parse command-line flags
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		storeKind = flag.String("store", "memory", "Backing store: memory or firestore")
		project   = flag.String("project", os.Getenv("FIRESTORE_PROJECT"), "GCP project for the firestore store (or set FIRESTORE_PROJECT env)")
		modelName = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
		rephrase  = flag.Bool("rephrase", false, "Rephrase confirmations through the model")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Initialize store
	var (
		st  store.Store
		err error
	)
	switch *storeKind {
	case "memory":
		st = memorystore.NewStore()
		log.Warn().Msg("Using in-memory store - data is lost on restart")
	case "firestore":
		if *project == "" {
			log.Fatal().Msg("Firestore store requires -project or FIRESTORE_PROJECT")
		}
		fs, ferr := firestorestore.NewStore(ctx, *project)
		if ferr != nil {
			log.Fatal().Err(ferr).Msg("Failed to create firestore store")
		}
		defer fs.Close()
		st = fs
	default:
		log.Fatal().Str("store", *storeKind).Msg("Unknown store kind")
	}

	// Initialize model
	gen, err := model.NewGeminiGenerator(ctx, *modelName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	// Initialize engine
	svc := ledger.NewService(st, resolver.New(), log)

	var sessionOpts []chat.SessionOption
	if *rephrase {
		sessionOpts = append(sessionOpts, chat.WithPhraser(chat.NewModelPhraser(gen)))
	}
	sessions := chat.NewManager(st, gen, svc, log, sessionOpts...)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(sessions, log)
	walletsHandler := handlers.NewWalletsHandler(svc, log)
	transactionsHandler := handlers.NewTransactionsHandler(svc, log)
	statisticsHandler := handlers.NewStatisticsHandler(svc, log)

	// Create router
	mux := http.NewServeMux()

	// Chat endpoints
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			chatHandler.History(w, r)
		case http.MethodPost:
			chatHandler.Send(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Wallet endpoints
	mux.HandleFunc("/api/wallets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			walletsHandler.ListWallets(w, r)
		case http.MethodPost:
			walletsHandler.CreateWallet(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/wallets/trash", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			walletsHandler.ListTrash(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/wallets/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/wallets/")
		parts := strings.Split(strings.Trim(rest, "/"), "/")
		if parts[0] == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Wallet ID is required")
			return
		}
		walletID := parts[0]

		switch {
		case len(parts) == 1 && r.Method == http.MethodPut:
			walletsHandler.UpdateWallet(w, r, walletID)
		case len(parts) == 1 && r.Method == http.MethodDelete:
			walletsHandler.DeleteWallet(w, r, walletID)
		case len(parts) == 2 && parts[1] == "restore" && r.Method == http.MethodPost:
			walletsHandler.RestoreWallet(w, r, walletID)
		case len(parts) == 2 && parts[1] == "transactions" && r.Method == http.MethodGet:
			transactionsHandler.ListTransactions(w, r, walletID)
		case len(parts) == 3 && parts[1] == "transactions" && r.Method == http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, walletID, parts[2])
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transaction endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.CreateTransaction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Statistics endpoints
	mux.HandleFunc("/api/statistics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statisticsHandler.GetStatistics(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("store", *storeKind).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
