package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/logger"
	"github.com/lehuyminh/wallet-assistant/internal/notion"
	firestorestore "github.com/lehuyminh/wallet-assistant/internal/store/firestore"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	project := flag.String("project", os.Getenv("FIRESTORE_PROJECT"), "GCP project of the firestore store (required)")
	user := flag.String("user", os.Getenv("WALLET_USER"), "User ID to sync (required)")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (required)")
	walletsDBID := flag.String("wallets-db-id", "", "Notion database ID for wallets")
	transactionsDBID := flag.String("transactions-db-id", "", "Notion database ID for transactions")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}
	if *user == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *walletsDBID == "" && *transactionsDBID == "" {
		log.Fatal().Msg("Error: at least one of --wallets-db-id or --transactions-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	st, err := firestorestore.NewStore(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create firestore store")
	}
	defer st.Close()

	client := notion.NewClient(*notionToken)

	log.Info().
		Str("user_id", *user).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	if *walletsDBID != "" {
		if err := notion.SyncWallets(ctx, st, client, *walletsDBID, *user, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Wallet sync failed")
		}
	}
	if *transactionsDBID != "" {
		if err := notion.SyncTransactions(ctx, st, client, *transactionsDBID, *user, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Transaction sync failed")
		}
	}

	fmt.Println("Notion sync completed successfully.")
}
