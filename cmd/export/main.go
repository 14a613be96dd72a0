package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/export"
	"github.com/lehuyminh/wallet-assistant/internal/logger"
	firestorestore "github.com/lehuyminh/wallet-assistant/internal/store/firestore"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	project := flag.String("project", os.Getenv("FIRESTORE_PROJECT"), "GCP project of the firestore store (required)")
	user := flag.String("user", os.Getenv("WALLET_USER"), "User ID to export (required)")
	bqProject := flag.String("bq-project", "", "BigQuery project (defaults to --project)")
	dataset := flag.String("dataset", "ledger", "BigQuery dataset")
	flag.Parse()

	// Validate required flags
	if *project == "" {
		log.Fatal().Msg("Error: --project is required")
	}
	if *user == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *bqProject == "" {
		*bqProject = *project
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := firestorestore.NewStore(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create firestore store")
	}
	defer st.Close()

	exporter, err := export.NewExporter(ctx, *bqProject, *dataset, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exporter")
	}
	defer exporter.Close()

	count, err := exporter.Export(ctx, st, *user)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d transaction(s) to %s.%s\n", count, *bqProject, *dataset)
}
