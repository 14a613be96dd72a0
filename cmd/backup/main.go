package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lehuyminh/wallet-assistant/internal/backup"
	"github.com/lehuyminh/wallet-assistant/internal/logger"
	firestorestore "github.com/lehuyminh/wallet-assistant/internal/store/firestore"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "save":
		runSave(log)
	case "restore":
		runRestore(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Wallet Assistant backup")
	fmt.Println("\nUsage:")
	fmt.Println("  backup <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  save      Snapshot a user's ledger to GCS")
	fmt.Println("  restore   Restore a GCS snapshot into an empty store")
	fmt.Println("  help      Show this help message")
}

func commonFlags(fs *flag.FlagSet) (project, user, bucket, object *string) {
	project = fs.String("project", os.Getenv("FIRESTORE_PROJECT"), "GCP project of the firestore store (required)")
	user = fs.String("user", os.Getenv("WALLET_USER"), "User ID (required)")
	bucket = fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket (required)")
	object = fs.String("object", "", "GCS object name (defaults to backups/<user>.json)")
	return
}

func runSave(log zerolog.Logger) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	project, user, bucket, object := commonFlags(fs)
	fs.Parse(os.Args[2:])

	validate(log, *project, *user, *bucket)
	if *object == "" {
		*object = fmt.Sprintf("backups/%s.json", *user)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := firestorestore.NewStore(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create firestore store")
	}
	defer st.Close()

	snap, err := backup.TakeSnapshot(ctx, st, *user)
	if err != nil {
		log.Fatal().Err(err).Msg("Snapshot failed")
	}
	if err := backup.Upload(ctx, *bucket, *object, snap); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Saved %d wallet(s), %d transaction(s), %d message(s) to gs://%s/%s\n",
		len(snap.Wallets), len(snap.Transactions), len(snap.Messages), *bucket, *object)
}

func runRestore(log zerolog.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	project, user, bucket, object := commonFlags(fs)
	fs.Parse(os.Args[2:])

	validate(log, *project, *user, *bucket)
	if *object == "" {
		*object = fmt.Sprintf("backups/%s.json", *user)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := firestorestore.NewStore(ctx, *project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create firestore store")
	}
	defer st.Close()

	snap, err := backup.Download(ctx, *bucket, *object)
	if err != nil {
		log.Fatal().Err(err).Msg("Download failed")
	}

	// The snapshot records its own user; -user only selects the object name.
	if err := backup.Restore(ctx, st, snap); err != nil {
		log.Fatal().Err(err).Msg("Restore failed")
	}

	fmt.Printf("Restored %d wallet(s), %d transaction(s), %d message(s) for user %s\n",
		len(snap.Wallets), len(snap.Transactions), len(snap.Messages), snap.UserID)
}

func validate(log zerolog.Logger, project, user, bucket string) {
	if project == "" {
		log.Fatal().Msg("Error: --project is required")
	}
	if user == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if bucket == "" {
		log.Fatal().Msg("Error: --bucket is required")
	}
}
