package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lehuyminh/wallet-assistant/internal/chat"
	"github.com/lehuyminh/wallet-assistant/internal/domain"
	"github.com/lehuyminh/wallet-assistant/internal/ledger"
	"github.com/lehuyminh/wallet-assistant/internal/logger"
	"github.com/lehuyminh/wallet-assistant/internal/model"
	"github.com/lehuyminh/wallet-assistant/internal/resolver"
	"github.com/lehuyminh/wallet-assistant/internal/store"
	firestorestore "github.com/lehuyminh/wallet-assistant/internal/store/firestore"
	memorystore "github.com/lehuyminh/wallet-assistant/internal/store/memory"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "wallets":
		runWallets(log)
	case "watch":
		runWatch(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Wallet Assistant CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat      Talk to the assistant in an interactive loop")
	fmt.Println("  wallets   List wallets and the trash")
	fmt.Println("  watch     Stream wallet changes to the terminal")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// storeFlags registers the shared store flags on a flag set.
func storeFlags(fs *flag.FlagSet) (kind, project, user *string) {
	kind = fs.String("store", "memory", "Backing store: memory or firestore")
	project = fs.String("project", os.Getenv("FIRESTORE_PROJECT"), "GCP project for the firestore store")
	user = fs.String("user", os.Getenv("WALLET_USER"), "User ID to act as (or set WALLET_USER env)")
	return
}

func openStore(ctx context.Context, log zerolog.Logger, kind, project string) (store.Store, func()) {
	switch kind {
	case "memory":
		log.Warn().Msg("Using in-memory store - data is lost on exit")
		return memorystore.NewStore(), func() {}
	case "firestore":
		if project == "" {
			log.Fatal().Msg("Firestore store requires -project or FIRESTORE_PROJECT")
		}
		fs, err := firestorestore.NewStore(ctx, project)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create firestore store")
		}
		return fs, func() { fs.Close() }
	}
	log.Fatal().Str("store", kind).Msg("Unknown store kind")
	return nil, nil
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	kind, project, user := storeFlags(fs)
	modelName := fs.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name")
	rephrase := fs.Bool("rephrase", false, "Rephrase confirmations through the model")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	st, closeStore := openStore(ctx, log, *kind, *project)
	defer closeStore()

	gen, err := model.NewGeminiGenerator(ctx, *modelName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model client")
	}

	svc := ledger.NewService(st, resolver.New(), log)

	var opts []chat.SessionOption
	if *rephrase {
		opts = append(opts, chat.WithPhraser(chat.NewModelPhraser(gen)))
	}
	session := chat.NewSession(*user, st, gen, svc, log, opts...)

	history, err := session.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load conversation")
	}
	for _, m := range history {
		printMessage(m)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			break
		}

		reply, err := session.Submit(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printMessage(reply)
	}
}

func printMessage(m *domain.Message) {
	prefix := "Bot"
	if m.Sender == domain.SenderUser {
		prefix = "You"
	}
	fmt.Printf("%s: %s\n", prefix, m.Text)
}

func runWallets(log zerolog.Logger) {
	fs := flag.NewFlagSet("wallets", flag.ExitOnError)
	kind, project, user := storeFlags(fs)
	showTrash := fs.Bool("trash", false, "Show the trash instead of active wallets")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	st, closeStore := openStore(ctx, log, *kind, *project)
	defer closeStore()

	svc := ledger.NewService(st, resolver.New(), log)

	var (
		wallets []*domain.Wallet
		err     error
	)
	if *showTrash {
		wallets, err = svc.Trash(ctx, *user)
	} else {
		wallets, err = svc.Wallets(ctx, *user)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list wallets")
	}

	if len(wallets) == 0 {
		fmt.Println("No wallets.")
		return
	}
	for _, w := range wallets {
		fmt.Printf("%-36s  %-20s  %12.2f %s\n", w.ID, w.Name, w.Balance, w.Currency)
	}
}

func runWatch(log zerolog.Logger) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	kind, project, user := storeFlags(fs)
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	st, closeStore := openStore(ctx, log, *kind, *project)
	defer closeStore()

	updates, err := st.WatchWallets(ctx, *user)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to watch wallets")
	}

	fmt.Println("Watching wallets (Ctrl+C to stop)...")
	for wallets := range updates {
		fmt.Printf("--- %d wallet(s) ---\n", len(wallets))
		for _, w := range wallets {
			fmt.Printf("%-20s  %12.2f %s\n", w.Name, w.Balance, w.Currency)
		}
	}
}
