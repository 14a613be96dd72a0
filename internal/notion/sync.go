package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/lehuyminh/wallet-assistant/internal/logger"
	"github.com/lehuyminh/wallet-assistant/internal/store"
)

// SyncWallets mirrors the user's wallets (trash included) into the Wallets
// database. Pages whose Wallet ID no longer exists in the store are archived.
func SyncWallets(ctx context.Context, st store.Store, svc Service, databaseID, userID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	wallets, err := st.ListWallets(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list wallets: %w", err)
	}
	trash, err := st.ListTrash(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list trash: %w", err)
	}
	wallets = append(wallets, trash...)

	log.Info().Int("wallet_count", len(wallets)).Bool("dry_run", dryRun).Msg("Starting wallet sync to Notion")

	pages, err := queryAllPages(ctx, svc, databaseID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	valid := make(map[string]bool)
	for _, w := range wallets {
		valid[w.ID] = true
	}

	// Page ID per wallet ID so existing pages get updated, not duplicated.
	existing := make(map[string]string)
	var deleted int
	for _, page := range pages {
		id := extractTitleID(page, "Wallet ID")
		if id != "" && valid[id] {
			existing[id] = string(page.ID)
			continue
		}
		if dryRun {
			log.Info().Str("wallet_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale wallet page")
			deleted++
			continue
		}
		if err := svc.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale wallet page")
			continue
		}
		deleted++
	}

	var created, updated int
	for _, w := range wallets {
		props := WalletToProperties(w)
		if pageID, ok := existing[w.ID]; ok {
			if dryRun {
				log.Info().Str("wallet", w.Name).Msg("[DRY RUN] Would update wallet page")
			} else if _, err := svc.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("wallet", w.Name).Msg("Failed to update wallet page")
				continue
			}
			updated++
			continue
		}
		if dryRun {
			log.Info().Str("wallet", w.Name).Msg("[DRY RUN] Would create wallet page")
		} else if _, err := svc.CreatePage(ctx, databaseID, props); err != nil {
			log.Warn().Err(err).Str("wallet", w.Name).Msg("Failed to create wallet page")
			continue
		}
		created++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("deleted", deleted).
		Msg("Wallet sync completed")
	return nil
}

// SyncTransactions mirrors all transactions of the user's wallets into the
// Transactions database. The Transaction ID title keeps the sync idempotent;
// stale pages are archived.
func SyncTransactions(ctx context.Context, st store.Store, svc Service, databaseID, userID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	wallets, err := st.ListWallets(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list wallets: %w", err)
	}
	trash, err := st.ListTrash(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list trash: %w", err)
	}
	wallets = append(wallets, trash...)

	type entry struct {
		props notionapi.Properties
		txID  string
	}
	var entries []entry
	valid := make(map[string]bool)
	for _, w := range wallets {
		txns, err := st.ListTransactions(ctx, userID, w.ID)
		if err != nil {
			return fmt.Errorf("failed to list transactions of %s: %w", w.ID, err)
		}
		for _, t := range txns {
			valid[t.ID] = true
			entries = append(entries, entry{props: TransactionToProperties(t, w.Name), txID: t.ID})
		}
	}

	log.Info().Int("transaction_count", len(entries)).Bool("dry_run", dryRun).Msg("Starting transaction sync to Notion")

	pages, err := queryAllPages(ctx, svc, databaseID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	existing := make(map[string]string)
	var deleted int
	for _, page := range pages {
		id := extractTitleID(page, "Transaction ID")
		if id != "" && valid[id] {
			existing[id] = string(page.ID)
			continue
		}
		if dryRun {
			log.Info().Str("transaction_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale transaction page")
			deleted++
			continue
		}
		if err := svc.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale transaction page")
			continue
		}
		deleted++
	}

	var created, updated int
	for _, e := range entries {
		if pageID, ok := existing[e.txID]; ok {
			if dryRun {
				log.Info().Str("transaction_id", e.txID).Msg("[DRY RUN] Would update transaction page")
			} else if _, err := svc.UpdatePage(ctx, pageID, e.props); err != nil {
				log.Warn().Err(err).Str("transaction_id", e.txID).Msg("Failed to update transaction page")
				continue
			}
			updated++
			continue
		}
		if dryRun {
			log.Info().Str("transaction_id", e.txID).Msg("[DRY RUN] Would create transaction page")
		} else if _, err := svc.CreatePage(ctx, databaseID, e.props); err != nil {
			log.Warn().Err(err).Str("transaction_id", e.txID).Msg("Failed to create transaction page")
			continue
		}
		created++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("deleted", deleted).
		Msg("Transaction sync completed")
	return nil
}

// queryAllPages pages through a Notion database and returns every page.
func queryAllPages(ctx context.Context, svc Service, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		}
		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return pages, nil
}
