// Package export streams a user's wallets and transactions into BigQuery for
// offline analysis. The export is a point-in-time copy; the live engine never
// reads it back.
package export

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"

	"github.com/lehuyminh/wallet-assistant/internal/store"
)

// Exporter writes ledger snapshots into a BigQuery dataset.
type Exporter struct {
	client  *bigquery.Client
	dataset string
	log     zerolog.Logger
}

// NewExporter creates an exporter with a shared BigQuery client.
func NewExporter(ctx context.Context, projectID, datasetID string, log zerolog.Logger) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return &Exporter{client: client, dataset: datasetID, log: log}, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Export copies the user's active and trashed wallets plus all their
// transactions into the dataset. It returns the number of exported
// transactions.
func (e *Exporter) Export(ctx context.Context, st store.Store, userID string) (int, error) {
	wallets, err := st.ListWallets(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("Export: listing wallets: %w", err)
	}
	trash, err := st.ListTrash(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("Export: listing trash: %w", err)
	}
	wallets = append(wallets, trash...)

	var walletRows []*WalletRow
	var txRows []*TransactionRow
	for _, w := range wallets {
		walletRows = append(walletRows, walletToRow(userID, w))

		txns, err := st.ListTransactions(ctx, userID, w.ID)
		if err != nil {
			return 0, fmt.Errorf("Export: listing transactions of %s: %w", w.ID, err)
		}
		for _, t := range txns {
			txRows = append(txRows, transactionToRow(userID, t))
		}
	}

	if len(walletRows) > 0 {
		inserter := e.client.Dataset(e.dataset).Table(walletsTable).Inserter()
		if err := inserter.Put(ctx, walletRows); err != nil {
			return 0, fmt.Errorf("Export: inserting wallets: %w", err)
		}
	}
	if len(txRows) > 0 {
		inserter := e.client.Dataset(e.dataset).Table(transactionsTable).Inserter()
		if err := inserter.Put(ctx, txRows); err != nil {
			return 0, fmt.Errorf("Export: inserting transactions: %w", err)
		}
	}

	e.log.Info().
		Str("user_id", userID).
		Int("wallets", len(walletRows)).
		Int("transactions", len(txRows)).
		Msg("Export completed")

	return len(txRows), nil
}
