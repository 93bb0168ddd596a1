package embedding

import (
	"context"
	"sync"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/logger"
)

// BackfillStore is the slice of the persistence layer the backfill
// needs.
type BackfillStore interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.Transaction, error)
	UpdateEmbedding(ctx context.Context, txID int64, vector []float32) error
}

// BackfillResult sums up one run.
type BackfillResult struct {
	Scanned int
	Updated int
	Failed  int
}

// Backfiller computes vectors for transactions stored without one.
// Rows end up without a vector when the embedding call failed during
// ingestion or when they predate semantic search.
type Backfiller struct {
	store    BackfillStore
	embedder Embedder
	workers  int
}

// NewBackfiller creates a backfiller running the given number of
// concurrent workers.
func NewBackfiller(store BackfillStore, embedder Embedder, workers int) *Backfiller {
	if workers <= 0 {
		workers = 5
	}

	return &Backfiller{
		store:    store,
		embedder: embedder,
		workers:  workers,
	}
}

// Run embeds up to limit transactions missing a vector. Individual
// failures are logged and counted, never fatal: a transaction without
// an embedding stays invisible to semantic search and nothing else.
func (b *Backfiller) Run(ctx context.Context, limit int) (BackfillResult, error) {
	txs, err := b.store.ListMissingEmbeddings(ctx, limit)
	if err != nil {
		return BackfillResult{}, err
	}

	result := BackfillResult{Scanned: len(txs)}
	if len(txs) == 0 {
		return result, nil
	}

	jobs := make(chan *domain.Transaction)

	var wg sync.WaitGroup

	var mu sync.Mutex

	for i := 0; i < b.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for tx := range jobs {
				ok := b.process(ctx, tx)

				mu.Lock()
				if ok {
					result.Updated++
				} else {
					result.Failed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, tx := range txs {
		select {
		case jobs <- tx:
		case <-ctx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	return result, ctx.Err()
}

func (b *Backfiller) process(ctx context.Context, tx *domain.Transaction) bool {
	log := logger.FromContext(ctx)

	text := BuildRichContext(RichInputFromTransaction(tx))

	vector, err := b.embedder.Embed(ctx, text)
	if err != nil {
		log.Warn().Err(err).Int64("transaction_id", tx.ID).Msg("embedding failed")
		return false
	}

	if vector == nil {
		return false
	}

	if err := b.store.UpdateEmbedding(ctx, tx.ID, vector); err != nil {
		log.Warn().Err(err).Int64("transaction_id", tx.ID).Msg("storing embedding failed")
		return false
	}

	return true
}

// RichInputFromTransaction rebuilds the indexing input from a stored
// row. Dates take the same DD/MM/YYYY shape ingestion uses, so a
// backfilled vector matches what ingestion would have produced.
func RichInputFromTransaction(tx *domain.Transaction) RichContextInput {
	in := RichContextInput{
		InvoiceNumber:    tx.InvoiceNumber,
		IssueDate:        tx.IssueDate.Format("02/01/2006"),
		TotalAmount:      tx.TotalAmount,
		InstallmentCount: len(tx.Installments),
	}

	if tx.Provider != nil {
		in.ProviderName = tx.Provider.LegalName
	}

	if tx.Invoiced != nil {
		in.InvoicedName = tx.Invoiced.LegalName
	}

	if len(tx.Installments) > 0 {
		in.DueDate = tx.Installments[0].DueDate.Format("02/01/2006")
	}

	if tx.Description != "" && tx.Description != domain.NoDescription {
		in.LineItems = []string{tx.Description}
	}

	for _, c := range tx.Classifications {
		in.Classifications = append(in.Classifications, c.Label)
	}

	return in
}
