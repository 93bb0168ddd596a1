// Package bqexport publishes monthly spending aggregates to BigQuery,
// where dashboards and ad-hoc analysis run without touching the
// operational database.
package bqexport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

// SpendingStore is the slice of the relational store the exporter reads.
type SpendingStore interface {
	MonthlySpending(ctx context.Context) ([]postgres.MonthlySpendingRow, error)
}

// Exporter appends spending aggregates to a BigQuery table. Months
// already present in the table are never rewritten, so the export is
// meant to run after a month has closed.
type Exporter struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// New connects to BigQuery using application default credentials.
func New(ctx context.Context, projectID, datasetID, tableID string) (*Exporter, error) {
	if projectID == "" {
		return nil, errors.New("bigquery project id is not configured")
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	return &Exporter{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close releases the underlying BigQuery client.
func (e *Exporter) Close() error {
	return e.client.Close()
}

// Result summarizes one export run.
type Result struct {
	RowsInserted  int
	MonthsSkipped int
}

// Run exports every (month, classification) aggregate whose month is
// not yet present in BigQuery. The table is created on first use and
// reruns only append months that are still missing.
func (e *Exporter) Run(ctx context.Context, store SpendingStore) (Result, error) {
	log := logger.FromContext(ctx)

	if err := e.ensureTable(ctx); err != nil {
		return Result{}, fmt.Errorf("Run: %w", err)
	}

	spending, err := store.MonthlySpending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("Run: reading aggregates: %w", err)
	}

	exported, err := e.exportedMonths(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("Run: %w", err)
	}

	rows, skipped := planRows(spending, exported, time.Now().UTC())

	result := Result{MonthsSkipped: skipped}
	if len(rows) == 0 {
		log.Info().
			Int("months_skipped", result.MonthsSkipped).
			Msg("No new months to export")

		return result, nil
	}

	inserter := e.client.Dataset(e.datasetID).Table(e.tableID).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return result, fmt.Errorf("Run: inserting rows: %w", err)
	}

	result.RowsInserted = len(rows)

	log.Info().
		Int("rows_inserted", result.RowsInserted).
		Int("months_skipped", result.MonthsSkipped).
		Msg("Monthly spending exported")

	return result, nil
}

// ensureTable creates the dataset and table when they do not exist yet.
func (e *Exporter) ensureTable(ctx context.Context) error {
	_, err := e.client.Dataset(e.datasetID).Table(e.tableID).Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("ensureTable: checking table: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("dataset", e.datasetID).
		Str("table", e.tableID).
		Msg("Creating BigQuery table")

	ddl := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS `%s.%s`", e.projectID, e.datasetID)
	if err := e.runDDL(ctx, ddl); err != nil {
		return fmt.Errorf("ensureTable: creating dataset: %w", err)
	}

	ddl = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.%s`"+` (
			month DATE NOT NULL,
			classification STRING NOT NULL,
			transaction_count INT64 NOT NULL,
			total_amount NUMERIC NOT NULL,
			open_balance NUMERIC NOT NULL,
			exported_at TIMESTAMP NOT NULL
		)`, e.projectID, e.datasetID, e.tableID)
	if err := e.runDDL(ctx, ddl); err != nil {
		return fmt.Errorf("ensureTable: creating table: %w", err)
	}

	return nil
}

func (e *Exporter) runDDL(ctx context.Context, sql string) error {
	query := e.client.Query(sql)

	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("starting job: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job failed: %w", err)
	}

	return nil
}

// exportedMonths returns the set of months already present in the table.
func (e *Exporter) exportedMonths(ctx context.Context) (map[civil.Date]bool, error) {
	q := e.client.Query(fmt.Sprintf(
		"SELECT DISTINCT month FROM `%s.%s.%s`",
		e.projectID, e.datasetID, e.tableID))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("exportedMonths: query read: %w", err)
	}

	months := make(map[civil.Date]bool)

	for {
		var r struct {
			Month civil.Date `bigquery:"month"`
		}

		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("exportedMonths: iter next: %w", err)
		}

		months[r.Month] = true
	}

	return months, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
