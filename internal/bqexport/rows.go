package bqexport

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

// SpendingRow mirrors one row of the monthly spending table.
type SpendingRow struct {
	Month            civil.Date `bigquery:"month"`
	Classification   string     `bigquery:"classification"`
	TransactionCount int64      `bigquery:"transaction_count"`
	TotalAmount      *big.Rat   `bigquery:"total_amount"`
	OpenBalance      *big.Rat   `bigquery:"open_balance"`
	ExportedAt       time.Time  `bigquery:"exported_at"`
}

func newSpendingRow(src postgres.MonthlySpendingRow, exportedAt time.Time) *SpendingRow {
	return &SpendingRow{
		Month:            civil.DateOf(src.Month),
		Classification:   src.Classification,
		TransactionCount: src.TransactionCount,
		TotalAmount:      src.TotalAmount.Rat(),
		OpenBalance:      src.OpenBalance.Rat(),
		ExportedAt:       exportedAt,
	}
}

// planRows maps the aggregates whose month is not yet in BigQuery and
// reports how many months were skipped.
func planRows(spending []postgres.MonthlySpendingRow, exported map[civil.Date]bool, exportedAt time.Time) ([]*SpendingRow, int) {
	var rows []*SpendingRow
	skipped := make(map[civil.Date]bool)

	for _, src := range spending {
		month := civil.DateOf(src.Month)
		if exported[month] {
			skipped[month] = true
			continue
		}

		rows = append(rows, newSpendingRow(src, exportedAt))
	}

	return rows, len(skipped)
}
