package bqexport

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

func TestNewSpendingRow(t *testing.T) {
	exportedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	row := newSpendingRow(postgres.MonthlySpendingRow{
		Month:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Classification:   "INSUMOS AGRÍCOLAS",
		TransactionCount: 4,
		TotalAmount:      decimal.RequireFromString("1500.50"),
		OpenBalance:      decimal.RequireFromString("750.25"),
	}, exportedAt)

	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 1}, row.Month)
	assert.Equal(t, "INSUMOS AGRÍCOLAS", row.Classification)
	assert.Equal(t, int64(4), row.TransactionCount)
	assert.Zero(t, row.TotalAmount.Cmp(big.NewRat(30010, 20)))
	assert.Zero(t, row.OpenBalance.Cmp(big.NewRat(75025, 100)))
	assert.Equal(t, exportedAt, row.ExportedAt)
}

func TestPlanRowsSkipsExportedMonths(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	spending := []postgres.MonthlySpendingRow{
		{Month: march, Classification: "INSUMOS AGRÍCOLAS", TransactionCount: 2, TotalAmount: decimal.RequireFromString("100.00"), OpenBalance: decimal.Zero},
		{Month: march, Classification: "COMBUSTÍVEL", TransactionCount: 1, TotalAmount: decimal.RequireFromString("50.00"), OpenBalance: decimal.Zero},
		{Month: april, Classification: "INSUMOS AGRÍCOLAS", TransactionCount: 3, TotalAmount: decimal.RequireFromString("200.00"), OpenBalance: decimal.RequireFromString("200.00")},
	}

	exported := map[civil.Date]bool{
		civil.DateOf(march): true,
	}

	rows, skipped := planRows(spending, exported, time.Now())

	require.Len(t, rows, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.April, Day: 1}, rows[0].Month)
	assert.Equal(t, "INSUMOS AGRÍCOLAS", rows[0].Classification)

	// Both March aggregates collapse into a single skipped month.
	assert.Equal(t, 1, skipped)
}

func TestPlanRowsEmptyWhenNothingNew(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	spending := []postgres.MonthlySpendingRow{
		{Month: march, Classification: "OUTRAS DESPESAS", TransactionCount: 1, TotalAmount: decimal.RequireFromString("10.00"), OpenBalance: decimal.Zero},
	}

	rows, skipped := planRows(spending, map[civil.Date]bool{civil.DateOf(march): true}, time.Now())

	assert.Empty(t, rows)
	assert.Equal(t, 1, skipped)
}
