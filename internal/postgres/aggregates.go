package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

// GroupTotal is one grouped aggregate line: a label with its row count
// and summed amount.
type GroupTotal struct {
	Label string
	Count int64
	Total decimal.Decimal
}

// TransactionSummary aggregates a filtered transaction set.
type TransactionSummary struct {
	Count            int64
	Total            decimal.Decimal
	ByDirection      []GroupTotal
	ByClassification []GroupTotal // descending total, top 10
}

// InstallmentGroup is one status bucket of an installment summary.
type InstallmentGroup struct {
	Status  string
	Count   int64
	Total   decimal.Decimal
	Balance decimal.Decimal
}

// InstallmentSummary aggregates a filtered installment set.
type InstallmentSummary struct {
	Count    int64
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Balance  decimal.Decimal
	ByStatus []InstallmentGroup
}

// SummarizeTransactions computes count, total and groupings over the
// active transactions matching the filter.
func (s *Store) SummarizeTransactions(ctx context.Context, filter TransactionFilter) (*TransactionSummary, error) {
	where, args := transactionFilterWhere(filter)

	summary := &TransactionSummary{Total: decimal.Zero}

	totalQuery := `
		SELECT COUNT(*), COALESCE(SUM(t.valor_total), 0)
		FROM core_accounttransaction t ` + where

	if err := s.db.QueryRowContext(ctx, totalQuery, args...).Scan(&summary.Count, &summary.Total); err != nil {
		return nil, fmt.Errorf("summarizing transactions: %w", err)
	}

	byDirection := `
		SELECT t.tipo, COUNT(*), COALESCE(SUM(t.valor_total), 0)
		FROM core_accounttransaction t ` + where + `
		GROUP BY t.tipo
		ORDER BY 3 DESC`

	rows, err := s.db.QueryContext(ctx, byDirection, args...)
	if err != nil {
		return nil, fmt.Errorf("grouping by direction: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g GroupTotal
		if err := rows.Scan(&g.Label, &g.Count, &g.Total); err != nil {
			return nil, fmt.Errorf("scanning direction group: %w", err)
		}

		summary.ByDirection = append(summary.ByDirection, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byClassification := `
		SELECT c.descricao, COUNT(DISTINCT t.id), COALESCE(SUM(t.valor_total), 0)
		FROM core_accounttransaction t
		JOIN core_accounttransaction_classificacoes link ON link.account_transaction_id = t.id
		JOIN core_classification c ON c.id = link.classification_id ` + where + `
		GROUP BY c.descricao
		ORDER BY 3 DESC
		LIMIT 10`

	classRows, err := s.db.QueryContext(ctx, byClassification, args...)
	if err != nil {
		return nil, fmt.Errorf("grouping by classification: %w", err)
	}
	defer classRows.Close()

	for classRows.Next() {
		var g GroupTotal
		if err := classRows.Scan(&g.Label, &g.Count, &g.Total); err != nil {
			return nil, fmt.Errorf("scanning classification group: %w", err)
		}

		summary.ByClassification = append(summary.ByClassification, g)
	}

	return summary, classRows.Err()
}

// SummarizeInstallments computes totals and status buckets over the
// installments matching the filter.
func (s *Store) SummarizeInstallments(ctx context.Context, filter InstallmentFilter) (*InstallmentSummary, error) {
	where, args := installmentFilterWhere(filter)

	summary := &InstallmentSummary{
		Total:   decimal.Zero,
		Paid:    decimal.Zero,
		Balance: decimal.Zero,
	}

	totalQuery := `
		SELECT COUNT(*),
			COALESCE(SUM(i.valor_parcela), 0),
			COALESCE(SUM(i.valor_pago), 0),
			COALESCE(SUM(i.valor_saldo), 0)
		FROM core_installment i ` + where

	err := s.db.QueryRowContext(ctx, totalQuery, args...).
		Scan(&summary.Count, &summary.Total, &summary.Paid, &summary.Balance)
	if err != nil {
		return nil, fmt.Errorf("summarizing installments: %w", err)
	}

	byStatus := `
		SELECT i.status_parcela, COUNT(*),
			COALESCE(SUM(i.valor_parcela), 0),
			COALESCE(SUM(i.valor_saldo), 0)
		FROM core_installment i ` + where + `
		GROUP BY i.status_parcela
		ORDER BY 2 DESC`

	rows, err := s.db.QueryContext(ctx, byStatus, args...)
	if err != nil {
		return nil, fmt.Errorf("grouping by installment status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g InstallmentGroup
		if err := rows.Scan(&g.Status, &g.Count, &g.Total, &g.Balance); err != nil {
			return nil, fmt.Errorf("scanning status group: %w", err)
		}

		summary.ByStatus = append(summary.ByStatus, g)
	}

	return summary, rows.Err()
}

// MonthlySpendingRow is one (month, classification) aggregate used by
// the analytics export.
type MonthlySpendingRow struct {
	Month            time.Time
	Classification   string
	TransactionCount int64
	TotalAmount      decimal.Decimal
	OpenBalance      decimal.Decimal
}

// MonthlySpending aggregates active payable transactions per calendar
// month and classification, with the open installment balance per
// group, oldest month first.
func (s *Store) MonthlySpending(ctx context.Context) ([]MonthlySpendingRow, error) {
	query := `
		SELECT
			date_trunc('month', t.data_emissao)::date AS month,
			COALESCE(c.descricao, 'SEM CLASSIFICAÇÃO') AS classificacao,
			COUNT(DISTINCT t.id),
			COALESCE(SUM(t.valor_total), 0),
			COALESCE((
				SELECT SUM(i.valor_saldo)
				FROM core_installment i
				WHERE i.account_transaction_id = ANY(ARRAY_AGG(t.id)) AND i.status_parcela = 'aberta'
			), 0)
		FROM core_accounttransaction t
		LEFT JOIN core_accounttransaction_classificacoes link ON link.account_transaction_id = t.id
		LEFT JOIN core_classification c ON c.id = link.classification_id
		WHERE t.status = $1 AND t.tipo = $2
		GROUP BY 1, 2
		ORDER BY 1, 2
	`

	rows, err := s.db.QueryContext(ctx, query, domain.StatusActive, domain.DirectionPayable)
	if err != nil {
		return nil, fmt.Errorf("aggregating monthly spending: %w", err)
	}
	defer rows.Close()

	var out []MonthlySpendingRow

	for rows.Next() {
		var r MonthlySpendingRow
		if err := rows.Scan(&r.Month, &r.Classification, &r.TransactionCount, &r.TotalAmount, &r.OpenBalance); err != nil {
			return nil, fmt.Errorf("scanning monthly spending: %w", err)
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

func transactionFilterWhere(filter TransactionFilter) (string, []any) {
	where := " WHERE t.status = $1"

	args := []any{domain.StatusActive}
	argIdx := 2

	if len(filter.PartyIDs) > 0 {
		where += fmt.Sprintf(" AND (t.fornecedor_cliente_id = ANY($%d) OR t.faturado_id = ANY($%d))", argIdx, argIdx)

		args = append(args, filter.PartyIDs)
		argIdx++
	}

	if len(filter.InvoiceNumbers) > 0 {
		where += fmt.Sprintf(" AND t.numero_nota_fiscal = ANY($%d)", argIdx)

		args = append(args, filter.InvoiceNumbers)
		argIdx++
	}

	if filter.From != nil && filter.To != nil {
		where += fmt.Sprintf(" AND t.data_emissao BETWEEN $%d AND $%d", argIdx, argIdx+1)

		args = append(args, *filter.From, *filter.To)
		argIdx += 2
	}

	if len(filter.Labels) > 0 {
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM core_accounttransaction_classificacoes lk
			JOIN core_classification cc ON cc.id = lk.classification_id
			WHERE lk.account_transaction_id = t.id AND cc.descricao = ANY($%d)
		)`, argIdx)

		args = append(args, filter.Labels)
	}

	return where, args
}

func installmentFilterWhere(filter InstallmentFilter) (string, []any) {
	where := " WHERE 1=1"

	var args []any

	argIdx := 1

	if len(filter.TransactionIDs) > 0 {
		where += fmt.Sprintf(" AND i.account_transaction_id = ANY($%d)", argIdx)

		args = append(args, filter.TransactionIDs)
		argIdx++
	}

	if filter.DueFrom != nil && filter.DueTo != nil {
		where += fmt.Sprintf(" AND i.data_vencimento BETWEEN $%d AND $%d", argIdx, argIdx+1)

		args = append(args, *filter.DueFrom, *filter.DueTo)
	}

	return where, args
}
