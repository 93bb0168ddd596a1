package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

const selectInstallmentColumns = `
	i.id, i.account_transaction_id, i.identificacao, i.data_vencimento,
	i.valor_parcela, i.valor_pago, i.valor_saldo, i.status_parcela
`

func scanInstallment(s scanner) (*domain.Installment, error) {
	var inst domain.Installment

	var statusStr string

	if err := s.Scan(
		&inst.ID, &inst.TransactionID, &inst.Label, &inst.DueDate,
		&inst.Amount, &inst.AmountPaid, &inst.Balance, &statusStr,
	); err != nil {
		return nil, err
	}

	inst.Status = domain.InstallmentStatus(statusStr)

	return &inst, nil
}

// InstallmentFilter narrows FilterInstallments; empty fields are not
// applied.
type InstallmentFilter struct {
	TransactionIDs []int64
	DueFrom        *time.Time
	DueTo          *time.Time
	Limit          int
}

// FilterInstallments returns installments matching the filter, oldest
// due date first. Each row carries its parent invoice number for
// rendering without a second lookup.
func (s *Store) FilterInstallments(ctx context.Context, filter InstallmentFilter) ([]*domain.Installment, map[int64]string, error) {
	where, args := installmentFilterWhere(filter)

	query := `
		SELECT ` + selectInstallmentColumns + `, t.numero_nota_fiscal
		FROM core_installment i
		JOIN core_accounttransaction t ON t.id = i.account_transaction_id` +
		where + " ORDER BY i.data_vencimento, i.id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("filtering installments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Installment

	invoiceNumbers := make(map[int64]string)

	for rows.Next() {
		var inst domain.Installment

		var statusStr, invoiceNumber string

		if err := rows.Scan(
			&inst.ID, &inst.TransactionID, &inst.Label, &inst.DueDate,
			&inst.Amount, &inst.AmountPaid, &inst.Balance, &statusStr,
			&invoiceNumber,
		); err != nil {
			return nil, nil, fmt.Errorf("scanning installment: %w", err)
		}

		inst.Status = domain.InstallmentStatus(statusStr)
		invoiceNumbers[inst.TransactionID] = invoiceNumber
		out = append(out, &inst)
	}

	return out, invoiceNumbers, rows.Err()
}

// installmentsByTransaction loads installments for a transaction id
// set in one query, keyed by transaction id, due date order.
func (s *Store) installmentsByTransaction(ctx context.Context, txIDs []int64) (map[int64][]domain.Installment, error) {
	if len(txIDs) == 0 {
		return map[int64][]domain.Installment{}, nil
	}

	query := `SELECT ` + selectInstallmentColumns + `
		FROM core_installment i
		WHERE i.account_transaction_id = ANY($1)
		ORDER BY i.data_vencimento, i.id`

	rows, err := s.db.QueryContext(ctx, query, txIDs)
	if err != nil {
		return nil, fmt.Errorf("loading installments: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Installment)

	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning installment: %w", err)
		}

		out[inst.TransactionID] = append(out[inst.TransactionID], *inst)
	}

	return out, rows.Err()
}
