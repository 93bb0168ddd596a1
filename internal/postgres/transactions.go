package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

const selectTransactionColumns = `
	t.id, t.tipo, t.numero_nota_fiscal, t.data_emissao, t.descricao, t.status,
	t.valor_total, t.fornecedor_cliente_id, t.faturado_id,
	fp.id, fp.tipo, fp.razao_social, fp.fantasia, fp.documento, fp.status,
	ip.id, ip.tipo, ip.razao_social, ip.fantasia, ip.documento, ip.status
`

const transactionJoins = `
	FROM core_accounttransaction t
	JOIN core_person fp ON fp.id = t.fornecedor_cliente_id
	JOIN core_person ip ON ip.id = t.faturado_id
`

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var tx domain.Transaction

	var provider, invoiced domain.Party

	var dirStr, statusStr, provRole, provStatus, invRole, invStatus string

	var provTrade, invTrade sql.NullString

	if err := s.Scan(
		&tx.ID, &dirStr, &tx.InvoiceNumber, &tx.IssueDate, &tx.Description, &statusStr,
		&tx.TotalAmount, &tx.ProviderID, &tx.InvoicedID,
		&provider.ID, &provRole, &provider.LegalName, &provTrade, &provider.Document, &provStatus,
		&invoiced.ID, &invRole, &invoiced.LegalName, &invTrade, &invoiced.Document, &invStatus,
	); err != nil {
		return nil, err
	}

	tx.Direction = domain.Direction(dirStr)
	tx.Status = domain.RowStatus(statusStr)

	provider.Role = domain.PartyRole(provRole)
	provider.Status = domain.RowStatus(provStatus)
	provider.TradeName = provTrade.String
	tx.Provider = &provider

	invoiced.Role = domain.PartyRole(invRole)
	invoiced.Status = domain.RowStatus(invStatus)
	invoiced.TradeName = invTrade.String
	tx.Invoiced = &invoiced

	return &tx, nil
}

// TransactionFilter narrows FilterTransactions. Empty fields are not
// applied; they never collapse the result to nothing on their own.
type TransactionFilter struct {
	PartyIDs       []int64 // matches provider OR invoiced side
	InvoiceNumbers []string
	From           *time.Time
	To             *time.Time
	Labels         []string // classification labels, exact match
	Limit          int
}

// InvoiceNumberExists reports whether any stored transaction already
// carries the invoice number.
func (s *Store) InvoiceNumberExists(ctx context.Context, invoiceNumber string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM core_accounttransaction WHERE numero_nota_fiscal = $1)`,
		invoiceNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking invoice number: %w", err)
	}

	return exists, nil
}

// CreateTransaction writes a transaction plus its installments and
// classification links, and the embedding when present, in one
// database transaction. A duplicate invoice number aborts the whole
// unit with domain.ErrDuplicateInvoice and leaves no rows behind.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction, classificationIDs []int64) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var exists bool
	if err := dbTx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM core_accounttransaction WHERE numero_nota_fiscal = $1)`,
		tx.InvoiceNumber,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking invoice number: %w", err)
	}

	if exists {
		return fmt.Errorf("invoice %q: %w", tx.InvoiceNumber, domain.ErrDuplicateInvoice)
	}

	var embedding any
	if len(tx.Embedding) > 0 {
		embedding = pgvector.NewVector(tx.Embedding)
	}

	insertTx := `
		INSERT INTO core_accounttransaction
			(tipo, numero_nota_fiscal, data_emissao, descricao, status,
			 valor_total, fornecedor_cliente_id, faturado_id, descricao_embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err = dbTx.QueryRowContext(ctx, insertTx,
		tx.Direction,
		tx.InvoiceNumber,
		tx.IssueDate,
		tx.Description,
		domain.StatusActive,
		tx.TotalAmount,
		tx.ProviderID,
		tx.InvoicedID,
		embedding,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	tx.Status = domain.StatusActive

	insertInst := `
		INSERT INTO core_installment
			(account_transaction_id, identificacao, data_vencimento,
			 valor_parcela, valor_pago, valor_saldo, status_parcela)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	for i := range tx.Installments {
		inst := &tx.Installments[i]
		inst.TransactionID = tx.ID

		err := dbTx.QueryRowContext(ctx, insertInst,
			tx.ID, inst.Label, inst.DueDate,
			inst.Amount, inst.AmountPaid, inst.Balance, inst.Status,
		).Scan(&inst.ID)
		if err != nil {
			return fmt.Errorf("inserting installment %s: %w", inst.Label, err)
		}
	}

	insertLink := `
		INSERT INTO core_accounttransaction_classificacoes (account_transaction_id, classification_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	for _, cid := range classificationIDs {
		if _, err := dbTx.ExecContext(ctx, insertLink, tx.ID, cid); err != nil {
			return fmt.Errorf("linking classification %d: %w", cid, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// GetTransaction loads one transaction with both parties attached.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + transactionJoins + `WHERE t.id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

// FilterTransactions returns active transactions matching the filter,
// parties attached, classifications batch-loaded. Only non-empty
// filter fields are applied.
func (s *Store) FilterTransactions(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error) {
	where, args := transactionFilterWhere(filter)

	query := `SELECT ` + selectTransactionColumns + transactionJoins + where +
		" ORDER BY t.data_emissao DESC, t.id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachClassifications(ctx, txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// DeactivateTransaction soft-deletes a transaction.
func (s *Store) DeactivateTransaction(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE core_accounttransaction SET status = $1 WHERE id = $2`, domain.StatusInactive, id)
	if err != nil {
		return fmt.Errorf("deactivating transaction: %w", err)
	}

	return nil
}

func (s *Store) attachClassifications(ctx context.Context, txs []*domain.Transaction) error {
	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}

	byTx, err := s.classificationsByTransaction(ctx, ids)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		tx.Classifications = byTx[tx.ID]
	}

	return nil
}

func (s *Store) attachInstallments(ctx context.Context, txs []*domain.Transaction) error {
	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}

	byTx, err := s.installmentsByTransaction(ctx, ids)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		tx.Installments = byTx[tx.ID]
	}

	return nil
}
