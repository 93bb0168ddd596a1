package postgres

import (
	"context"
	"fmt"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

const selectClassificationColumns = `c.id, c.tipo, c.descricao, c.status`

func scanClassification(s scanner) (*domain.Classification, error) {
	var c domain.Classification

	var kindStr, statusStr string

	if err := s.Scan(&c.ID, &kindStr, &c.Label, &statusStr); err != nil {
		return nil, err
	}

	c.Kind = domain.ClassificationKind(kindStr)
	c.Status = domain.RowStatus(statusStr)

	return &c, nil
}

// GetOrCreateClassification finds a classification by label,
// case-insensitively, creating it on first use.
func (s *Store) GetOrCreateClassification(ctx context.Context, kind domain.ClassificationKind, label string) (*domain.Classification, bool, error) {
	findQuery := `SELECT ` + selectClassificationColumns + `
		FROM core_classification c
		WHERE LOWER(c.descricao) = LOWER($1)
		LIMIT 1`

	rows, err := s.db.QueryContext(ctx, findQuery, label)
	if err != nil {
		return nil, false, fmt.Errorf("finding classification: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scanning classification: %w", err)
		}

		return c, false, nil
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("finding classification: %w", err)
	}

	insertQuery := `
		INSERT INTO core_classification (tipo, descricao, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	c := &domain.Classification{Kind: kind, Label: label, Status: domain.StatusActive}
	if err := s.db.QueryRowContext(ctx, insertQuery, kind, label, domain.StatusActive).Scan(&c.ID); err != nil {
		return nil, false, fmt.Errorf("creating classification: %w", err)
	}

	return c, true, nil
}

// ListActiveClassifications returns active classifications, optionally
// restricted to a label set. A limit of zero or less returns every
// match.
func (s *Store) ListActiveClassifications(ctx context.Context, labels []string, limit int) ([]*domain.Classification, error) {
	query := `SELECT ` + selectClassificationColumns + ` FROM core_classification c WHERE c.status = $1`

	args := []any{domain.StatusActive}
	argIdx := 2

	if len(labels) > 0 {
		query += fmt.Sprintf(" AND c.descricao = ANY($%d)", argIdx)

		args = append(args, labels)
		argIdx++
	}

	query += " ORDER BY c.descricao"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing classifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Classification

	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning classification: %w", err)
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

// classificationsByTransaction loads the m2m links for a transaction
// id set in one query, keyed by transaction id.
func (s *Store) classificationsByTransaction(ctx context.Context, txIDs []int64) (map[int64][]domain.Classification, error) {
	if len(txIDs) == 0 {
		return map[int64][]domain.Classification{}, nil
	}

	query := `
		SELECT link.account_transaction_id, ` + selectClassificationColumns + `
		FROM core_accounttransaction_classificacoes link
		JOIN core_classification c ON c.id = link.classification_id
		WHERE link.account_transaction_id = ANY($1)
		ORDER BY c.descricao
	`

	rows, err := s.db.QueryContext(ctx, query, txIDs)
	if err != nil {
		return nil, fmt.Errorf("loading transaction classifications: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.Classification)

	for rows.Next() {
		var txID int64

		var c domain.Classification

		var kindStr, statusStr string

		if err := rows.Scan(&txID, &c.ID, &kindStr, &c.Label, &statusStr); err != nil {
			return nil, fmt.Errorf("scanning transaction classification: %w", err)
		}

		c.Kind = domain.ClassificationKind(kindStr)
		c.Status = domain.RowStatus(statusStr)
		out[txID] = append(out[txID], c)
	}

	return out, rows.Err()
}
