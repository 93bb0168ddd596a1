package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

// SearchByEmbedding ranks transactions by L2 distance between their
// stored vector and the query vector, closest first, and eager-loads
// parties, classifications and installments for each hit. Rows without
// an embedding are excluded. The HNSW index on descricao_embedding
// serves the ORDER BY.
func (s *Store) SearchByEmbedding(ctx context.Context, vector []float32, topK int) ([]*domain.Transaction, error) {
	if topK <= 0 {
		topK = 5
	}

	query := `SELECT ` + selectTransactionColumns + transactionJoins + `
		WHERE t.descricao_embedding IS NOT NULL
		ORDER BY t.descricao_embedding <-> $1
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("searching by embedding: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}

		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachClassifications(ctx, txs); err != nil {
		return nil, err
	}
	if err := s.attachInstallments(ctx, txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// UpdateEmbedding stores the vector for one transaction. The HNSW
// index picks up the row incrementally; no rebuild happens.
func (s *Store) UpdateEmbedding(ctx context.Context, txID int64, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE core_accounttransaction SET descricao_embedding = $1 WHERE id = $2`,
		pgvector.NewVector(vector), txID)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}

	return nil
}

// ListMissingEmbeddings returns active transactions without a stored
// vector, parties and related rows attached so the rich text can be
// rebuilt, capped at limit.
func (s *Store) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + transactionJoins + `
		WHERE t.descricao_embedding IS NULL AND t.status = $1
		ORDER BY t.id
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, domain.StatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("listing missing embeddings: %w", err)
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
	if err := s.attachInstallments(ctx, txs); err != nil {
		return nil, err
	}

	return txs, nil
}
