package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

const selectPartyColumns = `p.id, p.tipo, p.razao_social, p.fantasia, p.documento, p.status`

func scanParty(s scanner) (*domain.Party, error) {
	var p domain.Party

	var roleStr, statusStr string

	var tradeName sql.NullString

	if err := s.Scan(&p.ID, &roleStr, &p.LegalName, &tradeName, &p.Document, &statusStr); err != nil {
		return nil, err
	}

	p.Role = domain.PartyRole(roleStr)
	p.Status = domain.RowStatus(statusStr)
	p.TradeName = tradeName.String

	return &p, nil
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// FindPartyByDocument looks up a party by its normalized document.
// Returns domain.ErrNotFound when no row matches.
func (s *Store) FindPartyByDocument(ctx context.Context, document string) (*domain.Party, error) {
	query := `SELECT ` + selectPartyColumns + ` FROM core_person p WHERE p.documento = $1`

	p, err := scanParty(s.db.QueryRowContext(ctx, query, document))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}

		return nil, fmt.Errorf("finding party: %w", err)
	}

	return p, nil
}

// GetOrCreateParty creates a party keyed by its document, or updates
// the mutable name fields of the existing row. The document is the
// sole natural key, so calling twice with the same document yields
// exactly one stored party.
func (s *Store) GetOrCreateParty(ctx context.Context, party *domain.Party) (created bool, err error) {
	query := `
		INSERT INTO core_person (tipo, razao_social, fantasia, documento, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (documento) DO UPDATE
			SET razao_social = EXCLUDED.razao_social,
			    fantasia = COALESCE(EXCLUDED.fantasia, core_person.fantasia)
		RETURNING id, (xmax = 0)
	`

	err = s.db.QueryRowContext(ctx, query,
		party.Role,
		party.LegalName,
		nullableString(party.TradeName),
		party.Document,
		domain.StatusActive,
	).Scan(&party.ID, &created)
	if err != nil {
		return false, fmt.Errorf("upserting party: %w", err)
	}

	party.Status = domain.StatusActive

	return created, nil
}

// ListActiveParties returns active parties, optionally restricted to a
// document set. A limit of zero or less returns every match.
func (s *Store) ListActiveParties(ctx context.Context, documents []string, limit int) ([]*domain.Party, error) {
	query := `SELECT ` + selectPartyColumns + ` FROM core_person p WHERE p.status = $1`

	args := []any{domain.StatusActive}
	argIdx := 2

	if len(documents) > 0 {
		query += fmt.Sprintf(" AND p.documento = ANY($%d)", argIdx)

		args = append(args, documents)
		argIdx++
	}

	query += " ORDER BY p.razao_social"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing parties: %w", err)
	}
	defer rows.Close()

	var parties []*domain.Party

	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning party: %w", err)
		}

		parties = append(parties, p)
	}

	return parties, rows.Err()
}

// DeactivateParty flips a party to inactive. Rows are never hard
// deleted while transactions reference them.
func (s *Store) DeactivateParty(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE core_person SET status = $1 WHERE id = $2`, domain.StatusInactive, id)
	if err != nil {
		return fmt.Errorf("deactivating party: %w", err)
	}

	return nil
}
