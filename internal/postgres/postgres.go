// Package postgres is the relational store. Table and column names
// match the deployed schema, which the SQL-tool system instruction
// embeds verbatim, so renames here break the query agent.
package postgres

import (
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read-only tool execution.
func (s *Store) DB() *sql.DB {
	return s.db
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
