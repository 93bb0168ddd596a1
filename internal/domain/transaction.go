package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether a transaction is money going out or coming in.
type Direction string

const (
	DirectionPayable    Direction = "a pagar"
	DirectionReceivable Direction = "a receber"
)

// NoDescription is stored when an invoice lists no products or
// services. It carries no signal, so it is never embedded.
const NoDescription = "Sem descrição"

// Transaction is one invoice movement. InvoiceNumber is unique among
// stored rows; attempting to create a duplicate is rejected, never an
// overwrite. Embedding holds the 768-dim vector of the rich-text
// serialization, nil until backfilled.
type Transaction struct {
	ID            int64
	Direction     Direction
	InvoiceNumber string
	IssueDate     time.Time
	Description   string // pipe-joined line items, capped at 300 chars
	Status        RowStatus
	TotalAmount   decimal.Decimal
	ProviderID    int64
	InvoicedID    int64
	Embedding     []float32

	// Loaded via JOINs on the read paths that need them.
	Provider        *Party
	Invoiced        *Party
	Classifications []Classification
	Installments    []Installment
}

// OpenInstallments counts installments still carrying the open status.
func (t *Transaction) OpenInstallments() int {
	n := 0
	for _, inst := range t.Installments {
		if inst.Status == InstallmentOpen {
			n++
		}
	}
	return n
}
