// Package embedding turns transactions into fixed-size vectors for
// semantic retrieval. The indexed text is a rich serialization of the
// whole transaction, not just its line items, so questions about
// suppliers, categories and amounts all land near the right rows.
package embedding

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RichContextInput carries everything the indexing text mentions.
// Dates arrive preformatted (DD/MM/YYYY) because callers hold them in
// different shapes: extraction output keeps the document's strings,
// the backfill formats stored dates.
type RichContextInput struct {
	InvoiceNumber    string
	ProviderName     string
	InvoicedName     string
	IssueDate        string
	TotalAmount      decimal.Decimal
	InstallmentCount int
	DueDate          string
	LineItems        []string
	Classifications  []string
}

const richContextTemplate = `Nota Fiscal: %s
Fornecedor: %s
Cliente/Faturado: %s
Data de Emissão: %s
Valor Total: R$ %s
Quantidade de Parcelas: %d
Data de Vencimento: %s

Produtos/Serviços:
%s

Classificações/Categorias de Despesa:
%s

Tipo de Transação: A Pagar
Status: Ativo`

// BuildRichContext renders the canonical indexing text for one
// transaction. The same input always produces the same bytes, so a
// re-run never yields a different vector for unchanged data.
func BuildRichContext(in RichContextInput) string {
	invoiceNumber := strings.TrimSpace(in.InvoiceNumber)
	if invoiceNumber == "" {
		invoiceNumber = "S/N"
	}

	issueDate := in.IssueDate
	if issueDate == "" {
		issueDate = "não informada"
	}

	dueDate := in.DueDate
	if dueDate == "" {
		dueDate = "não informada"
	}

	count := in.InstallmentCount
	if count < 1 {
		count = 1
	}

	lineItems := "Não especificado"
	if len(in.LineItems) > 0 {
		lineItems = strings.Join(in.LineItems, " | ")
	}

	classifications := "Não especificado"
	if len(in.Classifications) > 0 {
		classifications = strings.Join(in.Classifications, ", ")
	}

	return fmt.Sprintf(richContextTemplate,
		invoiceNumber,
		in.ProviderName,
		in.InvoicedName,
		issueDate,
		in.TotalAmount.String(),
		count,
		dueDate,
		lineItems,
		classifications,
	)
}
