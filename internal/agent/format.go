package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

// formatMoney renders two decimal places with comma thousands
// separators: 1234567.8 becomes "1,234,567.80".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}

	if neg {
		intPart = "-" + intPart
	}
	return intPart + "." + frac
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// renderParties lists registered parties, capped at ten entries.
func renderParties(parties []*domain.Party) string {
	if len(parties) == 0 {
		return ""
	}
	if len(parties) > 10 {
		parties = parties[:10]
	}

	lines := []string{"### Pessoas/Empresas Cadastradas:\n"}
	for _, p := range parties {
		trade := ""
		if p.TradeName != "" {
			trade = fmt.Sprintf(" (%s)", p.TradeName)
		}
		lines = append(lines, fmt.Sprintf(
			"- %s%s\n  Documento: %s\n  Tipo: %s\n",
			p.LegalName, trade, p.Document, p.Role))
	}
	return strings.Join(lines, "\n")
}

// renderClassifications lists categories, capped at fifteen entries.
func renderClassifications(classifications []*domain.Classification) string {
	if len(classifications) == 0 {
		return ""
	}
	if len(classifications) > 15 {
		classifications = classifications[:15]
	}

	lines := []string{"### Classificações Cadastradas:\n"}
	for _, c := range classifications {
		lines = append(lines, fmt.Sprintf("- %s\n  Tipo: %s\n", c.Label, c.Kind))
	}
	return strings.Join(lines, "\n")
}

// renderTransactions lists invoice detail rows, capped at twenty
// entries.
func renderTransactions(txs []*domain.Transaction) string {
	if len(txs) == 0 {
		return ""
	}
	if len(txs) > 20 {
		txs = txs[:20]
	}

	lines := []string{"### Notas Fiscais Encontradas:\n"}
	for _, tx := range txs {
		labels := make([]string, 0, len(tx.Classifications))
		for _, c := range tx.Classifications {
			labels = append(labels, c.Label)
		}

		invoiced := "N/A"
		if tx.Invoiced != nil {
			invoiced = tx.Invoiced.LegalName
		}

		lines = append(lines, fmt.Sprintf(
			"- Nota Fiscal: %s\n  Fornecedor: %s\n  Faturado: %s\n  Data Emissão: %s\n  Valor Total: R$ %s\n  Tipo: %s\n  Classificações: %s\n  Descrição: %s\n",
			tx.InvoiceNumber, tx.Provider.LegalName, invoiced, formatDate(tx.IssueDate),
			formatMoney(tx.TotalAmount), tx.Direction, strings.Join(labels, ", "), tx.Description))
	}
	return strings.Join(lines, "\n")
}

// renderTransactionSummary renders aggregate counts and totals with
// the per-direction and per-classification breakdowns.
func renderTransactionSummary(s *postgres.TransactionSummary) string {
	if s == nil || s.Count == 0 {
		return ""
	}

	lines := []string{"### Resumo das Notas Fiscais:\n"}
	lines = append(lines, fmt.Sprintf("Total de notas fiscais: %d", s.Count))
	lines = append(lines, fmt.Sprintf("Valor total: R$ %s\n", formatMoney(s.Total)))

	if len(s.ByDirection) > 0 {
		lines = append(lines, "\n**Por Tipo:**")
		for _, g := range s.ByDirection {
			lines = append(lines, fmt.Sprintf(
				"- %s: %d transações, R$ %s", g.Label, g.Count, formatMoney(g.Total)))
		}
	}

	if len(s.ByClassification) > 0 {
		lines = append(lines, "\n**Por Classificação:**")
		for _, g := range s.ByClassification {
			lines = append(lines, fmt.Sprintf(
				"- %s: %d transações, R$ %s", g.Label, g.Count, formatMoney(g.Total)))
		}
	}

	return strings.Join(lines, "\n")
}

// renderInstallments lists installment detail rows, capped at thirty
// entries. invoices maps transaction id to invoice number.
func renderInstallments(installments []*domain.Installment, invoices map[int64]string) string {
	if len(installments) == 0 {
		return ""
	}
	if len(installments) > 30 {
		installments = installments[:30]
	}

	lines := []string{"### Parcelas Encontradas:\n"}
	for _, inst := range installments {
		lines = append(lines, fmt.Sprintf(
			"- Parcela: %s\n  Transação: Nota Fiscal %s\n  Valor Parcela: R$ %s\n  Valor Pago: R$ %s\n  Saldo: R$ %s\n  Status: %s\n  Vencimento: %s\n",
			inst.Label, invoices[inst.TransactionID], formatMoney(inst.Amount),
			formatMoney(inst.AmountPaid), formatMoney(inst.Balance), inst.Status,
			formatDate(inst.DueDate)))
	}
	return strings.Join(lines, "\n")
}

// renderInstallmentSummary renders aggregate installment totals with
// the per-status breakdown.
func renderInstallmentSummary(s *postgres.InstallmentSummary) string {
	if s == nil || s.Count == 0 {
		return ""
	}

	lines := []string{"### Resumo das Parcelas:\n"}
	lines = append(lines, fmt.Sprintf("Total de parcelas: %d", s.Count))
	lines = append(lines, fmt.Sprintf("Valor total: R$ %s", formatMoney(s.Total)))
	lines = append(lines, fmt.Sprintf("Valor pago: R$ %s", formatMoney(s.Paid)))
	lines = append(lines, fmt.Sprintf("Saldo restante: R$ %s\n", formatMoney(s.Balance)))

	if len(s.ByStatus) > 0 {
		lines = append(lines, "\n**Por Status:**")
		for _, g := range s.ByStatus {
			lines = append(lines, fmt.Sprintf(
				"- %s: %d parcelas, R$ %s (saldo: R$ %s)",
				g.Status, g.Count, formatMoney(g.Total), formatMoney(g.Balance)))
		}
	}

	return strings.Join(lines, "\n")
}
