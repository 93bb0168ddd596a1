package agent

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{100, "100.00"},
		{999.9, "999.90"},
		{1000, "1,000.00"},
		{1500.5, "1,500.50"},
		{1234567.891, "1,234,567.89"},
		{-42150.75, "-42,150.75"},
	}

	for _, tt := range tests {
		if got := formatMoney(decimal.NewFromFloat(tt.in)); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderParties(t *testing.T) {
	parties := []*domain.Party{
		{
			LegalName: "IGUACU MAQUINAS E EQUIPAMENTOS LTDA",
			TradeName: "Iguaçu Máquinas",
			Document:  "12345678000190",
			Role:      domain.RoleProvider,
		},
		{
			LegalName: "FAZENDA BOA VISTA",
			Document:  "98765432000110",
			Role:      domain.RoleInvoiced,
		},
	}

	want := `### Pessoas/Empresas Cadastradas:

- IGUACU MAQUINAS E EQUIPAMENTOS LTDA (Iguaçu Máquinas)
  Documento: 12345678000190
  Tipo: fornecedor

- FAZENDA BOA VISTA
  Documento: 98765432000110
  Tipo: faturado
`

	if got := renderParties(parties); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if renderParties(nil) != "" {
		t.Error("no parties should render an empty section")
	}
}

func TestRenderPartiesCap(t *testing.T) {
	var parties []*domain.Party
	for i := 1; i <= 12; i++ {
		parties = append(parties, &domain.Party{
			LegalName: fmt.Sprintf("EMPRESA %02d", i),
			Role:      domain.RoleProvider,
		})
	}

	got := renderParties(parties)
	if n := strings.Count(got, "- EMPRESA"); n != 10 {
		t.Errorf("rendered %d entries, want 10", n)
	}
	if strings.Contains(got, "EMPRESA 11") {
		t.Error("entries past the cap should be dropped")
	}
}

func TestRenderClassifications(t *testing.T) {
	classifications := []*domain.Classification{
		{Label: "INSUMOS AGRÍCOLAS", Kind: domain.KindExpense},
		{Label: "FRETES", Kind: domain.KindExpense},
	}

	want := `### Classificações Cadastradas:

- INSUMOS AGRÍCOLAS
  Tipo: despesa

- FRETES
  Tipo: despesa
`

	if got := renderClassifications(classifications); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if renderClassifications(nil) != "" {
		t.Error("no classifications should render an empty section")
	}
}

func TestRenderTransactions(t *testing.T) {
	txs := []*domain.Transaction{{
		InvoiceNumber: "123",
		Direction:     domain.DirectionPayable,
		IssueDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:   "Adubo NPK",
		TotalAmount:   decimal.NewFromFloat(1500.50),
		Provider:      &domain.Party{LegalName: "IGUACU MAQUINAS"},
		Classifications: []domain.Classification{
			{Label: "INSUMOS AGRÍCOLAS"},
		},
	}}

	want := `### Notas Fiscais Encontradas:

- Nota Fiscal: 123
  Fornecedor: IGUACU MAQUINAS
  Faturado: N/A
  Data Emissão: 15/03/2024
  Valor Total: R$ 1,500.50
  Tipo: a pagar
  Classificações: INSUMOS AGRÍCOLAS
  Descrição: Adubo NPK
`

	if got := renderTransactions(txs); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if renderTransactions(nil) != "" {
		t.Error("no transactions should render an empty section")
	}
}

func TestRenderTransactionSummary(t *testing.T) {
	s := &postgres.TransactionSummary{
		Count: 3,
		Total: decimal.NewFromFloat(4500),
		ByDirection: []postgres.GroupTotal{
			{Label: "a pagar", Count: 3, Total: decimal.NewFromFloat(4500)},
		},
		ByClassification: []postgres.GroupTotal{
			{Label: "INSUMOS AGRÍCOLAS", Count: 2, Total: decimal.NewFromFloat(3000)},
			{Label: "OUTRAS DESPESAS", Count: 1, Total: decimal.NewFromFloat(1500)},
		},
	}

	want := `### Resumo das Notas Fiscais:

Total de notas fiscais: 3
Valor total: R$ 4,500.00


**Por Tipo:**
- a pagar: 3 transações, R$ 4,500.00

**Por Classificação:**
- INSUMOS AGRÍCOLAS: 2 transações, R$ 3,000.00
- OUTRAS DESPESAS: 1 transações, R$ 1,500.00`

	if got := renderTransactionSummary(s); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if renderTransactionSummary(nil) != "" {
		t.Error("nil summary should render an empty section")
	}
	if renderTransactionSummary(&postgres.TransactionSummary{}) != "" {
		t.Error("zero-count summary should render an empty section")
	}
}

func TestRenderInstallments(t *testing.T) {
	installments := []*domain.Installment{{
		TransactionID: 3,
		Label:         "1/2",
		DueDate:       time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromFloat(750.25),
		AmountPaid:    decimal.Zero,
		Balance:       decimal.NewFromFloat(750.25),
		Status:        domain.InstallmentOpen,
	}}
	invoices := map[int64]string{3: "123"}

	want := `### Parcelas Encontradas:

- Parcela: 1/2
  Transação: Nota Fiscal 123
  Valor Parcela: R$ 750.25
  Valor Pago: R$ 0.00
  Saldo: R$ 750.25
  Status: aberta
  Vencimento: 14/04/2024
`

	if got := renderInstallments(installments, invoices); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if renderInstallments(nil, nil) != "" {
		t.Error("no installments should render an empty section")
	}
}

func TestRenderInstallmentSummary(t *testing.T) {
	s := &postgres.InstallmentSummary{
		Count:   4,
		Total:   decimal.NewFromFloat(10000),
		Paid:    decimal.NewFromFloat(2500.50),
		Balance: decimal.NewFromFloat(7499.50),
		ByStatus: []postgres.InstallmentGroup{
			{Status: "aberta", Count: 3, Total: decimal.NewFromFloat(7499.50), Balance: decimal.NewFromFloat(7499.50)},
			{Status: "paga", Count: 1, Total: decimal.NewFromFloat(2500.50), Balance: decimal.Zero},
		},
	}

	want := `### Resumo das Parcelas:

Total de parcelas: 4
Valor total: R$ 10,000.00
Valor pago: R$ 2,500.50
Saldo restante: R$ 7,499.50


**Por Status:**
- aberta: 3 parcelas, R$ 7,499.50 (saldo: R$ 7,499.50)
- paga: 1 parcelas, R$ 2,500.50 (saldo: R$ 0.00)`

	if got := renderInstallmentSummary(s); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	if renderInstallmentSummary(nil) != "" {
		t.Error("nil summary should render an empty section")
	}
}
