package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

func TestBuildRichContext(t *testing.T) {
	in := RichContextInput{
		InvoiceNumber:    "12345",
		ProviderName:     "IGUACU MAQUINAS AGRICOLAS LTDA",
		InvoicedName:     "JOAO DA SILVA",
		IssueDate:        "15/03/2024",
		TotalAmount:      decimal.NewFromFloat(1500.50),
		InstallmentCount: 3,
		DueDate:          "15/04/2024",
		LineItems:        []string{"Filtro de óleo", "Correia dentada"},
		Classifications:  []string{"MANUTENÇÃO E OPERAÇÃO"},
	}

	want := `Nota Fiscal: 12345
Fornecedor: IGUACU MAQUINAS AGRICOLAS LTDA
Cliente/Faturado: JOAO DA SILVA
Data de Emissão: 15/03/2024
Valor Total: R$ 1500.5
Quantidade de Parcelas: 3
Data de Vencimento: 15/04/2024

Produtos/Serviços:
Filtro de óleo | Correia dentada

Classificações/Categorias de Despesa:
MANUTENÇÃO E OPERAÇÃO

Tipo de Transação: A Pagar
Status: Ativo`

	if got := BuildRichContext(in); got != want {
		t.Errorf("rich context mismatch\ngot:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestBuildRichContextFallbacks(t *testing.T) {
	in := RichContextInput{
		ProviderName: "FORNECEDOR X",
		InvoicedName: "CLIENTE Y",
	}

	want := `Nota Fiscal: S/N
Fornecedor: FORNECEDOR X
Cliente/Faturado: CLIENTE Y
Data de Emissão: não informada
Valor Total: R$ 0
Quantidade de Parcelas: 1
Data de Vencimento: não informada

Produtos/Serviços:
Não especificado

Classificações/Categorias de Despesa:
Não especificado

Tipo de Transação: A Pagar
Status: Ativo`

	if got := BuildRichContext(in); got != want {
		t.Errorf("rich context mismatch\ngot:\n%s\n\nwant:\n%s", got, want)
	}
}

func TestRichInputFromTransaction(t *testing.T) {
	tx := &domain.Transaction{
		ID:            7,
		InvoiceNumber: "998",
		IssueDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:   "Adubo NPK | Calcário",
		TotalAmount:   decimal.RequireFromString("900.00"),
		Provider:      &domain.Party{LegalName: "AGRO INSUMOS SA"},
		Invoiced:      &domain.Party{LegalName: "FAZENDA BOA VISTA"},
		Classifications: []domain.Classification{
			{Label: "INSUMOS AGRÍCOLAS"},
		},
		Installments: []domain.Installment{
			{DueDate: time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC)},
			{DueDate: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)},
		},
	}

	in := RichInputFromTransaction(tx)

	if in.InvoiceNumber != "998" {
		t.Errorf("invoice number = %q", in.InvoiceNumber)
	}

	if in.IssueDate != "15/03/2024" {
		t.Errorf("issue date = %q", in.IssueDate)
	}

	if in.DueDate != "14/04/2024" {
		t.Errorf("due date = %q, want first installment's", in.DueDate)
	}

	if in.InstallmentCount != 2 {
		t.Errorf("installment count = %d", in.InstallmentCount)
	}

	if len(in.LineItems) != 1 || in.LineItems[0] != "Adubo NPK | Calcário" {
		t.Errorf("line items = %v", in.LineItems)
	}

	if len(in.Classifications) != 1 || in.Classifications[0] != "INSUMOS AGRÍCOLAS" {
		t.Errorf("classifications = %v", in.Classifications)
	}
}

func TestRichInputFromTransactionPlaceholderDescription(t *testing.T) {
	tx := &domain.Transaction{
		Description: domain.NoDescription,
		IssueDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	in := RichInputFromTransaction(tx)

	if len(in.LineItems) != 0 {
		t.Errorf("placeholder description should yield no line items, got %v", in.LineItems)
	}
}

func TestGeminiEmbedderSkipsEmptyText(t *testing.T) {
	e := NewGeminiEmbedder(nil, "")

	for _, text := range []string{"", "   ", domain.NoDescription, "  Sem descrição  "} {
		vec, err := e.Embed(context.Background(), text)
		if err != nil {
			t.Errorf("Embed(%q) returned error: %v", text, err)
		}

		if vec != nil {
			t.Errorf("Embed(%q) = %v, want nil", text, vec)
		}
	}
}
