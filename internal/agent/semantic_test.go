package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeSearchStore struct {
	txs      []*domain.Transaction
	err      error
	searched bool
	topK     int
}

func (f *fakeSearchStore) SearchByEmbedding(_ context.Context, _ []float32, topK int) ([]*domain.Transaction, error) {
	f.searched = true
	f.topK = topK
	return f.txs, f.err
}

// The nil client in these tests doubles as a sentinel: any path that
// reached the model would panic instead of returning the fixed reply.

func TestSemanticAskUnusableQuestion(t *testing.T) {
	store := &fakeSearchStore{}
	agent := NewSemanticAgent(nil, "", &fakeEmbedder{}, store, nil)

	got, err := agent.Ask(context.Background(), "pergunta qualquer", DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != replyCannotProcess {
		t.Errorf("got %q, want the fixed cannot-process reply", got)
	}
	if store.searched {
		t.Error("search should not run without a question vector")
	}
}

func TestSemanticAskEmbedderFailureFoldsToFixedReply(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exhausted")}
	agent := NewSemanticAgent(nil, "", embedder, &fakeSearchStore{}, nil)

	got, err := agent.Ask(context.Background(), "pergunta", DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != replyCannotProcess {
		t.Errorf("got %q, want the fixed cannot-process reply", got)
	}
}

func TestSemanticAskNoMatches(t *testing.T) {
	store := &fakeSearchStore{}
	agent := NewSemanticAgent(nil, "", &fakeEmbedder{vector: []float32{0.1, 0.2}}, store, nil)

	got, err := agent.Ask(context.Background(), "pergunta", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != replyNoMatches {
		t.Errorf("got %q, want the fixed no-matches reply", got)
	}
	if !store.searched {
		t.Error("expected a similarity search")
	}
	if store.topK != 7 {
		t.Errorf("topK = %d, want 7", store.topK)
	}
}

func TestSemanticAskSearchError(t *testing.T) {
	searchErr := errors.New("connection refused")
	store := &fakeSearchStore{err: searchErr}
	agent := NewSemanticAgent(nil, "", &fakeEmbedder{vector: []float32{0.1}}, store, nil)

	got, err := agent.Ask(context.Background(), "pergunta", DefaultTopK)
	if !errors.Is(err, searchErr) {
		t.Fatalf("err = %v, want wrapped search error", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty answer on search failure", got)
	}
}

func TestSemanticAskWithHistoryEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exhausted")}
	agent := NewSemanticAgent(nil, "", embedder, &fakeSearchStore{}, nil)

	res, err := agent.AskWithHistory(context.Background(), "pergunta", "", DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Response != replyCannotProcess {
		t.Errorf("response = %q, want the fixed cannot-process reply", res.Response)
	}
	if res.Error != "Falha ao gerar embedding" {
		t.Errorf("error field = %q", res.Error)
	}
	if res.SessionID != "" || !res.IsNewSession {
		t.Errorf("session fields = %q/%v, want empty id and new session", res.SessionID, res.IsNewSession)
	}
}

func TestSemanticAskWithHistoryNoMatches(t *testing.T) {
	store := &fakeSearchStore{}
	agent := NewSemanticAgent(nil, "", &fakeEmbedder{vector: []float32{0.1}}, store, nil)

	res, err := agent.AskWithHistory(context.Background(), "pergunta", "", DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Response != replyNoMatches {
		t.Errorf("response = %q, want the fixed no-matches reply", res.Response)
	}
	if res.Error != "" {
		t.Errorf("error field = %q, want empty", res.Error)
	}
	if !res.IsNewSession {
		t.Error("a blank session id must report a new session")
	}
}

func TestSemanticContext(t *testing.T) {
	txs := []*domain.Transaction{{
		ID:            42,
		InvoiceNumber: "123",
		IssueDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:   "Adubo NPK",
		Status:        domain.StatusActive,
		TotalAmount:   decimal.NewFromFloat(1500.50),
		Provider:      &domain.Party{LegalName: "IGUACU MAQUINAS"},
		Invoiced:      &domain.Party{LegalName: "FAZENDA BOA VISTA"},
		Classifications: []domain.Classification{
			{Label: "INSUMOS AGRÍCOLAS"},
		},
		Installments: []domain.Installment{
			{Status: domain.InstallmentOpen},
			{Status: domain.InstallmentPaid},
		},
	}}

	divider := strings.Repeat("━", 45)
	want := "DADOS ENCONTRADOS NO BANCO DE DADOS:\n\n" +
		"\n" + divider + "\n" +
		"TRANSAÇÃO #1 - ID: 42\n" +
		divider + "\n" +
		"Nota Fiscal: 123\n" +
		"Data de Emissão: 15/03/2024\n" +
		"Valor Total: R$ 1500.50\n" +
		"Fornecedor: IGUACU MAQUINAS\n" +
		"Faturado: FAZENDA BOA VISTA\n" +
		"Descrição: Adubo NPK\n" +
		"Classificações: INSUMOS AGRÍCOLAS\n" +
		"Parcelas: 2 total (1 abertas)\n" +
		"Status: Ativo\n" +
		divider + "\n" +
		"\n"

	if got := semanticContext(txs); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSemanticContextNumbersEntries(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Provider: &domain.Party{}, Invoiced: &domain.Party{}},
		{ID: 2, Provider: &domain.Party{}, Invoiced: &domain.Party{}},
	}

	got := semanticContext(txs)
	if !strings.Contains(got, "TRANSAÇÃO #1 - ID: 1") || !strings.Contains(got, "TRANSAÇÃO #2 - ID: 2") {
		t.Errorf("entries are not numbered sequentially:\n%s", got)
	}
	if !strings.Contains(got, "Classificações: Não especificado") {
		t.Errorf("missing classification placeholder:\n%s", got)
	}
}

func TestStatusDisplay(t *testing.T) {
	tests := []struct {
		in   domain.RowStatus
		want string
	}{
		{domain.StatusActive, "Ativo"},
		{domain.StatusInactive, "Inativo"},
		{domain.RowStatus("arquivado"), "arquivado"},
	}

	for _, tt := range tests {
		if got := statusDisplay(tt.in); got != tt.want {
			t.Errorf("statusDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
