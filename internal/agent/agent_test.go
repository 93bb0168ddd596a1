package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "", 0); err == nil {
		t.Error("expected an error for a missing api key")
	}
}

func TestExhaustionMessage(t *testing.T) {
	got := exhaustionMessage(domain.ErrEmptyCompletion)
	if !strings.HasPrefix(got, "Erro de validação após todas as tentativas:") {
		t.Errorf("empty completion message = %q", got)
	}

	got = exhaustionMessage(errors.New("boom"))
	if got != "Erro inesperado após todas as tentativas: boom" {
		t.Errorf("generic message = %q", got)
	}
}

func TestExtractFunctionCalls(t *testing.T) {
	if calls := extractFunctionCalls(nil); len(calls) != 0 {
		t.Errorf("nil content yielded %d calls", len(calls))
	}

	content := &genai.Content{Parts: []*genai.Part{
		{Text: "vou consultar o banco"},
		{FunctionCall: &genai.FunctionCall{Name: sqlToolName, Args: map[string]any{"query": "SELECT 1"}}},
	}}

	calls := extractFunctionCalls(content)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].Name != sqlToolName {
		t.Errorf("call name = %q", calls[0].Name)
	}
}
