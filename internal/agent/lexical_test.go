package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

func TestLexicalAgentEmptyQuestion(t *testing.T) {
	agent := NewLexicalAgent(nil, "", NewBuilder(&fakeContextStore{}), Retrier{})

	res := agent.Ask(context.Background(), " \t ")
	if res.Error != "Pergunta vazia" {
		t.Errorf("error = %q, want Pergunta vazia", res.Error)
	}
}

func TestLexicalAgentNoContextSkipsModel(t *testing.T) {
	// Nil client: reaching the model would panic instead of returning
	// the fixed reply.
	agent := NewLexicalAgent(nil, "", testBuilder(&fakeContextStore{}), Retrier{})

	res := agent.Ask(context.Background(), "olá, tudo bem")
	if res.Response != replyNoContext {
		t.Errorf("response = %q, want the fixed no-data reply", res.Response)
	}
	if res.Error != "" {
		t.Errorf("error = %q, want empty", res.Error)
	}
	if res.DBQueryPerformed {
		t.Error("no tool ran, db_query_performed must be false")
	}
}

type failingContextStore struct {
	fakeContextStore
}

func (f *failingContextStore) ListActiveParties(_ context.Context, _ []string, _ int) ([]*domain.Party, error) {
	return nil, errors.New("db down")
}

func TestLexicalAgentContextBuildFailure(t *testing.T) {
	agent := NewLexicalAgent(nil, "", testBuilder(&failingContextStore{}), Retrier{})

	res := agent.Ask(context.Background(), "quem é o fornecedor?")
	if res.Response != "" {
		t.Errorf("response = %q, want empty", res.Response)
	}
	if !strings.Contains(res.Error, "db down") {
		t.Errorf("error = %q, want the store failure", res.Error)
	}
}
