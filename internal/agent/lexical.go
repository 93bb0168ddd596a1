package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/logger"
)

// LexicalAgent answers questions over a context assembled by keyword
// and pattern extraction. The model never touches the database on this
// path; it only reads what the builder already fetched.
type LexicalAgent struct {
	client  *genai.Client
	model   string
	builder *Builder
	retrier Retrier
}

func NewLexicalAgent(client *genai.Client, model string, builder *Builder, retrier Retrier) *LexicalAgent {
	if model == "" {
		model = DefaultModel
	}
	return &LexicalAgent{
		client:  client,
		model:   model,
		builder: builder,
		retrier: retrier,
	}
}

// Ask builds the lexical context for the question and runs a single
// completion over it. An empty context short-circuits to the fixed
// no-data reply without calling the model.
func (a *LexicalAgent) Ask(ctx context.Context, question string) *Result {
	if strings.TrimSpace(question) == "" {
		return &Result{Error: "Pergunta vazia", ToolsUsed: []ToolCall{}}
	}

	log := logger.FromContext(ctx)

	contextText, err := a.builder.Build(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("context build failed")
		return &Result{Error: err.Error(), ToolsUsed: []ToolCall{}}
	}
	if contextText == "" {
		return &Result{Response: replyNoContext, ToolsUsed: []ToolCall{}}
	}

	prompt := fmt.Sprintf(answerFromContextTemplate, contextText, strings.TrimSpace(question))

	var answer string
	err = a.retrier.Do(ctx, "lexical agent query", func() error {
		resp, err := a.client.Models.GenerateContent(ctx, a.model,
			[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
			&genai.GenerateContentConfig{Temperature: ptrFloat(0.1)})
		if err != nil {
			return fmt.Errorf("generating answer: %w", err)
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return domain.ErrEmptyCompletion
		}

		answer = text
		return nil
	})
	if err != nil {
		return &Result{Error: exhaustionMessage(err), ToolsUsed: []ToolCall{}, Attempts: a.retrier.attempts()}
	}

	return &Result{Response: answer, ContextUsed: true, ToolsUsed: []ToolCall{}}
}
