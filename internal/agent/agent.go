// Package agent implements the three natural-language query paths over
// the invoice store: a tool-calling assistant that writes its own SQL,
// a lexical assistant fed by rule-based context extraction, and a
// semantic assistant fed by embedding retrieval. All three answer in
// Portuguese and share the session store for multi-turn chat.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
)

// DefaultModel answers every query path unless configured otherwise.
const DefaultModel = "gemini-2.5-flash-lite"

// DefaultCallTimeout bounds each outbound model call when no timeout is
// configured. A timed-out call surfaces as a retryable failure.
const DefaultCallTimeout = 30 * time.Second

// NewClient builds the Gemini client shared by the agents and the
// extraction pipeline. Every call through it carries timeout.
func NewClient(ctx context.Context, apiKey string, timeout time.Duration) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return client, nil
}

// ToolCall is one audited function invocation the model requested.
type ToolCall struct {
	Function string         `json:"function"`
	Args     map[string]any `json:"args"`
}

// Result is the answer envelope of the tool-calling and lexical paths.
// Failures travel in Error rather than as a Go error: the envelope is
// what the caller renders either way.
type Result struct {
	Response         string     `json:"response"`
	ContextUsed      bool       `json:"context_used,omitempty"`
	ToolsUsed        []ToolCall `json:"tools_used"`
	DBQueryPerformed bool       `json:"db_query_performed"`
	Error            string     `json:"error,omitempty"`
	SessionID        string     `json:"session_id,omitempty"`
	IsNewSession     bool       `json:"is_new_session,omitempty"`
	Attempts         int        `json:"attempts,omitempty"`
}

// SemanticResult is the answer envelope of the embedding retrieval
// path.
type SemanticResult struct {
	Response          string `json:"response"`
	Error             string `json:"error,omitempty"`
	SessionID         string `json:"session_id,omitempty"`
	IsNewSession      bool   `json:"is_new_session"`
	TransactionsFound int    `json:"transactions_found,omitempty"`
}

// exhaustionMessage renders the error field of an envelope whose
// operation failed on every retry attempt.
func exhaustionMessage(err error) string {
	if errors.Is(err, domain.ErrEmptyCompletion) {
		return fmt.Sprintf("Erro de validação após todas as tentativas: %v", err)
	}
	return fmt.Sprintf("Erro inesperado após todas as tentativas: %v", err)
}

func extractFunctionCalls(c *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	if c == nil {
		return calls
	}
	for _, p := range c.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

func ptrFloat(f float32) *float32 { return &f }
