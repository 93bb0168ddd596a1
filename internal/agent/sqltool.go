package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/session"
)

// maxToolRounds bounds the call-execute-reply loop of one exchange.
// Ending a round still holding function calls is a retryable failure.
const maxToolRounds = 3

func sqlToolDeclaration() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        sqlToolName,
			Description: "Executa uma consulta SQL SELECT no banco de dados PostgreSQL e retorna os resultados em JSON. Apenas consultas SELECT são aceitas.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {
						Type:        genai.TypeString,
						Description: "Consulta SQL SELECT a ser executada",
					},
				},
				Required: []string{"query"},
			},
		}},
	}
}

// SQLAgent answers questions by letting the model call the read-only
// SQL tool against the live schema.
type SQLAgent struct {
	client   *genai.Client
	model    string
	tool     *SQLTool
	sessions *session.Store
	retrier  Retrier
}

func NewSQLAgent(client *genai.Client, model string, tool *SQLTool, sessions *session.Store, retrier Retrier) *SQLAgent {
	if model == "" {
		model = DefaultModel
	}
	return &SQLAgent{
		client:   client,
		model:    model,
		tool:     tool,
		sessions: sessions,
		retrier:  retrier,
	}
}

// Ask answers one question with no conversation state. A non-empty
// contextText is prepended to the question, which is how the lexical
// builder output reaches this path.
func (a *SQLAgent) Ask(ctx context.Context, question, contextText string) *Result {
	if strings.TrimSpace(question) == "" {
		return &Result{Error: "Pergunta vazia", ToolsUsed: []ToolCall{}}
	}

	userText := strings.TrimSpace(question)
	hasContext := strings.TrimSpace(contextText) != ""
	if hasContext {
		userText = fmt.Sprintf("Contexto: %s\n\nPergunta: %s", contextText, userText)
	}

	logger.FromContext(ctx).Info().Str("question", userText).Msg("sql agent question")

	var result *Result
	err := a.retrier.Do(ctx, "sql agent query", func() error {
		contents := []*genai.Content{genai.NewContentFromText(userText, genai.RoleUser)}

		text, toolsUsed, _, err := a.exchange(ctx, contents)
		if err != nil {
			return err
		}

		result = &Result{
			Response:         text,
			ContextUsed:      hasContext,
			ToolsUsed:        toolsUsed,
			DBQueryPerformed: len(toolsUsed) > 0,
		}
		return nil
	})
	if err != nil {
		return &Result{Error: exhaustionMessage(err), ToolsUsed: []ToolCall{}, Attempts: a.retrier.attempts()}
	}

	return result
}

// AskWithSession answers one question inside a chat session. A missing,
// expired or mismatched session id silently becomes a new session; the
// session is only persisted after a successful exchange, so a chat
// never starts with a failed turn.
func (a *SQLAgent) AskWithSession(ctx context.Context, question, sessionID string) *Result {
	if strings.TrimSpace(question) == "" {
		return &Result{Error: "Pergunta vazia", ToolsUsed: []ToolCall{}, SessionID: sessionID}
	}

	log := logger.FromContext(ctx)
	userText := strings.TrimSpace(question)

	// Hold the per-session gate across the whole exchange so two
	// concurrent messages cannot interleave their history writes.
	if sessionID != "" {
		if release, ok := a.sessions.Acquire(sessionID); ok {
			defer release()
		}
	}

	var history []*genai.Content
	existingID := ""
	if sessionID != "" {
		if sess, ok := a.sessions.Get(sessionID); ok && sess.Kind == session.KindSimple {
			history = sess.History
			existingID = sessionID
			log.Info().Str("session_id", sessionID).Int("turns", len(history)).Msg("session resumed")
		} else {
			log.Warn().Str("session_id", sessionID).Msg("invalid or expired session")
		}
	}
	isNew := existingID == "" || len(history) == 0

	var result *Result
	err := a.retrier.Do(ctx, "sql agent chat query", func() error {
		contents := make([]*genai.Content, 0, len(history)+1)
		contents = append(contents, history...)
		contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

		text, toolsUsed, finalContent, err := a.exchange(ctx, contents)
		if err != nil {
			return err
		}

		userTurn := genai.NewContentFromText(userText, genai.RoleUser)

		id := existingID
		if isNew {
			id = a.sessions.Create(session.KindSimple, []*genai.Content{userTurn, finalContent})
		} else {
			a.sessions.Append(existingID, userTurn, finalContent)
			a.sessions.TouchIncrement(existingID)
		}

		result = &Result{
			Response:         text,
			ToolsUsed:        toolsUsed,
			DBQueryPerformed: len(toolsUsed) > 0,
			SessionID:        id,
			IsNewSession:     isNew,
		}
		return nil
	})
	if err != nil {
		return &Result{Error: exhaustionMessage(err), ToolsUsed: []ToolCall{}, Attempts: a.retrier.attempts()}
	}

	return result
}

// exchange runs the bounded tool loop over the given contents and
// returns the final answer text, the audited tool calls and the final
// model turn for session history.
func (a *SQLAgent) exchange(ctx context.Context, contents []*genai.Content) (string, []ToolCall, *genai.Content, error) {
	log := logger.FromContext(ctx)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(sqlAssistantInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{sqlToolDeclaration()},
	}

	toolsUsed := []ToolCall{}

	for range maxToolRounds {
		resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
		if err != nil {
			return "", nil, nil, fmt.Errorf("generating answer: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", nil, nil, domain.ErrEmptyCompletion
		}

		content := resp.Candidates[0].Content

		calls := extractFunctionCalls(content)
		if len(calls) == 0 {
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return "", nil, nil, domain.ErrEmptyCompletion
			}
			return text, toolsUsed, content, nil
		}

		log.Info().Int("calls", len(calls)).Msg("model requested sql")

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			toolsUsed = append(toolsUsed, ToolCall{Function: call.Name, Args: call.Args})

			query, _ := call.Args["query"].(string)
			resultado := a.tool.Run(ctx, query)

			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: map[string]any{"resultado": resultado},
				},
			})
		}

		contents = append(contents, content)
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}

	return "", nil, nil, domain.ErrEmptyCompletion
}
