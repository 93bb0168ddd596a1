package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/embedding"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/session"
)

// DefaultTopK bounds how many transactions a semantic search feeds
// into the answer context.
const DefaultTopK = 5

// SearchStore is the retrieval surface the semantic agent needs.
type SearchStore interface {
	SearchByEmbedding(ctx context.Context, vector []float32, topK int) ([]*domain.Transaction, error)
}

// SemanticAgent answers questions over transactions retrieved by
// embedding similarity.
type SemanticAgent struct {
	client   *genai.Client
	model    string
	embedder embedding.Embedder
	store    SearchStore
	sessions *session.Store
}

func NewSemanticAgent(client *genai.Client, model string, embedder embedding.Embedder, store SearchStore, sessions *session.Store) *SemanticAgent {
	if model == "" {
		model = DefaultModel
	}
	return &SemanticAgent{
		client:   client,
		model:    model,
		embedder: embedder,
		store:    store,
		sessions: sessions,
	}
}

// Ask answers one question with no conversation state. Fixed replies
// cover the paths where the model never runs: an unusable question and
// an empty search result.
func (a *SemanticAgent) Ask(ctx context.Context, question string, topK int) (string, error) {
	log := logger.FromContext(ctx)

	vector := a.questionVector(ctx, question)
	if vector == nil {
		return replyCannotProcess, nil
	}

	txs, err := a.store.SearchByEmbedding(ctx, vector, topK)
	if err != nil {
		return "", fmt.Errorf("searching transactions: %w", err)
	}
	if len(txs) == 0 {
		return replyNoMatches, nil
	}

	log.Info().Int("hits", len(txs)).Msg("semantic search done")

	prompt := fmt.Sprintf(answerFromContextTemplate, semanticContext(txs), question)

	resp, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: ptrFloat(0.1)})
	if err != nil {
		log.Warn().Err(err).Msg("semantic answer failed")
		return fmt.Sprintf("Erro ao processar sua pergunta: %v", err), nil
	}

	return resp.Text(), nil
}

// AskWithHistory answers one question inside a chat session of kind
// embedding. Retrieval runs fresh on every turn; only the conversation
// itself is carried across turns.
func (a *SemanticAgent) AskWithHistory(ctx context.Context, question, sessionID string, topK int) (*SemanticResult, error) {
	log := logger.FromContext(ctx)

	if sessionID != "" {
		if release, ok := a.sessions.Acquire(sessionID); ok {
			defer release()
		}
	}

	var history []*genai.Content
	existingID := ""
	if sessionID != "" {
		if sess, ok := a.sessions.Get(sessionID); ok && sess.Kind == session.KindEmbedding {
			history = sess.History
			existingID = sessionID
			log.Info().Str("session_id", sessionID).Int("turns", len(history)).Msg("session resumed")
		} else {
			log.Warn().Str("session_id", sessionID).Msg("invalid or expired session")
		}
	}
	isNew := existingID == ""

	vector := a.questionVector(ctx, question)
	if vector == nil {
		return &SemanticResult{
			Response:     replyCannotProcess,
			Error:        "Falha ao gerar embedding",
			SessionID:    existingID,
			IsNewSession: isNew,
		}, nil
	}

	txs, err := a.store.SearchByEmbedding(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("searching transactions: %w", err)
	}
	if len(txs) == 0 {
		return &SemanticResult{
			Response:     replyNoMatches,
			SessionID:    existingID,
			IsNewSession: isNew,
		}, nil
	}

	log.Info().Int("hits", len(txs)).Msg("semantic search done")

	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature: ptrFloat(0.1),
		SystemInstruction: genai.NewContentFromText(
			fmt.Sprintf(answerWithHistoryInstruction, semanticContext(txs)), genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		log.Warn().Err(err).Msg("semantic answer failed")
		return &SemanticResult{
			Response:     fmt.Sprintf("Erro ao processar sua pergunta: %v", err),
			Error:        err.Error(),
			SessionID:    existingID,
			IsNewSession: isNew,
		}, nil
	}

	answer := resp.Text()

	userTurn := genai.NewContentFromText(question, genai.RoleUser)
	modelTurn := genai.NewContentFromText(answer, genai.RoleModel)

	id := existingID
	if isNew {
		id = a.sessions.Create(session.KindEmbedding, []*genai.Content{userTurn, modelTurn})
	} else {
		a.sessions.Append(existingID, userTurn, modelTurn)
		a.sessions.TouchIncrement(existingID)
	}

	return &SemanticResult{
		Response:          answer,
		SessionID:         id,
		IsNewSession:      isNew,
		TransactionsFound: len(txs),
	}, nil
}

// questionVector embeds the question, folding every failure into a nil
// vector so callers answer with the fixed reply instead of an error.
func (a *SemanticAgent) questionVector(ctx context.Context, question string) []float32 {
	vector, err := a.embedder.Embed(ctx, question)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("question embedding failed")
		return nil
	}
	return vector
}

// semanticContext renders the retrieved transactions as the data block
// the answering prompt consumes.
func semanticContext(txs []*domain.Transaction) string {
	var b strings.Builder
	b.WriteString("DADOS ENCONTRADOS NO BANCO DE DADOS:\n\n")

	for i, tx := range txs {
		labels := make([]string, 0, len(tx.Classifications))
		for _, c := range tx.Classifications {
			labels = append(labels, c.Label)
		}
		classifications := strings.Join(labels, ", ")
		if classifications == "" {
			classifications = "Não especificado"
		}

		fmt.Fprintf(&b, `
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
TRANSAÇÃO #%d - ID: %d
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
Nota Fiscal: %s
Data de Emissão: %s
Valor Total: R$ %s
Fornecedor: %s
Faturado: %s
Descrição: %s
Classificações: %s
Parcelas: %d total (%d abertas)
Status: %s
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

`,
			i+1, tx.ID, tx.InvoiceNumber, formatDate(tx.IssueDate),
			tx.TotalAmount.StringFixed(2), tx.Provider.LegalName, tx.Invoiced.LegalName,
			tx.Description, classifications, len(tx.Installments), tx.OpenInstallments(),
			statusDisplay(tx.Status))
	}

	return b.String()
}

// statusDisplay renders a row status the way the screens label it.
func statusDisplay(s domain.RowStatus) string {
	switch s {
	case domain.StatusActive:
		return "Ativo"
	case domain.StatusInactive:
		return "Inativo"
	}
	return string(s)
}
