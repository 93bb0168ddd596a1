package embedding

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/logger"
)

// Dimensions is the vector size text-embedding-004 produces. The
// descricao_embedding column is declared to match.
const Dimensions = 768

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-004"

// Embedder generates fixed-size vectors for text. A nil vector with a
// nil error means the text carried no signal and was skipped.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder calls the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder wraps a genai client for embedding generation.
func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	if model == "" {
		model = DefaultModel
	}

	return &GeminiEmbedder{client: client, model: model}
}

// Embed returns the vector for text. Empty text and the placeholder
// description are skipped rather than indexed: they would only pull
// unrelated rows together.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == domain.NoDescription {
		logger.FromContext(ctx).Debug().Msg("text carries no signal, skipping embedding")
		return nil, nil
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(trimmed, genai.RoleUser)}, nil)
	if err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedding response carried no values")
	}

	return resp.Embeddings[0].Values, nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
