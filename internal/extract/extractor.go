// Package extract turns invoice PDFs into structured data by sending
// the document inline to the Gemini API under a fixed extraction
// prompt.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/logger"
)

const (
	defaultModel = "gemini-2.5-flash-lite"

	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// Extractor parses invoice PDFs through the model.
type Extractor struct {
	client *genai.Client
	model  string
}

func NewExtractor(client *genai.Client, model string) *Extractor {
	if model == "" {
		model = defaultModel
	}
	return &Extractor{client: client, model: model}
}

// Extract sends the PDF with the extraction prompt and decodes the
// model's JSON answer. Empty answers and malformed JSON are retried
// with a linearly growing delay before giving up.
func (e *Extractor) Extract(ctx context.Context, pdf []byte) (*domain.ExtractedInvoice, error) {
	log := logger.FromContext(ctx)

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: extractionPrompt},
			{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: pdf}},
		},
	}}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		invoice, err := e.attempt(ctx, contents)
		if err == nil {
			return invoice, nil
		}
		lastErr = err

		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("extraction attempt failed")

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("extraction failed after %d attempts: %w", maxAttempts, lastErr)
}

func (e *Extractor) attempt(ctx context.Context, contents []*genai.Content) (*domain.ExtractedInvoice, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generating extraction: %w", err)
	}

	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrEmptyCompletion
	}

	var invoice domain.ExtractedInvoice
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &invoice); err != nil {
		return nil, fmt.Errorf("decoding extraction: %w", err)
	}

	return &invoice, nil
}

// cleanJSON strips Markdown fences and surrounding prose the model
// sometimes wraps around its JSON output.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line, ``` or ```json.
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the outermost object if prose survived the fences.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
