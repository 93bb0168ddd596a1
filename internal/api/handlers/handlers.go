package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rafaelmp/invoicedesk/internal/agent"
	"github.com/rafaelmp/invoicedesk/internal/api/middleware"
	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/ingest"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
	"github.com/rafaelmp/invoicedesk/internal/session"
)

// maxUploadBytes caps the multipart body for invoice uploads.
const maxUploadBytes = 20 << 20

// Extractor pulls structured invoice data out of a PDF.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*domain.ExtractedInvoice, error)
}

// Ingestor persists an extracted invoice and reports the outcome.
type Ingestor interface {
	Process(ctx context.Context, extracted *domain.ExtractedInvoice) *ingest.Result
}

// Archiver stores the original PDF after a successful ingestion.
type Archiver interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

// InvoicesHandler handles invoice upload and listing endpoints.
type InvoicesHandler struct {
	extractor Extractor
	ingestor  Ingestor
	archive   Archiver
	log       zerolog.Logger
}

// NewInvoicesHandler creates a new invoices handler. archive may be nil,
// in which case uploaded PDFs are not kept after processing.
func NewInvoicesHandler(extractor Extractor, ingestor Ingestor, archive Archiver, log zerolog.Logger) *InvoicesHandler {
	return &InvoicesHandler{
		extractor: extractor,
		ingestor:  ingestor,
		archive:   archive,
		log:       log,
	}
}

type uploadResponse struct {
	*ingest.Result
	ArchivedURI string `json:"arquivo_gcs,omitempty"`
}

// Upload handles POST /api/invoices
func (h *InvoicesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "A PDF file is required in the 'file' field")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		middleware.WriteError(w, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}

	pdf, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	extracted, err := h.extractor.Extract(ctx, pdf)
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Extraction failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to extract invoice data")
		return
	}

	result := h.ingestor.Process(ctx, extracted)

	resp := uploadResponse{Result: result}

	if result.Success && h.archive != nil {
		uri, err := h.archive.Put(ctx, header.Filename, pdf)
		if err != nil {
			// The transaction is already committed, losing the PDF copy
			// is not worth failing the request over.
			h.log.Warn().Err(err).Str("filename", header.Filename).Msg("Failed to archive PDF")
		} else {
			resp.ArchivedURI = uri
		}
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}

	middleware.WriteJSON(w, status, resp)
}

// TransactionsHandler handles transaction listing endpoints.
type TransactionsHandler struct {
	store *postgres.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store *postgres.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := postgres.TransactionFilter{Limit: 50}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	if nf := query.Get("invoice_number"); nf != "" {
		filter.InvoiceNumbers = []string{nf}
	}

	fromStr, toStr := query.Get("from"), query.Get("to")
	if (fromStr == "") != (toStr == "") {
		middleware.WriteError(w, http.StatusBadRequest, "from and to must be provided together")
		return
	}
	if fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		filter.From, filter.To = &from, &to
	}

	transactions, err := h.store.FilterTransactions(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []*domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// AskHandler handles the natural language question endpoints. Agent
// failures are reported inside the result envelope, so every answered
// request returns 200.
type AskHandler struct {
	sql      *agent.SQLAgent
	lexical  *agent.LexicalAgent
	semantic *agent.SemanticAgent
	log      zerolog.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(sql *agent.SQLAgent, lexical *agent.LexicalAgent, semantic *agent.SemanticAgent, log zerolog.Logger) *AskHandler {
	return &AskHandler{
		sql:      sql,
		lexical:  lexical,
		semantic: semantic,
		log:      log,
	}
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k"`
}

func decodeAsk(w http.ResponseWriter, r *http.Request) (askRequest, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return askRequest{}, false
	}

	return req, true
}

// AskTools handles POST /api/ask/tools
func (h *AskHandler) AskTools(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	result := h.sql.AskWithSession(r.Context(), req.Question, req.SessionID)
	middleware.WriteJSON(w, http.StatusOK, result)
}

// AskContext handles POST /api/ask/context
func (h *AskHandler) AskContext(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	result := h.lexical.Ask(r.Context(), req.Question)
	middleware.WriteJSON(w, http.StatusOK, result)
}

// AskSemantic handles POST /api/ask/semantic
func (h *AskHandler) AskSemantic(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = agent.DefaultTopK
	}

	result, err := h.semantic.AskWithHistory(r.Context(), req.Question, req.SessionID, topK)
	if err != nil {
		h.log.Error().Err(err).Msg("Semantic agent failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to answer question")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// SessionsHandler handles conversation session endpoints.
type SessionsHandler struct {
	sessions *session.Store
	log      zerolog.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(sessions *session.Store, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, log: log}
}

// Count handles GET /api/sessions
func (h *SessionsHandler) Count(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"active_sessions": h.sessions.Count(),
	})
}

// Get handles GET /api/sessions/{id}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, ok := h.sessions.InfoFor(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, info)
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.sessions.Delete(id) {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":     "deleted",
		"session_id": id,
	})
}
