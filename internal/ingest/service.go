// Package ingest persists extracted invoices: parties and
// classifications are created on first sight, the transaction and its
// installments are written as one unit, and the rich-text embedding is
// computed up front so new rows are searchable immediately.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/embedding"
	"github.com/rafaelmp/invoicedesk/internal/logger"
)

const maxDescriptionLen = 300

// Store is the persistence surface the pipeline writes through.
type Store interface {
	GetOrCreateParty(ctx context.Context, party *domain.Party) (bool, error)
	GetOrCreateClassification(ctx context.Context, kind domain.ClassificationKind, label string) (*domain.Classification, bool, error)
	InvoiceNumberExists(ctx context.Context, invoiceNumber string) (bool, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction, classificationIDs []int64) error
}

// Service turns one extraction result into stored rows.
type Service struct {
	store    Store
	embedder embedding.Embedder
	now      func() time.Time
}

func NewService(store Store, embedder embedding.Embedder) *Service {
	return &Service{store: store, embedder: embedder, now: time.Now}
}

// Result reports one ingest run: the verification trail plus the
// created row identifiers. Failures travel in Error; Messages always
// holds every step that ran before the failure.
type Result struct {
	Success             bool     `json:"success"`
	Messages            []string `json:"mensagens"`
	TransactionID       int64    `json:"account_transaction_id,omitempty"`
	InvoiceNumber       string   `json:"numero_nota_fiscal,omitempty"`
	Provider            string   `json:"fornecedor,omitempty"`
	Invoiced            string   `json:"faturado,omitempty"`
	TotalAmount         float64  `json:"valor_total,omitempty"`
	InstallmentsCreated int      `json:"parcelas_criadas,omitempty"`
	Classifications     []string `json:"classificacoes,omitempty"`
	Error               string   `json:"error,omitempty"`
}

func (r *Result) fail(message string) *Result {
	r.Success = false
	r.Error = message
	return r
}

// Process validates the extracted data, upserts both parties and every
// classification, then writes the transaction with its installments.
// Validation runs before any row is touched, so incomplete data leaves
// nothing behind.
func (s *Service) Process(ctx context.Context, extracted *domain.ExtractedInvoice) *Result {
	log := logger.FromContext(ctx)
	res := &Result{Messages: []string{}}

	provider := &domain.Party{
		Role:      domain.RoleProvider,
		LegalName: safeText(extracted.Provider.LegalName),
		TradeName: safeText(extracted.Provider.TradeName),
		Document:  normalizeDocument(extracted.Provider.TaxID),
	}
	if provider.Document == "" || provider.LegalName == "" {
		msg := "Dados do fornecedor incompletos (CNPJ ou Razão Social)"
		res.Messages = append(res.Messages, "Erro de validação: "+msg)
		return res.fail(msg)
	}

	invoiced := &domain.Party{
		Role:      domain.RoleInvoiced,
		LegalName: safeText(extracted.Invoiced.Name),
		Document:  normalizeDocument(extracted.Invoiced.TaxID),
	}
	if invoiced.Document == "" || invoiced.LegalName == "" {
		msg := "Dados do faturado incompletos (CPF/CNPJ ou Nome)"
		res.Messages = append(res.Messages, "Erro de validação: "+msg)
		return res.fail(msg)
	}

	created, err := s.store.GetOrCreateParty(ctx, provider)
	if err != nil {
		res.Messages = append(res.Messages, "Erro inesperado: "+err.Error())
		return res.fail(err.Error())
	}
	if created {
		res.Messages = append(res.Messages,
			fmt.Sprintf("FORNECEDOR: %s - NÃO EXISTE", provider.LegalName),
			fmt.Sprintf("Novo fornecedor criado: %s", provider.LegalName))
	} else {
		res.Messages = append(res.Messages,
			fmt.Sprintf("FORNECEDOR: %s - EXISTE (ID: %d)", provider.LegalName, provider.ID))
	}

	created, err = s.store.GetOrCreateParty(ctx, invoiced)
	if err != nil {
		res.Messages = append(res.Messages, "Erro inesperado: "+err.Error())
		return res.fail(err.Error())
	}
	if created {
		res.Messages = append(res.Messages,
			fmt.Sprintf("FATURADO: %s - NÃO EXISTE", invoiced.LegalName),
			fmt.Sprintf("Novo faturado criado: %s", invoiced.LegalName))
	} else {
		res.Messages = append(res.Messages,
			fmt.Sprintf("FATURADO: %s - EXISTE (ID: %d)", invoiced.LegalName, invoiced.ID))
	}

	var classificationIDs []int64
	var classificationLabels []string
	seen := map[string]bool{}
	for _, label := range extracted.Categories {
		label = safeText(label)
		if label == "" || seen[strings.ToUpper(label)] {
			continue
		}
		seen[strings.ToUpper(label)] = true

		classification, created, err := s.store.GetOrCreateClassification(ctx, domain.KindExpense, label)
		if err != nil {
			res.Messages = append(res.Messages, "Erro inesperado: "+err.Error())
			return res.fail(err.Error())
		}
		if created {
			res.Messages = append(res.Messages,
				fmt.Sprintf("DESPESA: %s - NÃO EXISTE", label),
				fmt.Sprintf("Nova classificação criada: %s", label))
		} else {
			res.Messages = append(res.Messages,
				fmt.Sprintf("DESPESA: %s - EXISTE (ID: %d)", label, classification.ID))
		}

		classificationIDs = append(classificationIDs, classification.ID)
		classificationLabels = append(classificationLabels, classification.Label)
	}

	invoiceNumber := safeText(extracted.InvoiceNumber)
	if invoiceNumber == "" {
		invoiceNumber = "S/N"
	}

	exists, err := s.store.InvoiceNumberExists(ctx, invoiceNumber)
	if err != nil {
		res.Messages = append(res.Messages, "Erro inesperado: "+err.Error())
		return res.fail(err.Error())
	}
	if exists {
		msg := fmt.Sprintf("Número da nota fiscal '%s' já existe no banco de dados.", invoiceNumber)
		res.Messages = append(res.Messages, "Erro ao criar registro: "+msg)
		return res.fail(msg)
	}

	issueDate := parseDate(extracted.IssueDate, s.now())
	dueDate := parseDate(extracted.DueDate, s.now())
	totalAmount := decimal.NewFromFloat(extracted.TotalAmount)

	tx := &domain.Transaction{
		Direction:     domain.DirectionPayable,
		InvoiceNumber: invoiceNumber,
		IssueDate:     issueDate,
		Description:   buildDescription(extracted.LineItems),
		TotalAmount:   totalAmount,
		ProviderID:    provider.ID,
		InvoicedID:    invoiced.ID,
		Embedding:     s.embed(ctx, extracted, classificationLabels),
		Installments:  domain.BuildInstallments(totalAmount, extracted.InstallmentCount, dueDate),
	}

	if err := s.store.CreateTransaction(ctx, tx, classificationIDs); err != nil {
		msg := err.Error()
		if errors.Is(err, domain.ErrDuplicateInvoice) {
			msg = fmt.Sprintf("Número da nota fiscal '%s' já existe no banco de dados.", invoiceNumber)
		}
		res.Messages = append(res.Messages, "Erro ao criar registro: "+msg)
		return res.fail(msg)
	}

	log.Info().
		Int64("transaction_id", tx.ID).
		Str("invoice_number", invoiceNumber).
		Int("installments", len(tx.Installments)).
		Msg("transaction created")

	res.Messages = append(res.Messages, "Registro de movimento criado com sucesso.")
	res.Success = true
	res.TransactionID = tx.ID
	res.InvoiceNumber = invoiceNumber
	res.Provider = provider.LegalName
	res.Invoiced = invoiced.LegalName
	res.TotalAmount = totalAmount.InexactFloat64()
	res.InstallmentsCreated = len(tx.Installments)
	res.Classifications = classificationLabels

	return res
}

// embed builds the rich indexing text and turns it into a vector. A
// failure here never blocks the ingest; the row lands without an
// embedding and the backfill picks it up later.
func (s *Service) embed(ctx context.Context, extracted *domain.ExtractedInvoice, classifications []string) []float32 {
	input := embedding.RichContextInput{
		InvoiceNumber:    safeText(extracted.InvoiceNumber),
		ProviderName:     safeText(extracted.Provider.LegalName),
		InvoicedName:     safeText(extracted.Invoiced.Name),
		IssueDate:        safeText(extracted.IssueDate),
		TotalAmount:      decimal.NewFromFloat(extracted.TotalAmount),
		InstallmentCount: extracted.InstallmentCount,
		DueDate:          safeText(extracted.DueDate),
		LineItems:        extracted.LineItems,
		Classifications:  classifications,
	}

	vector, err := s.embedder.Embed(ctx, embedding.BuildRichContext(input))
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("embedding failed, row will be backfilled")
		return nil
	}
	return vector
}

// normalizeDocument strips everything but digits from a CPF/CNPJ.
func normalizeDocument(document string) string {
	var b strings.Builder
	for _, r := range document {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// safeText trims whitespace and folds the literal "null" the model
// sometimes emits into an empty string.
func safeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "null" {
		return ""
	}
	return s
}

func parseDate(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return fallback
	}

	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return fallback
	}
	return t
}

// buildDescription joins line items with a pipe and caps the length at
// the column width.
func buildDescription(items []string) string {
	desc := domain.NoDescription
	if len(items) > 0 {
		desc = strings.Join(items, " | ")
	}

	if r := []rune(desc); len(r) > maxDescriptionLen {
		desc = string(r[:maxDescriptionLen])
	}
	return desc
}
