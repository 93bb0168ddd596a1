package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/domain"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

// Keyword groups that steer which tables the context builder queries.
// Matching is plain substring over the lowercased question.
var (
	keywordsTotal          = []string{"total", "soma", "somar", "quanto", "valor"}
	keywordsCount          = []string{"quantas", "quantos", "número de", "quantidade"}
	keywordsList           = []string{"listar", "liste", "mostrar", "mostre", "quais"}
	keywordsPerson         = []string{"fornecedor", "cliente", "faturado", "empresa"}
	keywordsClassification = []string{"classificação", "categoria", "despesa", "receita", "tipo"}
	keywordsTransaction    = []string{"transação", "transações", "nota", "notas", "nota fiscal", "nf"}
	keywordsInstallment    = []string{"parcela", "parcelas", "vencimento"}
)

// monthNames in calendar order; the first name found in the question
// wins.
var monthNames = []struct {
	name  string
	month time.Month
}{
	{"janeiro", time.January},
	{"fevereiro", time.February},
	{"março", time.March},
	{"abril", time.April},
	{"maio", time.May},
	{"junho", time.June},
	{"julho", time.July},
	{"agosto", time.August},
	{"setembro", time.September},
	{"outubro", time.October},
	{"novembro", time.November},
	{"dezembro", time.December},
}

var (
	cnpjPattern = regexp.MustCompile(`\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}`)
	cpfPattern  = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`)
	yearPattern = regexp.MustCompile(`20\d{2}`)

	invoicePatterns = []*regexp.Regexp{
		regexp.MustCompile(`nota\s+fiscal\s+(\d+)`),
		regexp.MustCompile(`nf\s+(\d+)`),
		regexp.MustCompile(`nota\s+(\d+)`),
		regexp.MustCompile(`número\s+(\d+)`),
	}

	documentPunct = strings.NewReplacer(".", "", "/", "", "-", "")
)

// extractDocuments pulls CNPJ and CPF shaped numbers out of the
// question, punctuation stripped. An unformatted CNPJ also matches the
// CPF shape on its first eleven digits; the extra entry is harmless
// because documents only narrow lookups.
func extractDocuments(question string) []string {
	var raw []string
	raw = append(raw, cnpjPattern.FindAllString(question, -1)...)
	raw = append(raw, cpfPattern.FindAllString(question, -1)...)

	docs := make([]string, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, documentPunct.Replace(doc))
	}
	return docs
}

// extractInvoiceNumbers finds invoice references such as "nota fiscal
// 123", "nf 456" or "número 789".
func extractInvoiceNumbers(question string) []string {
	var numbers []string
	for _, pattern := range invoicePatterns {
		for _, m := range pattern.FindAllStringSubmatch(question, -1) {
			numbers = append(numbers, m[1])
		}
	}
	return numbers
}

// extractPeriod resolves a month name, optionally with a 20xx year and
// defaulting to the current one, to that calendar month; a bare 20xx
// year resolves to the whole year. Both bounds are nil when the
// question names neither.
func extractPeriod(question string, now time.Time) (*time.Time, *time.Time) {
	for _, m := range monthNames {
		if !strings.Contains(question, m.name) {
			continue
		}

		year := now.Year()
		if y := yearPattern.FindString(question); y != "" {
			year, _ = strconv.Atoi(y)
		}

		start := time.Date(year, m.month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
		return &start, &end
	}

	if y := yearPattern.FindString(question); y != "" {
		year, _ := strconv.Atoi(y)
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return &start, &end
	}

	return nil, nil
}

// extractClassificationLabels matches the known category names against
// the question: the full name first, then any word of the name longer
// than three characters.
func extractClassificationLabels(question string) []string {
	upper := strings.ToUpper(question)

	var found []string
	for _, label := range domain.ExpenseCategories {
		if strings.Contains(upper, label) {
			found = append(found, label)
			continue
		}
		for _, word := range strings.Fields(label) {
			if len(word) > 3 && strings.Contains(upper, word) {
				found = append(found, label)
				break
			}
		}
	}
	return found
}

func containsAny(question string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(question, kw) {
			return true
		}
	}
	return false
}

// ContextStore is the read surface the lexical builder queries.
type ContextStore interface {
	ListActiveParties(ctx context.Context, documents []string, limit int) ([]*domain.Party, error)
	ListActiveClassifications(ctx context.Context, labels []string, limit int) ([]*domain.Classification, error)
	FilterTransactions(ctx context.Context, filter postgres.TransactionFilter) ([]*domain.Transaction, error)
	SummarizeTransactions(ctx context.Context, filter postgres.TransactionFilter) (*postgres.TransactionSummary, error)
	FilterInstallments(ctx context.Context, filter postgres.InstallmentFilter) ([]*domain.Installment, map[int64]string, error)
	SummarizeInstallments(ctx context.Context, filter postgres.InstallmentFilter) (*postgres.InstallmentSummary, error)
}

// Builder assembles a textual context for a question by extracting
// filter predicates lexically and running the matching store queries.
type Builder struct {
	store ContextStore
	now   func() time.Time
}

func NewBuilder(store ContextStore) *Builder {
	return &Builder{store: store, now: time.Now}
}

// Build extracts predicates from the question, queries conditionally
// and renders every section that found data. An empty string means
// nothing matched; callers answer "no data" without involving the
// model.
func (b *Builder) Build(ctx context.Context, question string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(question))

	documents := extractDocuments(q)
	invoiceNumbers := extractInvoiceNumbers(q)
	from, to := extractPeriod(q, b.now())
	labels := extractClassificationLabels(q)

	wantsAggregate := containsAny(q, keywordsTotal) || containsAny(q, keywordsCount)

	var parts []string
	var partyIDs []int64

	if len(documents) > 0 || containsAny(q, keywordsPerson) {
		parties, err := b.store.ListActiveParties(ctx, documents, 0)
		if err != nil {
			return "", fmt.Errorf("querying parties: %w", err)
		}
		for _, p := range parties {
			partyIDs = append(partyIDs, p.ID)
		}
		if s := renderParties(parties); s != "" {
			parts = append(parts, s)
		}
	}

	if len(labels) > 0 || containsAny(q, keywordsClassification) {
		classifications, err := b.store.ListActiveClassifications(ctx, labels, 0)
		if err != nil {
			return "", fmt.Errorf("querying classifications: %w", err)
		}
		if s := renderClassifications(classifications); s != "" {
			parts = append(parts, s)
		}
	}

	var txs []*domain.Transaction
	if containsAny(q, keywordsTransaction) || containsAny(q, keywordsTotal) ||
		containsAny(q, keywordsCount) || containsAny(q, keywordsList) ||
		len(invoiceNumbers) > 0 || from != nil || len(documents) > 0 ||
		containsAny(q, keywordsClassification) {

		filter := postgres.TransactionFilter{
			PartyIDs:       partyIDs,
			InvoiceNumbers: invoiceNumbers,
			From:           from,
			To:             to,
			Labels:         labels,
		}

		var err error
		txs, err = b.store.FilterTransactions(ctx, filter)
		if err != nil {
			return "", fmt.Errorf("querying transactions: %w", err)
		}

		if len(txs) > 0 {
			if wantsAggregate {
				summary, err := b.store.SummarizeTransactions(ctx, filter)
				if err != nil {
					return "", fmt.Errorf("summarizing transactions: %w", err)
				}
				if s := renderTransactionSummary(summary); s != "" {
					parts = append(parts, s)
				}
			} else {
				if s := renderTransactions(txs); s != "" {
					parts = append(parts, s)
				}
			}
		}
	}

	if containsAny(q, keywordsInstallment) || len(txs) > 0 {
		txIDs := make([]int64, 0, len(txs))
		for _, tx := range txs {
			txIDs = append(txIDs, tx.ID)
		}

		filter := postgres.InstallmentFilter{
			TransactionIDs: txIDs,
			DueFrom:        from,
			DueTo:          to,
		}

		if wantsAggregate {
			summary, err := b.store.SummarizeInstallments(ctx, filter)
			if err != nil {
				return "", fmt.Errorf("summarizing installments: %w", err)
			}
			if s := renderInstallmentSummary(summary); s != "" {
				parts = append(parts, s)
			}
		} else {
			installments, invoices, err := b.store.FilterInstallments(ctx, filter)
			if err != nil {
				return "", fmt.Errorf("querying installments: %w", err)
			}
			if s := renderInstallments(installments, invoices); s != "" {
				parts = append(parts, s)
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}
