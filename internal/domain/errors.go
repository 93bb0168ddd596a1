package domain

import "errors"

var (
	// ErrDuplicateInvoice is returned when a transaction with the same
	// invoice number already exists. Retrying would not change the
	// outcome, so callers must fail immediately instead of burning
	// retry budget.
	ErrDuplicateInvoice = errors.New("invoice number already exists")

	// ErrIncompleteProvider is returned when the extracted provider is
	// missing its tax document or legal name.
	ErrIncompleteProvider = errors.New("incomplete provider data")

	// ErrIncompleteInvoiced is returned when the extracted invoiced
	// party is missing its tax document or name.
	ErrIncompleteInvoiced = errors.New("incomplete invoiced party data")

	// ErrEmptyQuestion is returned when a query operation receives a
	// blank question.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrEmptyCompletion is returned when the model produced no text
	// where an answer was required. Transient; retryable.
	ErrEmptyCompletion = errors.New("empty completion from model")

	// ErrNotFound is returned by store lookups that matched nothing.
	ErrNotFound = errors.New("not found")
)

// IsTerminal reports whether err is a validation failure that retrying
// cannot fix.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrDuplicateInvoice) ||
		errors.Is(err, ErrIncompleteProvider) ||
		errors.Is(err, ErrIncompleteInvoiced) ||
		errors.Is(err, ErrEmptyQuestion)
}
