package domain

// PartyRole distinguishes the two sides an invoice can name.
type PartyRole string

const (
	RoleProvider PartyRole = "fornecedor"
	RoleInvoiced PartyRole = "faturado"
)

// RowStatus is the soft-delete state shared by every persisted entity.
// Rows are flipped to inactive, never removed.
type RowStatus string

const (
	StatusActive   RowStatus = "ativo"
	StatusInactive RowStatus = "inativo"
)

// Party is a provider or invoiced counterpart, identified by its
// normalized tax document (digits only). The document is the sole
// natural key: creation is get-or-create by document.
type Party struct {
	ID        int64
	Role      PartyRole
	LegalName string
	TradeName string // empty when the invoice carries none
	Document  string // CNPJ or CPF, punctuation stripped
	Status    RowStatus
}
