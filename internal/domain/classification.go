package domain

// ClassificationKind is the ledger side a category belongs to.
type ClassificationKind string

const (
	KindExpense ClassificationKind = "despesa"
	KindRevenue ClassificationKind = "receita"
)

// Classification is an expense/revenue category attached to
// transactions. Labels are looked up case-insensitively and created on
// first use.
type Classification struct {
	ID     int64
	Kind   ClassificationKind
	Label  string
	Status RowStatus
}

// ExpenseCategories are the ten labels the extraction prompt steers the
// model toward. Free-form labels outside this list are still accepted
// and stored.
var ExpenseCategories = []string{
	"INSUMOS AGRÍCOLAS",
	"MANUTENÇÃO E OPERAÇÃO",
	"RECURSOS HUMANOS",
	"SERVIÇOS OPERACIONAIS",
	"INFRAESTRUTURA E UTILIDADES",
	"ADMINISTRATIVAS",
	"SEGUROS E PROTEÇÃO",
	"IMPOSTOS E TAXAS",
	"INVESTIMENTOS",
	"OUTRAS DESPESAS",
}
