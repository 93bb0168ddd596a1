package domain

// ExtractedProvider is the issuing side of a parsed invoice.
type ExtractedProvider struct {
	LegalName string `json:"razao_social"`
	TradeName string `json:"fantasia"`
	TaxID     string `json:"cnpj"`
}

// ExtractedInvoiced is the billed side of a parsed invoice.
type ExtractedInvoiced struct {
	Name  string `json:"nome_completo"`
	TaxID string `json:"cpf_cnpj"`
}

// ExtractedInvoice is the structured result of running the extraction
// prompt over one invoice PDF. Field tags mirror the JSON contract the
// prompt demands from the model; dates arrive as DD/MM/YYYY strings
// and are parsed downstream.
type ExtractedInvoice struct {
	Provider         ExtractedProvider `json:"fornecedor"`
	Invoiced         ExtractedInvoiced `json:"faturado"`
	InvoiceNumber    string            `json:"numero_nota_fiscal"`
	IssueDate        string            `json:"data_emissao"`
	LineItems        []string          `json:"descricao_produtos"`
	Categories       []string          `json:"classificacao_despesa"`
	InstallmentCount int               `json:"quantidade_parcelas"`
	DueDate          string            `json:"data_vencimento"`
	TotalAmount      float64           `json:"valor_total"`
}
