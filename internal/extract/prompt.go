package extract

// extractionPrompt instructs the model to read one invoice PDF and
// return the structured JSON contract decoded into
// domain.ExtractedInvoice. Answers outside the contract are rejected
// and retried by the caller.
const extractionPrompt = `Você é um especialista em análise de documentos fiscais. Analise cuidadosamente esta nota fiscal
e extraia APENAS as informações solicitadas, retornando um JSON válido.

Extraia os seguintes dados da nota fiscal:

1. FORNECEDOR (empresa emitente):
   - Razão Social: nome completo da empresa
   - Fantasia: nome fantasia (se disponível)
   - CNPJ: número do CNPJ

2. FATURADO (cliente/destinatário):
   - Nome Completo: nome da pessoa ou empresa
   - CPF/CNPJ: número do CPF ou CNPJ se for empresa

3. NÚMERO DA NOTA FISCAL: número do documento fiscal

4. DATA DE EMISSÃO: data em que a nota foi emitida (formato: DD/MM/AAAA)

5. DESCRIÇÃO DOS PRODUTOS: lista com descrição de cada item/produto/serviço

6. CLASSIFICAÇÃO DE DESPESA: lista com categorias de despesa

7. QUANTIDADE DE PARCELAS: número de parcelas (se à vista, considere 1)

8. DATA DE VENCIMENTO: data de vencimento da nota ou primeira parcela (formato: DD/MM/AAAA)

9. VALOR TOTAL: valor total da nota fiscal

IMPORTANTE:
- Retorne APENAS o JSON, sem explicações adicionais
- Use null para campos não encontrados
- Para valores monetários, use números decimais (ex: 1500.50)
- Para datas, use o formato DD/MM/AAAA
- Para descricao_produtos, retorne um array de strings
- Para o campo do faturado ou destinatário, procure pelo campo de CPF ou CNPJ na nota fiscal

Estrutura JSON esperada:
{
    "fornecedor": {
        "razao_social": "string",
        "fantasia": "string ou null",
        "cnpj": "string"
    },
    "faturado": {
        "nome_completo": "string",
        "cpf_cnpj": "string"
    },
    "numero_nota_fiscal": "string",
    "data_emissao": "string",
    "descricao_produtos": ["string"],
    "classificacao_despesa": ["string"],
    "quantidade_parcelas": número,
    "data_vencimento": "string",
    "valor_total": número
}

Sobre o Item 6 CLASSIFICAÇÃO DE DESPESA deve ser considerado o seguinte critério:
    Analise CADA ITEM na "descricao_produtos" e associe cada um à sua categoria de despesa correspondente.

    CATEGORIAS VÁLIDAS:
    - INSUMOS AGRÍCOLAS (Ex: Sementes, Fertilizantes, Defensivos Agrícolas, Corretivos)
    - MANUTENÇÃO E OPERAÇÃO (Ex: Combustíveis, Lubrificantes, Peças, Parafusos, Pneus, Filtros, Ferramentas, Manutenção de Máquinas)
    - RECURSOS HUMANOS (Ex: Mão de Obra Temporária, Salários)
    - SERVIÇOS OPERACIONAIS (Ex: Frete, Transporte, Colheita Terceirizada, Secagem, Armazenagem, Pulverização)
    - INFRAESTRUTURA E UTILIDADES (Ex: Energia Elétrica, Arrendamento de Terras, Materiais de Construção, Reformas)
    - ADMINISTRATIVAS (Ex: Honorários Contábeis, Advocatícios, Agronômicos, Despesas Bancárias)
    - SEGUROS E PROTEÇÃO (Ex: Seguro Agrícola, Seguro de Máquinas/Veículos)
    - IMPOSTOS E TAXAS (Ex: ITR, IPTU, IPVA, INCRA-CCIR)
    - INVESTIMENTOS (Ex: Aquisição de Máquinas, Veículos, Imóveis, Infraestrutura Rural)
    - OUTRAS DESPESAS (Use esta categoria se nenhum item se encaixar claramente nas outras)

IMPORTANTE:
- A sua resposta deve ser APENAS um objeto JSON válido.
- Não inclua explicações ou texto fora do JSON.
- A lista classificacao_despesa não deve conter valores duplicados.`
