package extraction

// extractionPrompt instructs the model to pull every transaction out of the
// statement. Kept in Portuguese to match the statements it reads and the
// domain values (behavior classes, fallback categories) stored downstream.
const extractionPrompt = `
Você é um assistente financeiro especializado em extrair transações de documentos.

Analise este documento e extraia TODAS as transações financeiras encontradas.

Para cada transação, retorne um objeto JSON com:
- description: descrição da transação
- amount: valor (número positivo)
- date_incurred: data da compra (YYYY-MM-DD)
- date_payment: data de vencimento (YYYY-MM-DD)
- category: categoria (Alimentação, Transporte, Lazer, etc)
- behavior_class: tipo (Essencial, Supérfluo, Lazer, Investimento)
- installment_current: parcela atual (número, padrão 1)
- installment_total: total de parcelas (número, padrão 1)
- entity: estabelecimento/loja

Também extraia:
- bank_name: nome do banco
- card_number: últimos 4 dígitos do cartão
- card_holder: nome do titular

Retorne APENAS um JSON válido no formato:
{
  "transactions": [...],
  "bank_name": "...",
  "card_number": "...",
  "card_holder": "..."
}
`
