package entity

import "github.com/shopspring/decimal"

// Item uma linha de produto da nota. Único por (nota, número do item).
// Quantidades e valores unitários com 4 casas; totais monetários com 2.
type Item struct {
	ID                      int64
	NumeroItem              int
	CodigoProduto           string
	GTIN                    string
	Descricao               string
	NCM                     string
	CFOP                    string
	UnidadeComercial        string
	QuantidadeComercial     decimal.Decimal
	ValorUnitarioComercial  decimal.Decimal
	ValorTotalBruto         decimal.Decimal
	GTINTributavel          string
	UnidadeTributavel       string
	QuantidadeTributavel    decimal.Decimal
	ValorUnitarioTributavel decimal.Decimal
	OrigemMercadoria        *int
	Impostos                []Imposto
}
