package entity

import "github.com/shopspring/decimal"

// Totais resumo monetário agregado da nota (grupo ICMSTot). Uma linha por
// nota, criada uma única vez. Todos os valores com 2 casas decimais.
type Totais struct {
	BaseCalculoICMS   decimal.NullDecimal
	ValorICMS         decimal.NullDecimal
	BaseCalculoICMSST decimal.NullDecimal
	ValorICMSST       decimal.NullDecimal
	ValorProdutos     decimal.Decimal
	ValorFrete        decimal.NullDecimal
	ValorSeguro       decimal.NullDecimal
	ValorDesconto     decimal.NullDecimal
	ValorII           decimal.NullDecimal
	ValorIPI          decimal.NullDecimal
	ValorPIS          decimal.NullDecimal
	ValorCOFINS       decimal.NullDecimal
	ValorOutros       decimal.NullDecimal
	ValorTotalNFe     decimal.Decimal
}
