package entity

import "github.com/shopspring/decimal"

// Tipos de imposto suportados na generalização.
const (
	TipoImpostoICMS   = "ICMS"
	TipoImpostoIPI    = "IPI"
	TipoImpostoPIS    = "PIS"
	TipoImpostoCOFINS = "COFINS"
)

// Imposto é o tipo-soma dos impostos de um item. Em memória cada variante
// carrega apenas os campos do seu tipo; a linha larga com discriminador existe
// só na fronteira de persistência. Um tipo ausente no documento de origem não
// gera valor algum — ausência e zero são coisas distintas.
type Imposto interface {
	TipoImposto() string
}

// BaseImposto campos exigidos em qualquer variante quando a linha existe:
// base de cálculo, alíquota e valor apurado.
type BaseImposto struct {
	BaseCalculo decimal.NullDecimal
	Aliquota    decimal.NullDecimal
	Valor       decimal.NullDecimal
}

// Completa informa se os três campos obrigatórios estão presentes.
func (b BaseImposto) Completa() bool {
	return b.BaseCalculo.Valid && b.Aliquota.Valid && b.Valor.Valid
}

// ImpostoICMS variante ICMS (inclui grupos ICMS00..ICMS90 do layout).
type ImpostoICMS struct {
	BaseImposto
	Origem              *int
	CST                 string
	ModalidadeBC        *int
	PercentualReducaoBC decimal.NullDecimal
}

// ImpostoIPI variante IPI.
type ImpostoIPI struct {
	BaseImposto
	CST                 string
	CodigoEnquadramento string
}

// ImpostoPIS variante PIS.
type ImpostoPIS struct {
	BaseImposto
	CST string
}

// ImpostoCOFINS variante COFINS.
type ImpostoCOFINS struct {
	BaseImposto
	CST string
}

func (ImpostoICMS) TipoImposto() string   { return TipoImpostoICMS }
func (ImpostoIPI) TipoImposto() string    { return TipoImpostoIPI }
func (ImpostoPIS) TipoImposto() string    { return TipoImpostoPIS }
func (ImpostoCOFINS) TipoImposto() string { return TipoImpostoCOFINS }
