package entity

import "github.com/shopspring/decimal"

// Discriminador dos itens de transporte generalizados.
const (
	TipoItemTransporteVolume  = "VOLUME"
	TipoItemTransporteVeiculo = "VEICULO"
	TipoItemTransporteLacre   = "LACRE"
)

// Transporte dados de frete da nota; no máximo um por nota. A transportadora,
// quando presente, é uma Pessoa no papel TRANSPORTADORA.
type Transporte struct {
	ID              int64
	ModalidadeFrete *int
	Transportadora  *Pessoa
	Volumes         []Volume
	Veiculos        []Veiculo
	// Lacres soltos: lacres que o documento traz fora de qualquer volume
	// ficam ligados direto ao transporte, sem pai.
	Lacres []Lacre
}

// Volume um volume transportado. Os lacres aninhados no XML sob este volume
// viram filhos dele na árvore rasa de transporte_item.
type Volume struct {
	ID          int64
	Quantidade  *int
	Especie     string
	Marca       string
	Numeracao   string
	PesoLiquido decimal.NullDecimal
	PesoBruto   decimal.NullDecimal
	Lacres      []Lacre
}

// Veiculo veículo de transporte (placa/UF/RNTC).
type Veiculo struct {
	ID    int64
	Placa string
	UF    string
	RNTC  string
}

// Lacre número de lacre; filho de um volume ou ligado direto ao transporte.
type Lacre struct {
	ID     int64
	Numero string
}
