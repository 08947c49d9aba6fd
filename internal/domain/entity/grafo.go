package entity

// Grafo é o rascunho relacional completo de uma nota: tudo que a carga grava
// em uma transação. Produzido pela normalização, ainda sem IDs de banco.
type Grafo struct {
	Nota         NotaFiscal
	Emitente     Pessoa
	Destinatario Pessoa
	// EnderecosNota endereços de retirada/entrega pertencentes à própria nota
	// (quando o documento não traz uma pessoa distinta para eles).
	EnderecosNota []Endereco
	Itens         []Item
	Totais        *Totais
	Transporte    *Transporte
	InfAdicionais *InformacoesAdicionais
}
