package repository

import "github.com/brfiscal/nfe-ingest/internal/domain/entity"

// ItemRepository porta de persistência para itens da nota e seus impostos.
type ItemRepository interface {
	// Criar grava o item e cada imposto presente na lista como uma linha
	// larga com discriminador. Impostos com campos obrigatórios ausentes
	// devolvem ErrCargaFalhou identificando a constraint.
	Criar(notaID int64, item *entity.Item) error
}
