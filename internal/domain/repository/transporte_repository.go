package repository

import "github.com/brfiscal/nfe-ingest/internal/domain/entity"

// TransporteRepository porta de persistência para o transporte e sua árvore
// rasa de itens (volumes, veículos, lacres).
type TransporteRepository interface {
	// Criar grava o transporte e os itens em ordem de inserção: cada volume
	// antes dos seus lacres, para que o id do pai exista ao gravar o filho.
	Criar(notaID int64, transporte *entity.Transporte) error
}
