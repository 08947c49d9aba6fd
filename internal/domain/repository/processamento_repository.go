package repository

import "github.com/brfiscal/nfe-ingest/internal/domain/entity"

// ProcessamentoRepository porta do rastreador de status. Append-only: grava e
// consulta, nunca altera nem remove registros anteriores.
type ProcessamentoRepository interface {
	Registrar(p *entity.Processamento) error
	// UltimoStatus devolve o registro mais recente da chave, ou
	// ErrNotaNaoEncontrada se a chave nunca foi processada.
	UltimoStatus(chave string) (*entity.Processamento, error)
	ListarPorChave(chave string) ([]*entity.Processamento, error)
}
