package repository

import "github.com/brfiscal/nfe-ingest/internal/domain/entity"

// PessoaRepository porta de persistência para pessoas generalizadas.
// Pessoas são globais, chaveadas pelo documento de identidade, e reutilizadas
// entre notas do mesmo emitente/destinatário.
type PessoaRepository interface {
	// UpsertPorIdentidade grava a pessoa se a identidade ainda não existe e
	// preenche pessoa.ID. Devolve true quando a linha foi criada agora.
	UpsertPorIdentidade(pessoa *entity.Pessoa) (criada bool, err error)
	// CriarEnderecoPrincipal grava o endereço PRINCIPAL pertencente à pessoa.
	CriarEnderecoPrincipal(pessoaID int64, end *entity.Endereco) error
	BuscarPorIdentidade(id entity.Identidade) (*entity.Pessoa, error)
}
