package repository

import "github.com/brfiscal/nfe-ingest/internal/domain/entity"

// NotaFiscalRepository porta de persistência para o cabeçalho da nota e seus
// agregados diretos (vínculos de pessoa, endereços da nota, totais, infAdic).
type NotaFiscalRepository interface {
	// BuscarPorChaveParaCarga busca a nota pela chave travando a linha
	// (FOR UPDATE): cargas concorrentes da mesma chave serializam aqui.
	BuscarPorChaveParaCarga(chave string) (*entity.NotaFiscal, error)
	// Criar insere o cabeçalho com ON CONFLICT (chave_acesso) DO NOTHING e
	// preenche nota.ID. Conflito sem linha retornada vira ErrChaveDuplicada:
	// outro escritor já carregou a mesma chave.
	Criar(nota *entity.NotaFiscal) error
	// AtualizarReprocessada regrava o cabeçalho preservando id e criado_em,
	// avançando apenas atualizado_em.
	AtualizarReprocessada(nota *entity.NotaFiscal) error
	// RemoverDependentes apaga todas as linhas dependentes da nota (vínculos,
	// endereços da nota, itens, impostos, transporte, totais, infAdic) antes
	// do reinsert de um reprocessamento.
	RemoverDependentes(notaID int64) error
	VincularPessoa(notaID, pessoaID int64, tipoRelacao string) error
	CriarEnderecoNota(notaID int64, end *entity.Endereco) error
	CriarTotais(notaID int64, totais *entity.Totais) error
	CriarInformacoesAdicionais(notaID int64, info *entity.InformacoesAdicionais) error
	AtualizarStatus(notaID int64, status string) error
}
