package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/infrastructure/postgres"
)

// linhaScript responde um QueryRow: ou um erro de Scan, ou um id devolvido.
type linhaScript struct {
	err error
	id  int64
}

func (l linhaScript) Scan(dest ...any) error {
	if l.err != nil {
		return l.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = l.id
	}
	return nil
}

// querierScript devolve as linhas na ordem do roteiro e grava o SQL emitido.
type querierScript struct {
	sqls   []string
	linhas []linhaScript
}

func (q *querierScript) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sqls = append(q.sqls, sql)
	return pgconn.CommandTag{}, nil
}

func (q *querierScript) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sqls = append(q.sqls, sql)
	return nil, pgx.ErrNoRows
}

func (q *querierScript) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.sqls = append(q.sqls, sql)
	linha := q.linhas[0]
	q.linhas = q.linhas[1:]
	return linha
}

func pessoaCNPJ() *entity.Pessoa {
	return &entity.Pessoa{
		Identidade: entity.Identidade{Tipo: entity.IdentidadeCNPJ, Valor: "12345678000199"},
		Nome:       "Empresa Exemplo LTDA",
	}
}

func TestUpsertPorIdentidade_JaExistente(t *testing.T) {
	q := &querierScript{linhas: []linhaScript{{id: 3}}}
	repo := postgres.NewPessoaRepository(q)

	pessoa := pessoaCNPJ()
	criado, err := repo.UpsertPorIdentidade(pessoa)
	require.NoError(t, err)

	assert.False(t, criado)
	assert.Equal(t, int64(3), pessoa.ID)
	require.Len(t, q.sqls, 1)
	assert.Contains(t, q.sqls[0], "SELECT id FROM nfe.pessoa WHERE cnpj")
}

func TestUpsertPorIdentidade_CriaQuandoAusente(t *testing.T) {
	q := &querierScript{linhas: []linhaScript{{err: pgx.ErrNoRows}, {id: 5}}}
	repo := postgres.NewPessoaRepository(q)

	pessoa := pessoaCNPJ()
	criado, err := repo.UpsertPorIdentidade(pessoa)
	require.NoError(t, err)

	assert.True(t, criado)
	assert.Equal(t, int64(5), pessoa.ID)
	// O INSERT protege a corrida no próprio comando: nenhum erro de unicidade
	// chega a ser levantado, o que abortaria a transação inteira.
	require.Len(t, q.sqls, 2)
	assert.Contains(t, q.sqls[1], "ON CONFLICT (cnpj) WHERE cnpj IS NOT NULL DO NOTHING")
}

func TestUpsertPorIdentidade_CorridaConcorrenteResolveSemErro(t *testing.T) {
	// Outro escritor insere a mesma identidade entre o SELECT inicial e o
	// INSERT. O DO NOTHING suprime a linha (RETURNING vazio) e o id vencedor
	// vem de uma releitura, com a transação ainda utilizável.
	q := &querierScript{linhas: []linhaScript{
		{err: pgx.ErrNoRows}, // SELECT inicial: ainda não existe
		{err: pgx.ErrNoRows}, // INSERT ON CONFLICT DO NOTHING: conflito, sem linha
		{id: 7},              // releitura: linha do escritor concorrente
	}}
	repo := postgres.NewPessoaRepository(q)

	pessoa := pessoaCNPJ()
	criado, err := repo.UpsertPorIdentidade(pessoa)
	require.NoError(t, err)

	assert.False(t, criado)
	assert.Equal(t, int64(7), pessoa.ID)
	require.Len(t, q.sqls, 3)
	assert.Contains(t, q.sqls[2], "SELECT id FROM nfe.pessoa WHERE cnpj")
}

func TestUpsertPorIdentidade_ColunaPorTipo(t *testing.T) {
	q := &querierScript{linhas: []linhaScript{{err: pgx.ErrNoRows}, {id: 1}}}
	repo := postgres.NewPessoaRepository(q)

	pessoa := &entity.Pessoa{
		Identidade: entity.Identidade{Tipo: entity.IdentidadeEstrangeiro, Valor: "EX-900"},
		Nome:       "Importadora Andina",
	}
	_, err := repo.UpsertPorIdentidade(pessoa)
	require.NoError(t, err)
	assert.Contains(t, q.sqls[1], "ON CONFLICT (id_estrangeiro) WHERE id_estrangeiro IS NOT NULL")
}
