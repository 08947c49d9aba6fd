package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ repository.PessoaRepository = (*PessoaRepo)(nil)

// PessoaRepo implementação de PessoaRepository (usável com pool ou tx).
// Pessoas são globais: a identidade (cnpj, cpf ou id_estrangeiro) é a chave
// natural, com índices únicos parciais por coluna.
type PessoaRepo struct {
	q Querier
}

// NewPessoaRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewPessoaRepository(q Querier) *PessoaRepo {
	return &PessoaRepo{q: q}
}

// colunaIdentidade mapeia o tipo de identidade para a coluna correspondente.
// O conjunto é fechado; o normalizador já validou o tipo.
func colunaIdentidade(tipo string) (string, error) {
	switch tipo {
	case entity.IdentidadeCNPJ:
		return "cnpj", nil
	case entity.IdentidadeCPF:
		return "cpf", nil
	case entity.IdentidadeEstrangeiro:
		return "id_estrangeiro", nil
	default:
		return "", fmt.Errorf("tipo de identidade desconhecido: %q", tipo)
	}
}

// UpsertPorIdentidade grava a pessoa se a identidade ainda não existe e
// preenche pessoa.ID. O INSERT usa ON CONFLICT DO NOTHING: uma corrida com
// outro escritor nunca levanta erro (o que abortaria a transação inteira) e
// resolve com um novo SELECT da linha vencedora.
func (r *PessoaRepo) UpsertPorIdentidade(pessoa *entity.Pessoa) (bool, error) {
	coluna, err := colunaIdentidade(pessoa.Identidade.Tipo)
	if err != nil {
		return false, err
	}

	if id, err := r.buscarID(coluna, pessoa.Identidade.Valor); err == nil {
		pessoa.ID = id
		return false, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("buscar pessoa por %s: %w", coluna, err)
	}

	// O índice único é parcial (WHERE coluna IS NOT NULL); o alvo do conflito
	// precisa repetir o predicado para o planner inferir o índice.
	query := fmt.Sprintf(`
		INSERT INTO nfe.pessoa (%[1]s, nome, nome_fantasia, inscricao_estadual, email, regime_tributario)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%[1]s) WHERE %[1]s IS NOT NULL DO NOTHING
		RETURNING id`, coluna)
	err = r.q.QueryRow(context.Background(), query,
		pessoa.Identidade.Valor, pessoa.Nome, nullIfEmpty(pessoa.NomeFantasia),
		nullIfEmpty(pessoa.InscricaoEstadual), nullIfEmpty(pessoa.Email), pessoa.RegimeTributario,
	).Scan(&pessoa.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Outro escritor inseriu a mesma identidade entre o SELECT e o
			// INSERT; o DO NOTHING suprimiu a linha. Relê o id vencedor.
			id, serr := r.buscarID(coluna, pessoa.Identidade.Valor)
			if serr != nil {
				return false, fmt.Errorf("reler pessoa após conflito: %w", serr)
			}
			pessoa.ID = id
			return false, nil
		}
		return false, fmt.Errorf("insert pessoa: %w", err)
	}
	return true, nil
}

func (r *PessoaRepo) buscarID(coluna, valor string) (int64, error) {
	query := fmt.Sprintf(`SELECT id FROM nfe.pessoa WHERE %s = $1`, coluna)
	var id int64
	err := r.q.QueryRow(context.Background(), query, valor).Scan(&id)
	return id, err
}

// CriarEnderecoPrincipal grava o endereço PRINCIPAL pertencente à pessoa.
func (r *PessoaRepo) CriarEnderecoPrincipal(pessoaID int64, end *entity.Endereco) error {
	query := `
		INSERT INTO nfe.endereco (tipo, pessoa_id, logradouro, numero, complemento, bairro,
		                          codigo_municipio, municipio, uf, cep, codigo_pais, pais, telefone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		entity.TipoEnderecoPrincipal, pessoaID,
		end.Logradouro, nullIfEmpty(end.Numero), nullIfEmpty(end.Complemento), nullIfEmpty(end.Bairro),
		nullIfEmpty(end.CodigoMunicipio), end.Municipio, end.UF, nullIfEmpty(end.CEP),
		nullIfEmpty(end.CodigoPais), nullIfEmpty(end.Pais), nullIfEmpty(end.Telefone),
	).Scan(&end.ID)
	if err != nil {
		return fmt.Errorf("insert endereco principal: %w", err)
	}
	return nil
}

// BuscarPorIdentidade carrega a pessoa e seu endereço principal, se houver.
func (r *PessoaRepo) BuscarPorIdentidade(id entity.Identidade) (*entity.Pessoa, error) {
	coluna, err := colunaIdentidade(id.Tipo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, nome, nome_fantasia, inscricao_estadual, email, regime_tributario
		FROM nfe.pessoa WHERE %s = $1`, coluna)
	var p entity.Pessoa
	var nomeFantasia, inscricaoEstadual, email *string
	err = r.q.QueryRow(context.Background(), query, id.Valor).Scan(
		&p.ID, &p.Nome, &nomeFantasia, &inscricaoEstadual, &email, &p.RegimeTributario,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar pessoa: %w", err)
	}
	p.Identidade = id
	p.NomeFantasia = derefStr(nomeFantasia)
	p.InscricaoEstadual = derefStr(inscricaoEstadual)
	p.Email = derefStr(email)

	end, err := r.enderecoPrincipal(p.ID)
	if err != nil {
		return nil, err
	}
	p.EnderecoPrincipal = end
	return &p, nil
}

func (r *PessoaRepo) enderecoPrincipal(pessoaID int64) (*entity.Endereco, error) {
	query := `
		SELECT id, logradouro, numero, complemento, bairro, codigo_municipio,
		       municipio, uf, cep, codigo_pais, pais, telefone
		FROM nfe.endereco
		WHERE pessoa_id = $1 AND tipo = $2`
	var e entity.Endereco
	var numero, complemento, bairro, codMun, cep, codPais, pais, tel *string
	err := r.q.QueryRow(context.Background(), query, pessoaID, entity.TipoEnderecoPrincipal).Scan(
		&e.ID, &e.Logradouro, &numero, &complemento, &bairro, &codMun,
		&e.Municipio, &e.UF, &cep, &codPais, &pais, &tel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar endereco principal: %w", err)
	}
	e.Tipo = entity.TipoEnderecoPrincipal
	e.Numero = derefStr(numero)
	e.Complemento = derefStr(complemento)
	e.Bairro = derefStr(bairro)
	e.CodigoMunicipio = derefStr(codMun)
	e.CEP = derefStr(cep)
	e.CodigoPais = derefStr(codPais)
	e.Pais = derefStr(pais)
	e.Telefone = derefStr(tel)
	return &e, nil
}
