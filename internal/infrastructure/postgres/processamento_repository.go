package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ repository.ProcessamentoRepository = (*ProcessamentoRepo)(nil)

// ProcessamentoRepo implementação de ProcessamentoRepository. Append-only:
// só INSERT e SELECT, nunca UPDATE ou DELETE.
type ProcessamentoRepo struct {
	q Querier
}

// NewProcessamentoRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewProcessamentoRepository(q Querier) *ProcessamentoRepo {
	return &ProcessamentoRepo{q: q}
}

// Registrar grava um registro de tentativa de processamento.
func (r *ProcessamentoRepo) Registrar(p *entity.Processamento) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO nfe.processamento_nfe (id, nfe_id, chave_acesso, status, mensagem,
		                                   xml_original, payload_normalizado, processado_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.NotaFiscalID, nullIfEmpty(p.ChaveAcesso), p.Status, nullIfEmpty(p.Mensagem),
		p.XMLOriginal, p.PayloadNormalizado, p.ProcessadoEm,
	)
	if err != nil {
		return fmt.Errorf("insert processamento: %w", err)
	}
	return nil
}

const colunasProcessamento = `
	id, nfe_id, chave_acesso, status, mensagem, xml_original, payload_normalizado, processado_em`

// UltimoStatus devolve o registro mais recente da chave, ou
// ErrNotaNaoEncontrada se a chave nunca foi processada.
func (r *ProcessamentoRepo) UltimoStatus(chave string) (*entity.Processamento, error) {
	query := `SELECT` + colunasProcessamento + `
		FROM nfe.processamento_nfe
		WHERE chave_acesso = $1
		ORDER BY processado_em DESC, id DESC
		LIMIT 1`
	p, err := escanearProcessamento(r.q.QueryRow(context.Background(), query, chave))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotaNaoEncontrada
		}
		return nil, fmt.Errorf("buscar último processamento: %w", err)
	}
	return p, nil
}

// ListarPorChave devolve o histórico completo da chave, mais recente primeiro.
func (r *ProcessamentoRepo) ListarPorChave(chave string) ([]*entity.Processamento, error) {
	query := `SELECT` + colunasProcessamento + `
		FROM nfe.processamento_nfe
		WHERE chave_acesso = $1
		ORDER BY processado_em DESC, id DESC`
	rows, err := r.q.Query(context.Background(), query, chave)
	if err != nil {
		return nil, fmt.Errorf("listar processamentos: %w", err)
	}
	defer rows.Close()

	var lista []*entity.Processamento
	for rows.Next() {
		p, err := escanearProcessamento(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processamento: %w", err)
		}
		lista = append(lista, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar processamentos: %w", err)
	}
	return lista, nil
}

func escanearProcessamento(row pgx.Row) (*entity.Processamento, error) {
	var p entity.Processamento
	var chave, mensagem *string
	err := row.Scan(
		&p.ID, &p.NotaFiscalID, &chave, &p.Status, &mensagem,
		&p.XMLOriginal, &p.PayloadNormalizado, &p.ProcessadoEm,
	)
	if err != nil {
		return nil, err
	}
	p.ChaveAcesso = derefStr(chave)
	p.Mensagem = derefStr(mensagem)
	return &p, nil
}
