package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ ingest.TxRunner = (*TxRunner)(nil)

// TxRunner executa callbacks dentro de uma transação PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constrói o runner com o pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia uma transação, executa fn com repos atados à tx e faz Commit ou
// Rollback. Toda a carga de uma nota passa por aqui: ou grava tudo, ou nada.
func (r *TxRunner) Run(ctx context.Context, fn func(
	pessoaRepo repository.PessoaRepository,
	notaRepo repository.NotaFiscalRepository,
	itemRepo repository.ItemRepository,
	transporteRepo repository.TransporteRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pessoaRepo := NewPessoaRepository(tx)
	notaRepo := NewNotaFiscalRepository(tx)
	itemRepo := NewItemRepository(tx)
	transporteRepo := NewTransporteRepository(tx)

	if err := fn(pessoaRepo, notaRepo, itemRepo, transporteRepo); err != nil {
		// Violações de integridade são rejeições de dado; o chamador decide o
		// destino do documento pelo sentinela.
		return classificarErroCarga(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
