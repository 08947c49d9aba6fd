package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/infrastructure/nfexml"
	"github.com/brfiscal/nfe-ingest/internal/infrastructure/postgres"
	"github.com/brfiscal/nfe-ingest/internal/infrastructure/storage"
	"github.com/brfiscal/nfe-ingest/pkg/config"
	"github.com/brfiscal/nfe-ingest/pkg/logger"
)

// O worker varre o bucket de staging em intervalos fixos e processa cada XML
// encontrado, até cfg.Ingest.Workers documentos em paralelo. Documentos são
// independentes entre si; a serialização por chave duplicada acontece no banco.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("bucket", cfg.Storage.Bucket).
		Dur("poll_interval", cfg.Ingest.PollInterval).
		Int("workers", cfg.Ingest.Workers).
		Msg("iniciando worker de ingestão")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	staging, err := storage.NewStaging(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao MinIO")
	}

	txRunner := postgres.NewTxRunner(pool)
	processamentoRepo := postgres.NewProcessamentoRepository(pool)
	parser := nfexml.NewParser()
	processarUC := ingest.NewProcessarDocumentoUseCase(parser, txRunner, processamentoRepo, log)

	ticker := time.NewTicker(cfg.Ingest.PollInterval)
	defer ticker.Stop()

	for {
		varrer(ctx, log, staging, processarUC, cfg.Ingest)

		select {
		case <-ctx.Done():
			log.Info().Msg("sinal de desligamento recebido, encerrando worker")
			return
		case <-ticker.C:
		}
	}
}

// varrer processa um lote: lista os objetos pendentes e despacha cada um para
// um worker do semáforo. Espera o lote inteiro antes de retornar.
func varrer(
	ctx context.Context,
	log *logger.Logger,
	staging *storage.Staging,
	processarUC *ingest.ProcessarDocumentoUseCase,
	cfg config.IngestConfig,
) {
	chaves, err := staging.ListarPendentes(ctx, cfg.LoteMaximo)
	if err != nil {
		log.Error().Err(err).Msg("listar objetos pendentes")
		return
	}
	if len(chaves) == 0 {
		return
	}
	log.Info().Int("objetos", len(chaves)).Msg("lote encontrado")

	sem := make(chan struct{}, cfg.Workers)
	var wg sync.WaitGroup
	for _, chave := range chaves {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(objeto string) {
			defer wg.Done()
			defer func() { <-sem }()
			processarObjeto(ctx, log, staging, processarUC, objeto)
		}(chave)
	}
	wg.Wait()
}

// processarObjeto baixa, processa e arquiva um único XML. Erros de
// infraestrutura deixam o objeto no lugar para a próxima varredura.
func processarObjeto(
	ctx context.Context,
	log *logger.Logger,
	staging *storage.Staging,
	processarUC *ingest.ProcessarDocumentoUseCase,
	objeto string,
) {
	raw, err := staging.Baixar(ctx, objeto)
	if err != nil {
		log.Error().Err(err).Str("objeto", objeto).Msg("baixar XML")
		return
	}

	resultado, err := processarUC.Processar(ctx, raw)
	if err != nil {
		log.Error().Err(err).Str("objeto", objeto).Msg("falha de infraestrutura no processamento")
		return
	}

	if resultado.Status == entity.StatusProcessada {
		if err := staging.ArquivarProcessado(ctx, objeto); err != nil {
			log.Error().Err(err).Str("objeto", objeto).Msg("arquivar processado")
		}
		return
	}

	log.Warn().
		Str("objeto", objeto).
		Str("chave", resultado.ChaveAcesso).
		Str("motivo", resultado.Motivo).
		Msg("documento rejeitado")
	if err := staging.ArquivarErro(ctx, objeto); err != nil {
		log.Error().Err(err).Str("objeto", objeto).Msg("arquivar com erro")
	}
}
