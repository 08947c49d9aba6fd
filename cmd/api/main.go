package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/brfiscal/nfe-ingest/internal/application/consulta"
	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
	"github.com/brfiscal/nfe-ingest/internal/infrastructure/nfexml"
	"github.com/brfiscal/nfe-ingest/internal/infrastructure/postgres"
	httpRouter "github.com/brfiscal/nfe-ingest/internal/interfaces/http"
	"github.com/brfiscal/nfe-ingest/pkg/config"
	"github.com/brfiscal/nfe-ingest/pkg/logger"
)

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
		Str("app", cfg.App.Name).
		Msg("iniciando API")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	processamentoRepo := postgres.NewProcessamentoRepository(pool)
	consultaRepo := postgres.NewConsultaRepository(pool)

	parser := nfexml.NewParser()
	processarUC := ingest.NewProcessarDocumentoUseCase(parser, txRunner, processamentoRepo, log)
	consultaUC := consulta.NewUseCase(consultaRepo, processamentoRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProcessarUC: processarUC,
		ConsultaUC:  consultaUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("encerramento do servidor")
	}

	log.Info().Msg("aplicação finalizada")
}
