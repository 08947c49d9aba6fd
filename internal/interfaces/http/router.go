package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brfiscal/nfe-ingest/internal/application/consulta"
	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	ProcessarUC *ingest.ProcessarDocumentoUseCase
	ConsultaUC  *consulta.UseCase
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	handler := NewNFeHandler(deps.ProcessarUC, deps.ConsultaUC)
	notas := api.Group("/nfe")
	notas.Post("/", handler.Processar)
	notas.Get("/", handler.Listar)
	notas.Get("/:chave", handler.BuscarPorChave)
	notas.Get("/:chave/status", handler.Status)
}
