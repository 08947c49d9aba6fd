package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/brfiscal/nfe-ingest/internal/application/consulta"
	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/nfe"
)

// NFeHandler trata as requisições HTTP de ingestão e consulta de notas.
type NFeHandler struct {
	processarUC *ingest.ProcessarDocumentoUseCase
	consultaUC  *consulta.UseCase
}

// NewNFeHandler constrói o handler.
func NewNFeHandler(processarUC *ingest.ProcessarDocumentoUseCase, consultaUC *consulta.UseCase) *NFeHandler {
	return &NFeHandler{processarUC: processarUC, consultaUC: consultaUC}
}

// Processar recebe o XML bruto de uma NF-e e executa o pipeline completo.
// Falha de dado volta 422 com o motivo; o documento fica registrado no
// histórico de processamento em ambos os casos.
// POST /api/v1/nfe
func (h *NFeHandler) Processar(c *fiber.Ctx) error {
	raw := c.Body()
	if len(raw) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "EMPTY_BODY", Message: "corpo vazio: envie o XML da NF-e"})
	}

	resultado, err := h.processarUC.Processar(c.Context(), raw)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if resultado.Status == entity.StatusFalha {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resultado)
	}
	return c.Status(fiber.StatusCreated).JSON(resultado)
}

// Listar lista notas resumidas com filtros opcionais.
// GET /api/v1/nfe?emitente=&de=&ate=&limite=&deslocamento=
func (h *NFeHandler) Listar(c *fiber.Ctx) error {
	de, err := parseDataQuery(c.Query("de"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parâmetro 'de' inválido: use RFC3339 ou AAAA-MM-DD"})
	}
	ate, err := parseDataQuery(c.Query("ate"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parâmetro 'ate' inválido: use RFC3339 ou AAAA-MM-DD"})
	}

	notas, err := h.consultaUC.ListarResumo(
		c.Query("emitente"), de, ate,
		c.QueryInt("limite"), c.QueryInt("deslocamento"),
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(notas)
}

// BuscarPorChave devolve a nota completa com todos os agregados.
// GET /api/v1/nfe/:chave
func (h *NFeHandler) BuscarPorChave(c *fiber.Ctx) error {
	chave := c.Params("chave")
	if err := nfe.Validar(chave); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "chave de acesso inválida"})
	}

	grafo, err := h.consultaUC.BuscarPorChave(chave)
	if err != nil {
		if errors.Is(err, domain.ErrNotaNaoEncontrada) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.NotaDetalheFromGrafo(grafo))
}

// Status devolve o último registro de processamento da chave.
// GET /api/v1/nfe/:chave/status
func (h *NFeHandler) Status(c *fiber.Ctx) error {
	chave := c.Params("chave")
	if err := nfe.Validar(chave); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "chave de acesso inválida"})
	}

	status, err := h.consultaUC.UltimoStatus(chave)
	if err != nil {
		if errors.Is(err, domain.ErrNotaNaoEncontrada) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "chave sem processamentos registrados"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(status)
}

func parseDataQuery(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("formato de data inválido")
}
