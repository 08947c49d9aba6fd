// Package consulta é o lado de leitura: o agendador externo decide pular,
// repetir ou recarregar um documento a partir do último status; a camada de
// relatório consome o resumo e a nota completa.
package consulta

import (
	"time"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

// UseCase consultas somente-leitura sobre notas e processamentos.
type UseCase struct {
	consultaRepo      repository.ConsultaRepository
	processamentoRepo repository.ProcessamentoRepository
}

// NewUseCase constrói o caso de uso de consulta.
func NewUseCase(
	consultaRepo repository.ConsultaRepository,
	processamentoRepo repository.ProcessamentoRepository,
) *UseCase {
	return &UseCase{consultaRepo: consultaRepo, processamentoRepo: processamentoRepo}
}

// UltimoStatus devolve o desfecho mais recente da chave e o total de
// tentativas registradas.
func (uc *UseCase) UltimoStatus(chave string) (*dto.StatusProcessamentoResponse, error) {
	ultimo, err := uc.processamentoRepo.UltimoStatus(chave)
	if err != nil {
		return nil, err
	}
	historico, err := uc.processamentoRepo.ListarPorChave(chave)
	if err != nil {
		return nil, err
	}
	return &dto.StatusProcessamentoResponse{
		ChaveAcesso:  chave,
		Status:       ultimo.Status,
		Mensagem:     ultimo.Mensagem,
		ProcessadoEm: ultimo.ProcessadoEm,
		Tentativas:   len(historico),
	}, nil
}

// BuscarPorChave devolve a nota completa com todos os agregados.
func (uc *UseCase) BuscarPorChave(chave string) (*entity.Grafo, error) {
	return uc.consultaRepo.BuscarGrafoPorChave(chave)
}

// ListarResumo lista notas resumidas com filtros opcionais de emitente e
// intervalo de emissão.
func (uc *UseCase) ListarResumo(emitenteDoc string, de, ate *time.Time, limite, deslocamento int) ([]*dto.NotaResumoResponse, error) {
	if limite <= 0 || limite > 500 {
		limite = 100
	}
	linhas, err := uc.consultaRepo.ListarResumo(repository.FiltroResumo{
		EmitenteDocumento: emitenteDoc,
		EmissaoDe:         de,
		EmissaoAte:        ate,
		Limite:            limite,
		Deslocamento:      deslocamento,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*dto.NotaResumoResponse, 0, len(linhas))
	for _, l := range linhas {
		resp := &dto.NotaResumoResponse{
			ChaveAcesso:       l.ChaveAcesso,
			Numero:            l.Numero,
			Serie:             l.Serie,
			DataEmissao:       l.DataEmissao,
			NaturezaOperacao:  l.NaturezaOperacao,
			Status:            l.Status,
			EmitenteNome:      l.EmitenteNome,
			EmitenteDocumento: l.EmitenteDocumento,
			DestinatarioNome:  l.DestinatarioNome,
		}
		if l.ValorTotal.Valid {
			resp.ValorTotal = l.ValorTotal.Decimal.StringFixed(2)
		}
		out = append(out, resp)
	}
	return out, nil
}
