package consulta_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brfiscal/nfe-ingest/internal/application/consulta"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

const chaveTeste = "35230112345678000199550010000001011123456780"

type fakeConsultaRepo struct {
	ultimoFiltro repository.FiltroResumo
	linhas       []*repository.NotaResumo
}

func (r *fakeConsultaRepo) BuscarGrafoPorChave(chave string) (*entity.Grafo, error) {
	if chave != chaveTeste {
		return nil, domain.ErrNotaNaoEncontrada
	}
	return &entity.Grafo{Nota: entity.NotaFiscal{ChaveAcesso: chave}}, nil
}

func (r *fakeConsultaRepo) ListarResumo(filtro repository.FiltroResumo) ([]*repository.NotaResumo, error) {
	r.ultimoFiltro = filtro
	return r.linhas, nil
}

type fakeProcRepo struct {
	registros []*entity.Processamento
}

func (r *fakeProcRepo) Registrar(p *entity.Processamento) error {
	r.registros = append(r.registros, p)
	return nil
}

func (r *fakeProcRepo) UltimoStatus(chave string) (*entity.Processamento, error) {
	if len(r.registros) == 0 {
		return nil, domain.ErrNotaNaoEncontrada
	}
	return r.registros[len(r.registros)-1], nil
}

func (r *fakeProcRepo) ListarPorChave(chave string) ([]*entity.Processamento, error) {
	return r.registros, nil
}

func TestUltimoStatus_ComTentativas(t *testing.T) {
	procRepo := &fakeProcRepo{registros: []*entity.Processamento{
		{ChaveAcesso: chaveTeste, Status: entity.ProcessamentoFalha, Mensagem: "nota sem itens"},
		{ChaveAcesso: chaveTeste, Status: entity.ProcessamentoSucesso, ProcessadoEm: time.Now()},
	}}
	uc := consulta.NewUseCase(&fakeConsultaRepo{}, procRepo)

	resp, err := uc.UltimoStatus(chaveTeste)
	require.NoError(t, err)
	assert.Equal(t, entity.ProcessamentoSucesso, resp.Status)
	assert.Equal(t, 2, resp.Tentativas)
}

func TestUltimoStatus_ChaveDesconhecida(t *testing.T) {
	uc := consulta.NewUseCase(&fakeConsultaRepo{}, &fakeProcRepo{})
	_, err := uc.UltimoStatus(chaveTeste)
	require.ErrorIs(t, err, domain.ErrNotaNaoEncontrada)
}

func TestListarResumo_LimitePadrao(t *testing.T) {
	repo := &fakeConsultaRepo{}
	uc := consulta.NewUseCase(repo, &fakeProcRepo{})

	_, err := uc.ListarResumo("", nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.ultimoFiltro.Limite)

	_, err = uc.ListarResumo("", nil, nil, 9999, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, repo.ultimoFiltro.Limite)

	_, err = uc.ListarResumo("", nil, nil, 50, 10)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.ultimoFiltro.Limite)
	assert.Equal(t, 10, repo.ultimoFiltro.Deslocamento)
}

func TestListarResumo_FormataValorTotal(t *testing.T) {
	repo := &fakeConsultaRepo{linhas: []*repository.NotaResumo{
		{ChaveAcesso: chaveTeste, EmitenteNome: "Empresa Exemplo",
			ValorTotal: decimal.NullDecimal{Decimal: decimal.RequireFromString("1234.5"), Valid: true}},
		{ChaveAcesso: chaveTeste, EmitenteNome: "Sem Totais"},
	}}
	uc := consulta.NewUseCase(repo, &fakeProcRepo{})

	resp, err := uc.ListarResumo("", nil, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "1234.50", resp[0].ValorTotal)
	assert.Empty(t, resp[1].ValorTotal)
}
