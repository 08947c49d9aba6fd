package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
)

// NotaResumo linha da listagem resumida (vw_nfe_resumo). Resultado cru da
// consulta; o use case o converte em DTO de resposta.
type NotaResumo struct {
	ID                int64
	ChaveAcesso       string
	Numero            int
	Serie             int
	DataEmissao       time.Time
	NaturezaOperacao  string
	Status            string
	EmitenteNome      string
	EmitenteDocumento string
	DestinatarioNome  string
	ValorTotal        decimal.NullDecimal
}

// FiltroResumo filtros opcionais da listagem: documento do emitente e
// intervalo de emissão.
type FiltroResumo struct {
	EmitenteDocumento string
	EmissaoDe         *time.Time
	EmissaoAte        *time.Time
	Limite            int
	Deslocamento      int
}

// ConsultaRepository porta somente-leitura para a camada de consulta/relatório.
type ConsultaRepository interface {
	// BuscarGrafoPorChave monta a nota completa: cabeçalho, pessoas com
	// endereços, itens com impostos, totais, árvore de transporte e infAdic.
	// ErrNotaNaoEncontrada quando a chave não existe.
	BuscarGrafoPorChave(chave string) (*entity.Grafo, error)
	ListarResumo(filtro FiltroResumo) ([]*NotaResumo, error)
}
