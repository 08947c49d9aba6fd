package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementação de ItemRepository (usável com pool ou tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Criar grava o item e cada imposto da lista como linha larga com
// discriminador na tabela imposto.
func (r *ItemRepo) Criar(notaID int64, item *entity.Item) error {
	query := `
		INSERT INTO nfe.item_nfe (nfe_id, numero_item, codigo_produto, gtin, descricao, ncm, cfop,
		                          unidade_comercial, quantidade_comercial, valor_unitario_comercial,
		                          valor_total_bruto, gtin_tributavel, unidade_tributavel,
		                          quantidade_tributavel, valor_unitario_tributavel, origem_mercadoria)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		notaID, item.NumeroItem, item.CodigoProduto, nullIfEmpty(item.GTIN), item.Descricao,
		nullIfEmpty(item.NCM), item.CFOP, item.UnidadeComercial, item.QuantidadeComercial,
		item.ValorUnitarioComercial, item.ValorTotalBruto, nullIfEmpty(item.GTINTributavel),
		nullIfEmpty(item.UnidadeTributavel), item.QuantidadeTributavel, item.ValorUnitarioTributavel,
		item.OrigemMercadoria,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert item %d: %w", item.NumeroItem, err)
	}

	for _, imp := range item.Impostos {
		if err := r.criarImposto(item.ID, item.NumeroItem, imp); err != nil {
			return err
		}
	}
	return nil
}

// linhaImposto é a projeção larga de uma variante de imposto: só os campos do
// tipo ficam preenchidos, o resto vai NULL.
type linhaImposto struct {
	tipo                string
	base                entity.BaseImposto
	cst                 string
	origem              *int
	modalidadeBC        *int
	percentualReducaoBC decimal.NullDecimal
	codigoEnquadramento string
}

func (r *ItemRepo) criarImposto(itemID int64, numeroItem int, imp entity.Imposto) error {
	var linha linhaImposto
	switch v := imp.(type) {
	case entity.ImpostoICMS:
		linha = linhaImposto{tipo: v.TipoImposto(), base: v.BaseImposto, cst: v.CST,
			origem: v.Origem, modalidadeBC: v.ModalidadeBC, percentualReducaoBC: v.PercentualReducaoBC}
	case entity.ImpostoIPI:
		linha = linhaImposto{tipo: v.TipoImposto(), base: v.BaseImposto, cst: v.CST,
			codigoEnquadramento: v.CodigoEnquadramento}
	case entity.ImpostoPIS:
		linha = linhaImposto{tipo: v.TipoImposto(), base: v.BaseImposto, cst: v.CST}
	case entity.ImpostoCOFINS:
		linha = linhaImposto{tipo: v.TipoImposto(), base: v.BaseImposto, cst: v.CST}
	default:
		return fmt.Errorf("%w: imposto de tipo desconhecido no item %d", domain.ErrCargaFalhou, numeroItem)
	}

	if !linha.base.Completa() {
		return fmt.Errorf("%w: imposto %s do item %d sem base de cálculo, alíquota ou valor",
			domain.ErrCargaFalhou, linha.tipo, numeroItem)
	}

	query := `
		INSERT INTO nfe.imposto (item_nfe_id, tipo, cst, origem, modalidade_bc, base_calculo,
		                         aliquota, valor, percentual_reducao_bc, codigo_enquadramento)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		itemID, linha.tipo, nullIfEmpty(linha.cst), linha.origem, linha.modalidadeBC,
		linha.base.BaseCalculo, linha.base.Aliquota, linha.base.Valor,
		linha.percentualReducaoBC, nullIfEmpty(linha.codigoEnquadramento),
	)
	if err != nil {
		return fmt.Errorf("insert imposto %s do item %d: %w", linha.tipo, numeroItem, err)
	}
	return nil
}
