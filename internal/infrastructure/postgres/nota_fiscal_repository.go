package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ repository.NotaFiscalRepository = (*NotaFiscalRepo)(nil)

// NotaFiscalRepo implementação de NotaFiscalRepository (usável com pool ou tx).
type NotaFiscalRepo struct {
	q Querier
}

// NewNotaFiscalRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewNotaFiscalRepository(q Querier) *NotaFiscalRepo {
	return &NotaFiscalRepo{q: q}
}

const colunasNota = `
	id, chave_acesso, versao, codigo_uf, codigo_nf, natureza_operacao,
	indicador_pagamento, modelo, serie, numero, data_emissao, data_saida_entrada,
	tipo_nf, codigo_municipio_fg, tipo_impressao, tipo_emissao, digito_verificador,
	ambiente, finalidade_nf, processo_emissao, versao_processo, status,
	criado_em, atualizado_em`

// BuscarPorChaveParaCarga busca a nota pela chave travando a linha
// (FOR UPDATE). Cargas concorrentes da mesma chave serializam aqui.
func (r *NotaFiscalRepo) BuscarPorChaveParaCarga(chave string) (*entity.NotaFiscal, error) {
	query := `SELECT` + colunasNota + `
		FROM nfe.nfe WHERE chave_acesso = $1
		FOR UPDATE`
	nota, err := escanearNota(r.q.QueryRow(context.Background(), query, chave))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar nota para carga: %w", err)
	}
	return nota, nil
}

func escanearNota(row pgx.Row) (*entity.NotaFiscal, error) {
	var n entity.NotaFiscal
	var versaoProcesso *string
	err := row.Scan(
		&n.ID, &n.ChaveAcesso, &n.Versao, &n.CodigoUF, &n.CodigoNF, &n.NaturezaOperacao,
		&n.IndicadorPagamento, &n.Modelo, &n.Serie, &n.Numero, &n.DataEmissao, &n.DataSaidaEntrada,
		&n.TipoNF, &n.CodigoMunicipioFG, &n.TipoImpressao, &n.TipoEmissao, &n.DigitoVerificador,
		&n.Ambiente, &n.FinalidadeNF, &n.ProcessoEmissao, &versaoProcesso, &n.Status,
		&n.CriadoEm, &n.AtualizadoEm,
	)
	if err != nil {
		return nil, err
	}
	n.VersaoProcesso = derefStr(versaoProcesso)
	return &n, nil
}

// Criar insere o cabeçalho com ON CONFLICT (chave_acesso) DO NOTHING e
// preenche nota.ID, criado_em e atualizado_em. Conflito sem linha retornada
// vira ErrChaveDuplicada: outro escritor já carregou a mesma chave.
func (r *NotaFiscalRepo) Criar(nota *entity.NotaFiscal) error {
	query := `
		INSERT INTO nfe.nfe (chave_acesso, versao, codigo_uf, codigo_nf, natureza_operacao,
		                     indicador_pagamento, modelo, serie, numero, data_emissao, data_saida_entrada,
		                     tipo_nf, codigo_municipio_fg, tipo_impressao, tipo_emissao, digito_verificador,
		                     ambiente, finalidade_nf, processo_emissao, versao_processo, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (chave_acesso) DO NOTHING
		RETURNING id, criado_em, atualizado_em`
	err := r.q.QueryRow(context.Background(), query,
		nota.ChaveAcesso, nota.Versao, nota.CodigoUF, nota.CodigoNF, nota.NaturezaOperacao,
		nota.IndicadorPagamento, nota.Modelo, nota.Serie, nota.Numero, nota.DataEmissao, nota.DataSaidaEntrada,
		nota.TipoNF, nullIfEmpty(nota.CodigoMunicipioFG), nota.TipoImpressao, nota.TipoEmissao, nota.DigitoVerificador,
		nota.Ambiente, nota.FinalidadeNF, nota.ProcessoEmissao, nullIfEmpty(nota.VersaoProcesso), nota.Status,
	).Scan(&nota.ID, &nota.CriadoEm, &nota.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// DO NOTHING sem linha: a chave já existe
			return domain.ErrChaveDuplicada
		}
		return fmt.Errorf("insert nota: %w", err)
	}
	return nil
}

// AtualizarReprocessada regrava o cabeçalho preservando id e criado_em,
// avançando apenas atualizado_em.
func (r *NotaFiscalRepo) AtualizarReprocessada(nota *entity.NotaFiscal) error {
	query := `
		UPDATE nfe.nfe
		SET versao = $2, codigo_uf = $3, codigo_nf = $4, natureza_operacao = $5,
		    indicador_pagamento = $6, modelo = $7, serie = $8, numero = $9,
		    data_emissao = $10, data_saida_entrada = $11, tipo_nf = $12,
		    codigo_municipio_fg = $13, tipo_impressao = $14, tipo_emissao = $15,
		    digito_verificador = $16, ambiente = $17, finalidade_nf = $18,
		    processo_emissao = $19, versao_processo = $20, status = $21,
		    atualizado_em = now()
		WHERE id = $1
		RETURNING atualizado_em`
	err := r.q.QueryRow(context.Background(), query,
		nota.ID, nota.Versao, nota.CodigoUF, nota.CodigoNF, nota.NaturezaOperacao,
		nota.IndicadorPagamento, nota.Modelo, nota.Serie, nota.Numero,
		nota.DataEmissao, nota.DataSaidaEntrada, nota.TipoNF,
		nullIfEmpty(nota.CodigoMunicipioFG), nota.TipoImpressao, nota.TipoEmissao,
		nota.DigitoVerificador, nota.Ambiente, nota.FinalidadeNF,
		nota.ProcessoEmissao, nullIfEmpty(nota.VersaoProcesso), nota.Status,
	).Scan(&nota.AtualizadoEm)
	if err != nil {
		return fmt.Errorf("update nota reprocessada: %w", err)
	}
	return nil
}

// RemoverDependentes apaga todas as linhas dependentes da nota antes do
// reinsert de um reprocessamento. Impostos, lacres e itens de transporte caem
// por ON DELETE CASCADE dos pais.
func (r *NotaFiscalRepo) RemoverDependentes(notaID int64) error {
	stmts := []string{
		`DELETE FROM nfe.nfe_pessoa WHERE nfe_id = $1`,
		`DELETE FROM nfe.endereco WHERE nfe_id = $1`,
		`DELETE FROM nfe.item_nfe WHERE nfe_id = $1`,
		`DELETE FROM nfe.transporte WHERE nfe_id = $1`,
		`DELETE FROM nfe.totais_nfe WHERE nfe_id = $1`,
		`DELETE FROM nfe.informacoes_adicionais WHERE nfe_id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := r.q.Exec(context.Background(), stmt, notaID); err != nil {
			return fmt.Errorf("remover dependentes: %w", err)
		}
	}
	return nil
}

// VincularPessoa grava o vínculo nota-pessoa com o papel (tipo_relacao).
func (r *NotaFiscalRepo) VincularPessoa(notaID, pessoaID int64, tipoRelacao string) error {
	query := `
		INSERT INTO nfe.nfe_pessoa (nfe_id, pessoa_id, tipo_relacao)
		VALUES ($1, $2, $3)`
	if _, err := r.q.Exec(context.Background(), query, notaID, pessoaID, tipoRelacao); err != nil {
		return fmt.Errorf("vincular pessoa: %w", err)
	}
	return nil
}

// CriarEnderecoNota grava um endereço de retirada/entrega pertencente à nota.
func (r *NotaFiscalRepo) CriarEnderecoNota(notaID int64, end *entity.Endereco) error {
	query := `
		INSERT INTO nfe.endereco (tipo, nfe_id, logradouro, numero, complemento, bairro,
		                          codigo_municipio, municipio, uf, cep, codigo_pais, pais, telefone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		end.Tipo, notaID,
		end.Logradouro, nullIfEmpty(end.Numero), nullIfEmpty(end.Complemento), nullIfEmpty(end.Bairro),
		nullIfEmpty(end.CodigoMunicipio), end.Municipio, end.UF, nullIfEmpty(end.CEP),
		nullIfEmpty(end.CodigoPais), nullIfEmpty(end.Pais), nullIfEmpty(end.Telefone),
	).Scan(&end.ID)
	if err != nil {
		return fmt.Errorf("insert endereco da nota: %w", err)
	}
	return nil
}

// CriarTotais grava a linha única de totais da nota.
func (r *NotaFiscalRepo) CriarTotais(notaID int64, t *entity.Totais) error {
	query := `
		INSERT INTO nfe.totais_nfe (nfe_id, base_calculo_icms, valor_icms, base_calculo_icms_st,
		                            valor_icms_st, valor_produtos, valor_frete, valor_seguro,
		                            valor_desconto, valor_ii, valor_ipi, valor_pis, valor_cofins,
		                            valor_outros, valor_total_nfe)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		notaID, t.BaseCalculoICMS, t.ValorICMS, t.BaseCalculoICMSST,
		t.ValorICMSST, t.ValorProdutos, t.ValorFrete, t.ValorSeguro,
		t.ValorDesconto, t.ValorII, t.ValorIPI, t.ValorPIS, t.ValorCOFINS,
		t.ValorOutros, t.ValorTotalNFe,
	)
	if err != nil {
		return fmt.Errorf("insert totais: %w", err)
	}
	return nil
}

// CriarInformacoesAdicionais grava o texto livre do contribuinte e do fisco.
func (r *NotaFiscalRepo) CriarInformacoesAdicionais(notaID int64, info *entity.InformacoesAdicionais) error {
	query := `
		INSERT INTO nfe.informacoes_adicionais (nfe_id, info_contribuinte, info_fisco)
		VALUES ($1, $2, $3)`
	_, err := r.q.Exec(context.Background(), query,
		notaID, nullIfEmpty(info.InfoContribuinte), nullIfEmpty(info.InfoFisco),
	)
	if err != nil {
		return fmt.Errorf("insert informacoes adicionais: %w", err)
	}
	return nil
}

// AtualizarStatus grava o status de conveniência do cabeçalho.
func (r *NotaFiscalRepo) AtualizarStatus(notaID int64, status string) error {
	query := `UPDATE nfe.nfe SET status = $2, atualizado_em = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, notaID, status); err != nil {
		return fmt.Errorf("atualizar status da nota: %w", err)
	}
	return nil
}
