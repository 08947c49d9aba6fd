package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ repository.ConsultaRepository = (*ConsultaRepo)(nil)

// ConsultaRepo implementação somente-leitura de ConsultaRepository. Monta o
// grafo completo da nota a partir das tabelas normalizadas e serve a listagem
// resumida pela view vw_nfe_resumo.
type ConsultaRepo struct {
	q Querier
}

// NewConsultaRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewConsultaRepository(q Querier) *ConsultaRepo {
	return &ConsultaRepo{q: q}
}

// BuscarGrafoPorChave monta a nota completa: cabeçalho, pessoas com endereços,
// itens com impostos, totais, árvore de transporte e infAdic.
func (r *ConsultaRepo) BuscarGrafoPorChave(chave string) (*entity.Grafo, error) {
	query := `SELECT` + colunasNota + ` FROM nfe.nfe WHERE chave_acesso = $1`
	nota, err := escanearNota(r.q.QueryRow(context.Background(), query, chave))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotaNaoEncontrada
		}
		return nil, fmt.Errorf("buscar nota: %w", err)
	}

	grafo := &entity.Grafo{Nota: *nota}

	if err := r.carregarPessoas(grafo); err != nil {
		return nil, err
	}
	if grafo.EnderecosNota, err = r.enderecosNota(nota.ID); err != nil {
		return nil, err
	}
	if grafo.Itens, err = r.itens(nota.ID); err != nil {
		return nil, err
	}
	if grafo.Totais, err = r.totais(nota.ID); err != nil {
		return nil, err
	}
	if grafo.Transporte, err = r.transporte(nota.ID); err != nil {
		return nil, err
	}
	if grafo.InfAdicionais, err = r.informacoesAdicionais(nota.ID); err != nil {
		return nil, err
	}
	return grafo, nil
}

const colunasPessoa = `
	p.id, p.cnpj, p.cpf, p.id_estrangeiro, p.nome, p.nome_fantasia,
	p.inscricao_estadual, p.email, p.regime_tributario`

func (r *ConsultaRepo) carregarPessoas(grafo *entity.Grafo) error {
	query := `SELECT np.tipo_relacao,` + colunasPessoa + `
		FROM nfe.nfe_pessoa np
		JOIN nfe.pessoa p ON p.id = np.pessoa_id
		WHERE np.nfe_id = $1`
	rows, err := r.q.Query(context.Background(), query, grafo.Nota.ID)
	if err != nil {
		return fmt.Errorf("buscar pessoas da nota: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tipoRelacao string
		var p entity.Pessoa
		var cnpj, cpf, idEstrangeiro, nomeFantasia, ie, email *string
		err := rows.Scan(&tipoRelacao, &p.ID, &cnpj, &cpf, &idEstrangeiro, &p.Nome,
			&nomeFantasia, &ie, &email, &p.RegimeTributario)
		if err != nil {
			return fmt.Errorf("scan pessoa: %w", err)
		}
		p.Tipo = tipoRelacao
		p.Identidade = montarIdentidade(cnpj, cpf, idEstrangeiro)
		p.NomeFantasia = derefStr(nomeFantasia)
		p.InscricaoEstadual = derefStr(ie)
		p.Email = derefStr(email)

		end, err := r.enderecoPrincipalPessoa(p.ID)
		if err != nil {
			return err
		}
		p.EnderecoPrincipal = end

		switch tipoRelacao {
		case entity.TipoPessoaEmitente:
			grafo.Emitente = p
		case entity.TipoPessoaDestinatario:
			grafo.Destinatario = p
		}
	}
	return rows.Err()
}

// montarIdentidade reconstrói a identidade a partir das colunas exclusivas.
func montarIdentidade(cnpj, cpf, idEstrangeiro *string) entity.Identidade {
	switch {
	case cnpj != nil:
		return entity.Identidade{Tipo: entity.IdentidadeCNPJ, Valor: *cnpj}
	case cpf != nil:
		return entity.Identidade{Tipo: entity.IdentidadeCPF, Valor: *cpf}
	case idEstrangeiro != nil:
		return entity.Identidade{Tipo: entity.IdentidadeEstrangeiro, Valor: *idEstrangeiro}
	}
	return entity.Identidade{}
}

func (r *ConsultaRepo) enderecoPrincipalPessoa(pessoaID int64) (*entity.Endereco, error) {
	repo := PessoaRepo{q: r.q}
	return repo.enderecoPrincipal(pessoaID)
}

func (r *ConsultaRepo) enderecosNota(notaID int64) ([]entity.Endereco, error) {
	query := `
		SELECT id, tipo, logradouro, numero, complemento, bairro, codigo_municipio,
		       municipio, uf, cep, codigo_pais, pais, telefone
		FROM nfe.endereco
		WHERE nfe_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, notaID)
	if err != nil {
		return nil, fmt.Errorf("buscar endereços da nota: %w", err)
	}
	defer rows.Close()

	var lista []entity.Endereco
	for rows.Next() {
		var e entity.Endereco
		var numero, complemento, bairro, codMun, cep, codPais, pais, tel *string
		err := rows.Scan(&e.ID, &e.Tipo, &e.Logradouro, &numero, &complemento, &bairro,
			&codMun, &e.Municipio, &e.UF, &cep, &codPais, &pais, &tel)
		if err != nil {
			return nil, fmt.Errorf("scan endereco: %w", err)
		}
		e.Numero = derefStr(numero)
		e.Complemento = derefStr(complemento)
		e.Bairro = derefStr(bairro)
		e.CodigoMunicipio = derefStr(codMun)
		e.CEP = derefStr(cep)
		e.CodigoPais = derefStr(codPais)
		e.Pais = derefStr(pais)
		e.Telefone = derefStr(tel)
		lista = append(lista, e)
	}
	return lista, rows.Err()
}

func (r *ConsultaRepo) itens(notaID int64) ([]entity.Item, error) {
	query := `
		SELECT id, numero_item, codigo_produto, gtin, descricao, ncm, cfop,
		       unidade_comercial, quantidade_comercial, valor_unitario_comercial,
		       valor_total_bruto, gtin_tributavel, unidade_tributavel,
		       quantidade_tributavel, valor_unitario_tributavel, origem_mercadoria
		FROM nfe.item_nfe
		WHERE nfe_id = $1
		ORDER BY numero_item`
	rows, err := r.q.Query(context.Background(), query, notaID)
	if err != nil {
		return nil, fmt.Errorf("buscar itens: %w", err)
	}
	defer rows.Close()

	var itens []entity.Item
	for rows.Next() {
		var it entity.Item
		var gtin, ncm, gtinTrib, unidadeTrib *string
		err := rows.Scan(&it.ID, &it.NumeroItem, &it.CodigoProduto, &gtin, &it.Descricao,
			&ncm, &it.CFOP, &it.UnidadeComercial, &it.QuantidadeComercial,
			&it.ValorUnitarioComercial, &it.ValorTotalBruto, &gtinTrib, &unidadeTrib,
			&it.QuantidadeTributavel, &it.ValorUnitarioTributavel, &it.OrigemMercadoria)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.GTIN = derefStr(gtin)
		it.NCM = derefStr(ncm)
		it.GTINTributavel = derefStr(gtinTrib)
		it.UnidadeTributavel = derefStr(unidadeTrib)
		itens = append(itens, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar itens: %w", err)
	}

	for i := range itens {
		impostos, err := r.impostos(itens[i].ID)
		if err != nil {
			return nil, err
		}
		itens[i].Impostos = impostos
	}
	return itens, nil
}

// impostos reidrata as linhas largas de volta às variantes do tipo-soma.
func (r *ConsultaRepo) impostos(itemID int64) ([]entity.Imposto, error) {
	query := `
		SELECT tipo, cst, origem, modalidade_bc, base_calculo, aliquota, valor,
		       percentual_reducao_bc, codigo_enquadramento
		FROM nfe.imposto
		WHERE item_nfe_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, itemID)
	if err != nil {
		return nil, fmt.Errorf("buscar impostos: %w", err)
	}
	defer rows.Close()

	var impostos []entity.Imposto
	for rows.Next() {
		var linha linhaImposto
		var cst, codEnq *string
		err := rows.Scan(&linha.tipo, &cst, &linha.origem, &linha.modalidadeBC,
			&linha.base.BaseCalculo, &linha.base.Aliquota, &linha.base.Valor,
			&linha.percentualReducaoBC, &codEnq)
		if err != nil {
			return nil, fmt.Errorf("scan imposto: %w", err)
		}
		linha.cst = derefStr(cst)
		linha.codigoEnquadramento = derefStr(codEnq)

		switch linha.tipo {
		case entity.TipoImpostoICMS:
			impostos = append(impostos, entity.ImpostoICMS{BaseImposto: linha.base, CST: linha.cst,
				Origem: linha.origem, ModalidadeBC: linha.modalidadeBC, PercentualReducaoBC: linha.percentualReducaoBC})
		case entity.TipoImpostoIPI:
			impostos = append(impostos, entity.ImpostoIPI{BaseImposto: linha.base, CST: linha.cst,
				CodigoEnquadramento: linha.codigoEnquadramento})
		case entity.TipoImpostoPIS:
			impostos = append(impostos, entity.ImpostoPIS{BaseImposto: linha.base, CST: linha.cst})
		case entity.TipoImpostoCOFINS:
			impostos = append(impostos, entity.ImpostoCOFINS{BaseImposto: linha.base, CST: linha.cst})
		}
	}
	return impostos, rows.Err()
}

func (r *ConsultaRepo) totais(notaID int64) (*entity.Totais, error) {
	query := `
		SELECT base_calculo_icms, valor_icms, base_calculo_icms_st, valor_icms_st,
		       valor_produtos, valor_frete, valor_seguro, valor_desconto, valor_ii,
		       valor_ipi, valor_pis, valor_cofins, valor_outros, valor_total_nfe
		FROM nfe.totais_nfe
		WHERE nfe_id = $1`
	var t entity.Totais
	err := r.q.QueryRow(context.Background(), query, notaID).Scan(
		&t.BaseCalculoICMS, &t.ValorICMS, &t.BaseCalculoICMSST, &t.ValorICMSST,
		&t.ValorProdutos, &t.ValorFrete, &t.ValorSeguro, &t.ValorDesconto, &t.ValorII,
		&t.ValorIPI, &t.ValorPIS, &t.ValorCOFINS, &t.ValorOutros, &t.ValorTotalNFe,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar totais: %w", err)
	}
	return &t, nil
}

func (r *ConsultaRepo) transporte(notaID int64) (*entity.Transporte, error) {
	query := `
		SELECT id, modalidade_frete, transportadora_id
		FROM nfe.transporte
		WHERE nfe_id = $1`
	var t entity.Transporte
	var transportadoraID *int64
	err := r.q.QueryRow(context.Background(), query, notaID).Scan(&t.ID, &t.ModalidadeFrete, &transportadoraID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar transporte: %w", err)
	}

	if transportadoraID != nil {
		p, err := r.pessoaPorID(*transportadoraID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			p.Tipo = entity.TipoPessoaTransportadora
		}
		t.Transportadora = p
	}

	if err := r.itensTransporte(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ConsultaRepo) pessoaPorID(id int64) (*entity.Pessoa, error) {
	query := `SELECT` + colunasPessoa + ` FROM nfe.pessoa p WHERE p.id = $1`
	var p entity.Pessoa
	var cnpj, cpf, idEstrangeiro, nomeFantasia, ie, email *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &cnpj, &cpf, &idEstrangeiro, &p.Nome, &nomeFantasia, &ie, &email, &p.RegimeTributario,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar pessoa por id: %w", err)
	}
	p.Identidade = montarIdentidade(cnpj, cpf, idEstrangeiro)
	p.NomeFantasia = derefStr(nomeFantasia)
	p.InscricaoEstadual = derefStr(ie)
	p.Email = derefStr(email)
	return &p, nil
}

// itensTransporte reconstrói a árvore rasa: volumes com seus lacres (pai_id),
// veículos e lacres soltos direto no transporte.
func (r *ConsultaRepo) itensTransporte(t *entity.Transporte) error {
	query := `
		SELECT id, tipo, pai_id, quantidade, especie, marca, numeracao,
		       peso_liquido, peso_bruto, placa, uf, rntc, numero_lacre
		FROM nfe.transporte_item
		WHERE transporte_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, t.ID)
	if err != nil {
		return fmt.Errorf("buscar itens de transporte: %w", err)
	}
	defer rows.Close()

	type lacrePendente struct {
		lacre entity.Lacre
		paiID *int64
	}
	var lacres []lacrePendente

	for rows.Next() {
		var (
			id                           int64
			tipo                         string
			paiID, quantidade            *int64
			especie, marca, numeracao    *string
			placa, uf, rntc, numeroLacre *string
			pesoLiquido, pesoBruto       decimal.NullDecimal
		)
		err := rows.Scan(&id, &tipo, &paiID, &quantidade, &especie, &marca, &numeracao,
			&pesoLiquido, &pesoBruto, &placa, &uf, &rntc, &numeroLacre)
		if err != nil {
			return fmt.Errorf("scan item de transporte: %w", err)
		}

		switch tipo {
		case entity.TipoItemTransporteVolume:
			vol := entity.Volume{
				ID:          id,
				Especie:     derefStr(especie),
				Marca:       derefStr(marca),
				Numeracao:   derefStr(numeracao),
				PesoLiquido: pesoLiquido,
				PesoBruto:   pesoBruto,
			}
			if quantidade != nil {
				q := int(*quantidade)
				vol.Quantidade = &q
			}
			t.Volumes = append(t.Volumes, vol)
		case entity.TipoItemTransporteVeiculo:
			t.Veiculos = append(t.Veiculos, entity.Veiculo{
				ID: id, Placa: derefStr(placa), UF: derefStr(uf), RNTC: derefStr(rntc),
			})
		case entity.TipoItemTransporteLacre:
			lacres = append(lacres, lacrePendente{
				lacre: entity.Lacre{ID: id, Numero: derefStr(numeroLacre)},
				paiID: paiID,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterar itens de transporte: %w", err)
	}

	// Religa lacres aos volumes pelo pai_id; sem pai, ficam no transporte
	for _, lp := range lacres {
		if lp.paiID == nil {
			t.Lacres = append(t.Lacres, lp.lacre)
			continue
		}
		ligado := false
		for i := range t.Volumes {
			if t.Volumes[i].ID == *lp.paiID {
				t.Volumes[i].Lacres = append(t.Volumes[i].Lacres, lp.lacre)
				ligado = true
				break
			}
		}
		if !ligado {
			t.Lacres = append(t.Lacres, lp.lacre)
		}
	}
	return nil
}

func (r *ConsultaRepo) informacoesAdicionais(notaID int64) (*entity.InformacoesAdicionais, error) {
	query := `
		SELECT info_contribuinte, info_fisco
		FROM nfe.informacoes_adicionais
		WHERE nfe_id = $1`
	var contrib, fisco *string
	err := r.q.QueryRow(context.Background(), query, notaID).Scan(&contrib, &fisco)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("buscar informações adicionais: %w", err)
	}
	return &entity.InformacoesAdicionais{
		InfoContribuinte: derefStr(contrib),
		InfoFisco:        derefStr(fisco),
	}, nil
}

// ListarResumo serve a listagem paginada pela view vw_nfe_resumo.
func (r *ConsultaRepo) ListarResumo(filtro repository.FiltroResumo) ([]*repository.NotaResumo, error) {
	query := `
		SELECT id, chave_acesso, numero, serie, data_emissao, natureza_operacao,
		       status, emitente_nome, emitente_documento, destinatario_nome, valor_total
		FROM nfe.vw_nfe_resumo
		WHERE ($1 = '' OR emitente_documento = $1)
		  AND ($2::timestamptz IS NULL OR data_emissao >= $2)
		  AND ($3::timestamptz IS NULL OR data_emissao <= $3)
		ORDER BY data_emissao DESC, id DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(context.Background(), query,
		filtro.EmitenteDocumento, filtro.EmissaoDe, filtro.EmissaoAte,
		filtro.Limite, filtro.Deslocamento,
	)
	if err != nil {
		return nil, fmt.Errorf("listar resumo: %w", err)
	}
	defer rows.Close()

	var lista []*repository.NotaResumo
	for rows.Next() {
		var n repository.NotaResumo
		var destNome *string
		err := rows.Scan(&n.ID, &n.ChaveAcesso, &n.Numero, &n.Serie, &n.DataEmissao,
			&n.NaturezaOperacao, &n.Status, &n.EmitenteNome, &n.EmitenteDocumento,
			&destNome, &n.ValorTotal)
		if err != nil {
			return nil, fmt.Errorf("scan resumo: %w", err)
		}
		n.DestinatarioNome = derefStr(destNome)
		lista = append(lista, &n)
	}
	return lista, rows.Err()
}
