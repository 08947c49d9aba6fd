package ingest

import (
	"fmt"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
)

// Normalizar converte a árvore extraída no grafo relacional generalizado.
// Função pura e determinística: a mesma árvore produz sempre o mesmo grafo,
// com a ordem de origem preservada em todas as listas.
func Normalizar(doc *dto.DocumentoNFe) (*entity.Grafo, error) {
	if doc.Emitente == nil {
		return nil, fmt.Errorf("%w: emitente", domain.ErrIdentidadeAusente)
	}
	if doc.Destinatario == nil {
		return nil, fmt.Errorf("%w: destinatário", domain.ErrIdentidadeAusente)
	}

	emitente, err := normalizarPessoa(doc.Emitente, entity.TipoPessoaEmitente)
	if err != nil {
		return nil, err
	}
	destinatario, err := normalizarPessoa(doc.Destinatario, entity.TipoPessoaDestinatario)
	if err != nil {
		return nil, err
	}

	grafo := &entity.Grafo{
		Nota:         normalizarNota(doc),
		Emitente:     *emitente,
		Destinatario: *destinatario,
	}

	// Retirada/entrega sem pessoa própria pertencem diretamente à nota.
	if doc.Retirada != nil {
		grafo.EnderecosNota = append(grafo.EnderecosNota,
			normalizarEndereco(doc.Retirada, entity.TipoEnderecoRetirada))
	}
	if doc.Entrega != nil {
		grafo.EnderecosNota = append(grafo.EnderecosNota,
			normalizarEndereco(doc.Entrega, entity.TipoEnderecoEntrega))
	}

	for _, item := range doc.Itens {
		grafo.Itens = append(grafo.Itens, normalizarItem(&item))
	}

	if doc.Totais != nil {
		grafo.Totais = &entity.Totais{
			BaseCalculoICMS:   doc.Totais.BaseCalculoICMS,
			ValorICMS:         doc.Totais.ValorICMS,
			BaseCalculoICMSST: doc.Totais.BaseCalculoICMSST,
			ValorICMSST:       doc.Totais.ValorICMSST,
			ValorProdutos:     doc.Totais.ValorProdutos,
			ValorFrete:        doc.Totais.ValorFrete,
			ValorSeguro:       doc.Totais.ValorSeguro,
			ValorDesconto:     doc.Totais.ValorDesconto,
			ValorII:           doc.Totais.ValorII,
			ValorIPI:          doc.Totais.ValorIPI,
			ValorPIS:          doc.Totais.ValorPIS,
			ValorCOFINS:       doc.Totais.ValorCOFINS,
			ValorOutros:       doc.Totais.ValorOutros,
			ValorTotalNFe:     doc.Totais.ValorTotalNFe,
		}
	}

	if doc.Transporte != nil {
		transporte, err := normalizarTransporte(doc.Transporte)
		if err != nil {
			return nil, err
		}
		grafo.Transporte = transporte
	}

	if doc.InfAdicionais != nil && (doc.InfAdicionais.InfoContribuinte != "" || doc.InfAdicionais.InfoFisco != "") {
		grafo.InfAdicionais = &entity.InformacoesAdicionais{
			InfoContribuinte: doc.InfAdicionais.InfoContribuinte,
			InfoFisco:        doc.InfAdicionais.InfoFisco,
		}
	}

	return grafo, nil
}

func normalizarNota(doc *dto.DocumentoNFe) entity.NotaFiscal {
	ide := doc.Identificacao
	return entity.NotaFiscal{
		ChaveAcesso:        doc.ChaveAcesso,
		Versao:             doc.Versao,
		CodigoUF:           ide.CodigoUF,
		CodigoNF:           ide.CodigoNF,
		NaturezaOperacao:   ide.NaturezaOperacao,
		IndicadorPagamento: ide.IndicadorPagamento,
		Modelo:             ide.Modelo,
		Serie:              ide.Serie,
		Numero:             ide.Numero,
		DataEmissao:        ide.DataEmissao,
		DataSaidaEntrada:   ide.DataSaidaEntrada,
		TipoNF:             ide.TipoNF,
		CodigoMunicipioFG:  ide.CodigoMunicipioFG,
		TipoImpressao:      ide.TipoImpressao,
		TipoEmissao:        ide.TipoEmissao,
		DigitoVerificador:  ide.DigitoVerificador,
		Ambiente:           ide.Ambiente,
		FinalidadeNF:       ide.FinalidadeNF,
		ProcessoEmissao:    ide.ProcessoEmissao,
		VersaoProcesso:     ide.VersaoProcesso,
		Status:             entity.StatusPendente,
	}
}

// resolverIdentidade aplica a exclusão mútua CNPJ/CPF/idEstrangeiro:
// mais de um preenchido é ambíguo, nenhum é ausente.
func resolverIdentidade(parte *dto.ParteNFe, papel string) (entity.Identidade, error) {
	var id entity.Identidade
	presentes := 0
	if parte.CNPJ != "" {
		id = entity.Identidade{Tipo: entity.IdentidadeCNPJ, Valor: parte.CNPJ}
		presentes++
	}
	if parte.CPF != "" {
		id = entity.Identidade{Tipo: entity.IdentidadeCPF, Valor: parte.CPF}
		presentes++
	}
	if parte.IDEstrangeiro != "" {
		id = entity.Identidade{Tipo: entity.IdentidadeEstrangeiro, Valor: parte.IDEstrangeiro}
		presentes++
	}
	switch {
	case presentes > 1:
		return id, fmt.Errorf("%w: %s traz mais de um identificador", domain.ErrIdentidadeAmbigua, papel)
	case presentes == 0:
		return id, fmt.Errorf("%w: %s sem identificador", domain.ErrIdentidadeAusente, papel)
	}
	return id, nil
}

func normalizarPessoa(parte *dto.ParteNFe, tipo string) (*entity.Pessoa, error) {
	identidade, err := resolverIdentidade(parte, tipo)
	if err != nil {
		return nil, err
	}
	pessoa := &entity.Pessoa{
		Tipo:              tipo,
		Identidade:        identidade,
		Nome:              parte.Nome,
		NomeFantasia:      parte.NomeFantasia,
		InscricaoEstadual: parte.InscricaoEstadual,
		Email:             parte.Email,
		RegimeTributario:  parte.RegimeTributario,
	}
	if parte.Endereco != nil {
		end := normalizarEndereco(parte.Endereco, entity.TipoEnderecoPrincipal)
		pessoa.EnderecoPrincipal = &end
	}
	return pessoa, nil
}

func normalizarEndereco(e *dto.EnderecoNFe, tipo string) entity.Endereco {
	return entity.Endereco{
		Tipo:            tipo,
		Logradouro:      e.Logradouro,
		Numero:          e.Numero,
		Complemento:     e.Complemento,
		Bairro:          e.Bairro,
		CodigoMunicipio: e.CodigoMunicipio,
		Municipio:       e.Municipio,
		UF:              e.UF,
		CEP:             e.CEP,
		CodigoPais:      e.CodigoPais,
		Pais:            e.Pais,
		Telefone:        e.Telefone,
	}
}

// normalizarItem gera uma linha de imposto por tipo presente na origem, em
// ordem fixa (ICMS, IPI, PIS, COFINS). Tipo ausente não gera linha: ausência
// e zero não se confundem.
func normalizarItem(src *dto.ItemNFe) entity.Item {
	item := entity.Item{
		NumeroItem:              src.NumeroItem,
		CodigoProduto:           src.CodigoProduto,
		GTIN:                    src.GTIN,
		Descricao:               src.Descricao,
		NCM:                     src.NCM,
		CFOP:                    src.CFOP,
		UnidadeComercial:        src.UnidadeComercial,
		QuantidadeComercial:     src.QuantidadeComercial,
		ValorUnitarioComercial:  src.ValorUnitarioComercial,
		ValorTotalBruto:         src.ValorTotalBruto,
		GTINTributavel:          src.GTINTributavel,
		UnidadeTributavel:       src.UnidadeTributavel,
		QuantidadeTributavel:    src.QuantidadeTributavel,
		ValorUnitarioTributavel: src.ValorUnitarioTributavel,
	}
	if src.ICMS != nil {
		item.OrigemMercadoria = src.ICMS.Origem
		item.Impostos = append(item.Impostos, entity.ImpostoICMS{
			BaseImposto: entity.BaseImposto{
				BaseCalculo: src.ICMS.BaseCalculo,
				Aliquota:    src.ICMS.Aliquota,
				Valor:       src.ICMS.Valor,
			},
			Origem:              src.ICMS.Origem,
			CST:                 src.ICMS.CST,
			ModalidadeBC:        src.ICMS.ModalidadeBC,
			PercentualReducaoBC: src.ICMS.PercentualReducaoBC,
		})
	}
	if src.IPI != nil {
		item.Impostos = append(item.Impostos, entity.ImpostoIPI{
			BaseImposto: entity.BaseImposto{
				BaseCalculo: src.IPI.BaseCalculo,
				Aliquota:    src.IPI.Aliquota,
				Valor:       src.IPI.Valor,
			},
			CST:                 src.IPI.CST,
			CodigoEnquadramento: src.IPI.CodigoEnquadramento,
		})
	}
	if src.PIS != nil {
		item.Impostos = append(item.Impostos, entity.ImpostoPIS{
			BaseImposto: entity.BaseImposto{
				BaseCalculo: src.PIS.BaseCalculo,
				Aliquota:    src.PIS.Aliquota,
				Valor:       src.PIS.Valor,
			},
			CST: src.PIS.CST,
		})
	}
	if src.COFINS != nil {
		item.Impostos = append(item.Impostos, entity.ImpostoCOFINS{
			BaseImposto: entity.BaseImposto{
				BaseCalculo: src.COFINS.BaseCalculo,
				Aliquota:    src.COFINS.Aliquota,
				Valor:       src.COFINS.Valor,
			},
			CST: src.COFINS.CST,
		})
	}
	return item
}

func normalizarTransporte(src *dto.TransporteNFe) (*entity.Transporte, error) {
	t := &entity.Transporte{ModalidadeFrete: src.ModalidadeFrete}

	// Transportadora sem identificador é descartada (o transporte permanece);
	// com mais de um identificador a normalização falha como nas demais pessoas.
	if src.Transportadora != nil {
		switch {
		case src.Transportadora.CNPJ != "" && src.Transportadora.CPF != "":
			return nil, fmt.Errorf("%w: transportadora traz mais de um identificador", domain.ErrIdentidadeAmbigua)
		case src.Transportadora.CNPJ != "" || src.Transportadora.CPF != "":
			pessoa, err := normalizarPessoa(src.Transportadora, entity.TipoPessoaTransportadora)
			if err != nil {
				return nil, err
			}
			t.Transportadora = pessoa
		}
	}

	for _, vol := range src.Volumes {
		volume := entity.Volume{
			Quantidade:  vol.Quantidade,
			Especie:     vol.Especie,
			Marca:       vol.Marca,
			Numeracao:   vol.Numeracao,
			PesoLiquido: vol.PesoLiquido,
			PesoBruto:   vol.PesoBruto,
		}
		for _, numero := range vol.Lacres {
			volume.Lacres = append(volume.Lacres, entity.Lacre{Numero: numero})
		}
		t.Volumes = append(t.Volumes, volume)
	}
	if src.Veiculo != nil {
		t.Veiculos = append(t.Veiculos, entity.Veiculo{
			Placa: src.Veiculo.Placa,
			UF:    src.Veiculo.UF,
			RNTC:  src.Veiculo.RNTC,
		})
	}
	// Lacre sem volume envolvente fica pendurado direto no transporte.
	for _, numero := range src.Lacres {
		t.Lacres = append(t.Lacres, entity.Lacre{Numero: numero})
	}
	return t, nil
}
