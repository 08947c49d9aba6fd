package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
)

// NotaDetalheResponse nota completa com todos os agregados, no formato de
// saída da API. Montada a partir do grafo carregado pela consulta.
type NotaDetalheResponse struct {
	ChaveAcesso      string                 `json:"chave_acesso"`
	Versao           string                 `json:"versao"`
	Numero           int                    `json:"numero"`
	Serie            int                    `json:"serie"`
	Modelo           int                    `json:"modelo"`
	NaturezaOperacao string                 `json:"natureza_operacao"`
	DataEmissao      time.Time              `json:"data_emissao"`
	DataSaidaEntrada *time.Time             `json:"data_saida_entrada,omitempty"`
	Status           string                 `json:"status"`
	Emitente         PessoaResponse         `json:"emitente"`
	Destinatario     PessoaResponse         `json:"destinatario"`
	EnderecosNota    []EnderecoResponse     `json:"enderecos_nota,omitempty"`
	Itens            []ItemResponse         `json:"itens"`
	Totais           *TotaisResponse        `json:"totais,omitempty"`
	Transporte       *TransporteResponse    `json:"transporte,omitempty"`
	InfAdicionais    *InfAdicionaisResponse `json:"informacoes_adicionais,omitempty"`
}

// PessoaResponse pessoa com papel e endereço principal.
type PessoaResponse struct {
	TipoDocumento     string            `json:"tipo_documento"`
	Documento         string            `json:"documento"`
	Nome              string            `json:"nome"`
	NomeFantasia      string            `json:"nome_fantasia,omitempty"`
	InscricaoEstadual string            `json:"inscricao_estadual,omitempty"`
	Email             string            `json:"email,omitempty"`
	Endereco          *EnderecoResponse `json:"endereco,omitempty"`
}

// EnderecoResponse endereço de pessoa ou da nota.
type EnderecoResponse struct {
	Tipo            string `json:"tipo"`
	Logradouro      string `json:"logradouro"`
	Numero          string `json:"numero,omitempty"`
	Complemento     string `json:"complemento,omitempty"`
	Bairro          string `json:"bairro,omitempty"`
	CodigoMunicipio string `json:"codigo_municipio,omitempty"`
	Municipio       string `json:"municipio"`
	UF              string `json:"uf"`
	CEP             string `json:"cep,omitempty"`
}

// ItemResponse linha de produto com impostos.
type ItemResponse struct {
	NumeroItem    int               `json:"numero_item"`
	CodigoProduto string            `json:"codigo_produto"`
	Descricao     string            `json:"descricao"`
	NCM           string            `json:"ncm,omitempty"`
	CFOP          string            `json:"cfop"`
	Unidade       string            `json:"unidade"`
	Quantidade    decimal.Decimal   `json:"quantidade"`
	ValorUnitario decimal.Decimal   `json:"valor_unitario"`
	ValorTotal    decimal.Decimal   `json:"valor_total"`
	Impostos      []ImpostoResponse `json:"impostos,omitempty"`
}

// ImpostoResponse linha de imposto do item.
type ImpostoResponse struct {
	Tipo        string              `json:"tipo"`
	CST         string              `json:"cst,omitempty"`
	BaseCalculo decimal.NullDecimal `json:"base_calculo"`
	Aliquota    decimal.NullDecimal `json:"aliquota"`
	Valor       decimal.NullDecimal `json:"valor"`
}

// TotaisResponse resumo monetário da nota.
type TotaisResponse struct {
	BaseCalculoICMS decimal.NullDecimal `json:"base_calculo_icms"`
	ValorICMS       decimal.NullDecimal `json:"valor_icms"`
	ValorProdutos   decimal.Decimal     `json:"valor_produtos"`
	ValorFrete      decimal.NullDecimal `json:"valor_frete"`
	ValorDesconto   decimal.NullDecimal `json:"valor_desconto"`
	ValorIPI        decimal.NullDecimal `json:"valor_ipi"`
	ValorPIS        decimal.NullDecimal `json:"valor_pis"`
	ValorCOFINS     decimal.NullDecimal `json:"valor_cofins"`
	ValorTotalNFe   decimal.Decimal     `json:"valor_total_nfe"`
}

// TransporteResponse transporte com transportadora e itens.
type TransporteResponse struct {
	ModalidadeFrete *int              `json:"modalidade_frete,omitempty"`
	Transportadora  *PessoaResponse   `json:"transportadora,omitempty"`
	Volumes         []VolumeResponse  `json:"volumes,omitempty"`
	Veiculos        []VeiculoResponse `json:"veiculos,omitempty"`
	Lacres          []string          `json:"lacres,omitempty"`
}

// VolumeResponse volume com lacres aninhados.
type VolumeResponse struct {
	Quantidade  *int                `json:"quantidade,omitempty"`
	Especie     string              `json:"especie,omitempty"`
	Marca       string              `json:"marca,omitempty"`
	Numeracao   string              `json:"numeracao,omitempty"`
	PesoLiquido decimal.NullDecimal `json:"peso_liquido"`
	PesoBruto   decimal.NullDecimal `json:"peso_bruto"`
	Lacres      []string            `json:"lacres,omitempty"`
}

// VeiculoResponse veículo de transporte.
type VeiculoResponse struct {
	Placa string `json:"placa"`
	UF    string `json:"uf"`
	RNTC  string `json:"rntc,omitempty"`
}

// InfAdicionaisResponse texto livre da nota.
type InfAdicionaisResponse struct {
	InfoContribuinte string `json:"info_contribuinte,omitempty"`
	InfoFisco        string `json:"info_fisco,omitempty"`
}

// NotaDetalheFromGrafo converte o grafo carregado na resposta da API.
func NotaDetalheFromGrafo(g *entity.Grafo) *NotaDetalheResponse {
	resp := &NotaDetalheResponse{
		ChaveAcesso:      g.Nota.ChaveAcesso,
		Versao:           g.Nota.Versao,
		Numero:           g.Nota.Numero,
		Serie:            g.Nota.Serie,
		Modelo:           g.Nota.Modelo,
		NaturezaOperacao: g.Nota.NaturezaOperacao,
		DataEmissao:      g.Nota.DataEmissao,
		DataSaidaEntrada: g.Nota.DataSaidaEntrada,
		Status:           g.Nota.Status,
		Emitente:         pessoaResponse(&g.Emitente),
		Destinatario:     pessoaResponse(&g.Destinatario),
	}

	for i := range g.EnderecosNota {
		resp.EnderecosNota = append(resp.EnderecosNota, enderecoResponse(&g.EnderecosNota[i]))
	}
	for i := range g.Itens {
		resp.Itens = append(resp.Itens, itemResponse(&g.Itens[i]))
	}
	if g.Totais != nil {
		resp.Totais = &TotaisResponse{
			BaseCalculoICMS: g.Totais.BaseCalculoICMS,
			ValorICMS:       g.Totais.ValorICMS,
			ValorProdutos:   g.Totais.ValorProdutos,
			ValorFrete:      g.Totais.ValorFrete,
			ValorDesconto:   g.Totais.ValorDesconto,
			ValorIPI:        g.Totais.ValorIPI,
			ValorPIS:        g.Totais.ValorPIS,
			ValorCOFINS:     g.Totais.ValorCOFINS,
			ValorTotalNFe:   g.Totais.ValorTotalNFe,
		}
	}
	if g.Transporte != nil {
		resp.Transporte = transporteResponse(g.Transporte)
	}
	if g.InfAdicionais != nil {
		resp.InfAdicionais = &InfAdicionaisResponse{
			InfoContribuinte: g.InfAdicionais.InfoContribuinte,
			InfoFisco:        g.InfAdicionais.InfoFisco,
		}
	}
	return resp
}

func pessoaResponse(p *entity.Pessoa) PessoaResponse {
	resp := PessoaResponse{
		TipoDocumento:     p.Identidade.Tipo,
		Documento:         p.Identidade.Valor,
		Nome:              p.Nome,
		NomeFantasia:      p.NomeFantasia,
		InscricaoEstadual: p.InscricaoEstadual,
		Email:             p.Email,
	}
	if p.EnderecoPrincipal != nil {
		e := enderecoResponse(p.EnderecoPrincipal)
		resp.Endereco = &e
	}
	return resp
}

func enderecoResponse(e *entity.Endereco) EnderecoResponse {
	return EnderecoResponse{
		Tipo:            e.Tipo,
		Logradouro:      e.Logradouro,
		Numero:          e.Numero,
		Complemento:     e.Complemento,
		Bairro:          e.Bairro,
		CodigoMunicipio: e.CodigoMunicipio,
		Municipio:       e.Municipio,
		UF:              e.UF,
		CEP:             e.CEP,
	}
}

func itemResponse(it *entity.Item) ItemResponse {
	resp := ItemResponse{
		NumeroItem:    it.NumeroItem,
		CodigoProduto: it.CodigoProduto,
		Descricao:     it.Descricao,
		NCM:           it.NCM,
		CFOP:          it.CFOP,
		Unidade:       it.UnidadeComercial,
		Quantidade:    it.QuantidadeComercial,
		ValorUnitario: it.ValorUnitarioComercial,
		ValorTotal:    it.ValorTotalBruto,
	}
	for _, imp := range it.Impostos {
		resp.Impostos = append(resp.Impostos, impostoResponse(imp))
	}
	return resp
}

func impostoResponse(imp entity.Imposto) ImpostoResponse {
	resp := ImpostoResponse{Tipo: imp.TipoImposto()}
	switch v := imp.(type) {
	case entity.ImpostoICMS:
		resp.CST = v.CST
		resp.BaseCalculo, resp.Aliquota, resp.Valor = v.BaseCalculo, v.Aliquota, v.Valor
	case entity.ImpostoIPI:
		resp.CST = v.CST
		resp.BaseCalculo, resp.Aliquota, resp.Valor = v.BaseCalculo, v.Aliquota, v.Valor
	case entity.ImpostoPIS:
		resp.CST = v.CST
		resp.BaseCalculo, resp.Aliquota, resp.Valor = v.BaseCalculo, v.Aliquota, v.Valor
	case entity.ImpostoCOFINS:
		resp.CST = v.CST
		resp.BaseCalculo, resp.Aliquota, resp.Valor = v.BaseCalculo, v.Aliquota, v.Valor
	}
	return resp
}

func transporteResponse(t *entity.Transporte) *TransporteResponse {
	resp := &TransporteResponse{ModalidadeFrete: t.ModalidadeFrete}
	if t.Transportadora != nil {
		p := pessoaResponse(t.Transportadora)
		resp.Transportadora = &p
	}
	for i := range t.Volumes {
		vol := &t.Volumes[i]
		vr := VolumeResponse{
			Quantidade:  vol.Quantidade,
			Especie:     vol.Especie,
			Marca:       vol.Marca,
			Numeracao:   vol.Numeracao,
			PesoLiquido: vol.PesoLiquido,
			PesoBruto:   vol.PesoBruto,
		}
		for _, l := range vol.Lacres {
			vr.Lacres = append(vr.Lacres, l.Numero)
		}
		resp.Volumes = append(resp.Volumes, vr)
	}
	for _, v := range t.Veiculos {
		resp.Veiculos = append(resp.Veiculos, VeiculoResponse{Placa: v.Placa, UF: v.UF, RNTC: v.RNTC})
	}
	for _, l := range t.Lacres {
		resp.Lacres = append(resp.Lacres, l.Numero)
	}
	return resp
}
