package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentoNFe árvore intermediária tipada de um XML de NF-e, produzida pelo
// parser. Campos já resolvidos para seus tipos semânticos (datas, decimais com
// precisão fixa); nenhuma regra de negócio aplicada ainda.
type DocumentoNFe struct {
	ChaveAcesso   string
	Versao        string
	Identificacao IdentificacaoNFe
	Emitente      *ParteNFe
	Destinatario  *ParteNFe
	Retirada      *EnderecoNFe
	Entrega       *EnderecoNFe
	Itens         []ItemNFe
	Totais        *TotaisNFe
	Transporte    *TransporteNFe
	InfAdicionais *InfAdicionaisNFe
}

// IdentificacaoNFe grupo <ide>.
type IdentificacaoNFe struct {
	CodigoUF           int
	CodigoNF           string
	NaturezaOperacao   string
	IndicadorPagamento *int
	Modelo             int
	Serie              int
	Numero             int
	DataEmissao        time.Time
	DataSaidaEntrada   *time.Time
	TipoNF             int
	CodigoMunicipioFG  string
	TipoImpressao      int
	TipoEmissao        int
	DigitoVerificador  int
	Ambiente           int
	FinalidadeNF       int
	ProcessoEmissao    int
	VersaoProcesso     string
}

// ParteNFe emitente, destinatário ou transportadora como vêm no documento.
// Os identificadores são mantidos como o XML os traz; a exclusão mútua é
// decidida na normalização, não aqui.
type ParteNFe struct {
	CNPJ              string
	CPF               string
	IDEstrangeiro     string
	Nome              string
	NomeFantasia      string
	InscricaoEstadual string
	Email             string
	RegimeTributario  *int
	Endereco          *EnderecoNFe
}

// EnderecoNFe grupo de endereço (enderEmit, enderDest, retirada, entrega).
type EnderecoNFe struct {
	Logradouro      string
	Numero          string
	Complemento     string
	Bairro          string
	CodigoMunicipio string
	Municipio       string
	UF              string
	CEP             string
	CodigoPais      string
	Pais            string
	Telefone        string
}

// ItemNFe um <det>: produto e blocos de imposto presentes. Bloco ausente no
// XML fica nil — ausência não vira zero.
type ItemNFe struct {
	NumeroItem              int
	CodigoProduto           string
	GTIN                    string
	Descricao               string
	NCM                     string
	CFOP                    string
	UnidadeComercial        string
	QuantidadeComercial     decimal.Decimal
	ValorUnitarioComercial  decimal.Decimal
	ValorTotalBruto         decimal.Decimal
	GTINTributavel          string
	UnidadeTributavel       string
	QuantidadeTributavel    decimal.Decimal
	ValorUnitarioTributavel decimal.Decimal
	ICMS                    *ICMSNFe
	IPI                     *IPINFe
	PIS                     *PISNFe
	COFINS                  *COFINSNFe
}

// ICMSNFe primeiro filho do grupo <ICMS> (ICMS00..ICMS90, CSOSN).
type ICMSNFe struct {
	Origem              *int
	CST                 string
	ModalidadeBC        *int
	BaseCalculo         decimal.NullDecimal
	Aliquota            decimal.NullDecimal
	Valor               decimal.NullDecimal
	PercentualReducaoBC decimal.NullDecimal
}

// IPINFe grupo <IPI>.
type IPINFe struct {
	CST                 string
	CodigoEnquadramento string
	BaseCalculo         decimal.NullDecimal
	Aliquota            decimal.NullDecimal
	Valor               decimal.NullDecimal
}

// PISNFe grupo <PIS>.
type PISNFe struct {
	CST         string
	BaseCalculo decimal.NullDecimal
	Aliquota    decimal.NullDecimal
	Valor       decimal.NullDecimal
}

// COFINSNFe grupo <COFINS>.
type COFINSNFe struct {
	CST         string
	BaseCalculo decimal.NullDecimal
	Aliquota    decimal.NullDecimal
	Valor       decimal.NullDecimal
}

// TotaisNFe grupo <ICMSTot>.
type TotaisNFe struct {
	BaseCalculoICMS   decimal.NullDecimal
	ValorICMS         decimal.NullDecimal
	BaseCalculoICMSST decimal.NullDecimal
	ValorICMSST       decimal.NullDecimal
	ValorProdutos     decimal.Decimal
	ValorFrete        decimal.NullDecimal
	ValorSeguro       decimal.NullDecimal
	ValorDesconto     decimal.NullDecimal
	ValorII           decimal.NullDecimal
	ValorIPI          decimal.NullDecimal
	ValorPIS          decimal.NullDecimal
	ValorCOFINS       decimal.NullDecimal
	ValorOutros       decimal.NullDecimal
	ValorTotalNFe     decimal.Decimal
}

// TransporteNFe grupo <transp>.
type TransporteNFe struct {
	ModalidadeFrete *int
	Transportadora  *ParteNFe
	Volumes         []VolumeNFe
	Veiculo         *VeiculoNFe
	// Lacres fora de qualquer <vol> (documento malformado porém aceito:
	// ficam ligados direto ao transporte).
	Lacres []string
}

// VolumeNFe um <vol> com seus lacres aninhados.
type VolumeNFe struct {
	Quantidade  *int
	Especie     string
	Marca       string
	Numeracao   string
	PesoLiquido decimal.NullDecimal
	PesoBruto   decimal.NullDecimal
	Lacres      []string
}

// VeiculoNFe grupo <veicTransp>.
type VeiculoNFe struct {
	Placa string
	UF    string
	RNTC  string
}

// InfAdicionaisNFe grupo <infAdic>.
type InfAdicionaisNFe struct {
	InfoContribuinte string
	InfoFisco        string
}
