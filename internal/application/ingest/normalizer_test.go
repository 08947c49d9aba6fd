package ingest_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

// documentoBase monta uma árvore mínima válida: emitente CNPJ, destinatário
// CPF, um item com ICMS.
func documentoBase() *dto.DocumentoNFe {
	return &dto.DocumentoNFe{
		ChaveAcesso: "35230112345678000199550010000001011123456780",
		Versao:      "4.00",
		Identificacao: dto.IdentificacaoNFe{
			Serie:            1,
			Numero:           101,
			Modelo:           55,
			NaturezaOperacao: "VENDA",
			DataEmissao:      time.Date(2023, 1, 15, 13, 30, 0, 0, time.UTC),
		},
		Emitente: &dto.ParteNFe{
			CNPJ: "12345678000199",
			Nome: "Empresa Exemplo LTDA",
			Endereco: &dto.EnderecoNFe{
				Logradouro: "Rua das Flores", Municipio: "Sao Paulo", UF: "SP",
			},
		},
		Destinatario: &dto.ParteNFe{
			CPF:  "12345678901",
			Nome: "Cliente Final",
		},
		Itens: []dto.ItemNFe{{
			NumeroItem:             1,
			CodigoProduto:          "SKU-001",
			Descricao:              "Camiseta Algodao",
			CFOP:                   "5102",
			UnidadeComercial:       "UN",
			QuantidadeComercial:    decimal.NewFromInt(2),
			ValorUnitarioComercial: decimal.NewFromInt(50),
			ValorTotalBruto:        decimal.NewFromInt(100),
			ICMS: &dto.ICMSNFe{
				CST:         "00",
				BaseCalculo: nd("100.00"),
				Aliquota:    nd("18.00"),
				Valor:       nd("18.00"),
			},
		}},
	}
}

func TestNormalizar_GrafoBasico(t *testing.T) {
	grafo, err := ingest.Normalizar(documentoBase())
	require.NoError(t, err)

	assert.Equal(t, "35230112345678000199550010000001011123456780", grafo.Nota.ChaveAcesso)
	assert.Equal(t, entity.StatusPendente, grafo.Nota.Status)

	assert.Equal(t, entity.TipoPessoaEmitente, grafo.Emitente.Tipo)
	assert.Equal(t, entity.Identidade{Tipo: entity.IdentidadeCNPJ, Valor: "12345678000199"}, grafo.Emitente.Identidade)
	require.NotNil(t, grafo.Emitente.EnderecoPrincipal)
	assert.Equal(t, entity.TipoEnderecoPrincipal, grafo.Emitente.EnderecoPrincipal.Tipo)

	assert.Equal(t, entity.Identidade{Tipo: entity.IdentidadeCPF, Valor: "12345678901"}, grafo.Destinatario.Identidade)
	assert.Nil(t, grafo.Destinatario.EnderecoPrincipal)

	require.Len(t, grafo.Itens, 1)
	require.Len(t, grafo.Itens[0].Impostos, 1)
	icms, ok := grafo.Itens[0].Impostos[0].(entity.ImpostoICMS)
	require.True(t, ok)
	assert.Equal(t, "00", icms.CST)
	assert.True(t, icms.Completa())
}

func TestNormalizar_IdentidadeAmbigua(t *testing.T) {
	doc := documentoBase()
	doc.Emitente.CPF = "98765432100" // CNPJ e CPF ao mesmo tempo
	_, err := ingest.Normalizar(doc)
	require.ErrorIs(t, err, domain.ErrIdentidadeAmbigua)
}

func TestNormalizar_IdentidadeAusente(t *testing.T) {
	doc := documentoBase()
	doc.Destinatario.CPF = ""
	_, err := ingest.Normalizar(doc)
	require.ErrorIs(t, err, domain.ErrIdentidadeAusente)
}

func TestNormalizar_EmitenteAusente(t *testing.T) {
	doc := documentoBase()
	doc.Emitente = nil
	_, err := ingest.Normalizar(doc)
	require.ErrorIs(t, err, domain.ErrIdentidadeAusente)
}

func TestNormalizar_DestinatarioEstrangeiro(t *testing.T) {
	doc := documentoBase()
	doc.Destinatario = &dto.ParteNFe{IDEstrangeiro: "PAS123456", Nome: "Overseas Buyer"}
	grafo, err := ingest.Normalizar(doc)
	require.NoError(t, err)
	assert.Equal(t, entity.IdentidadeEstrangeiro, grafo.Destinatario.Identidade.Tipo)
	assert.Equal(t, "PAS123456", grafo.Destinatario.Identidade.Valor)
}

func TestNormalizar_ImpostoAusenteNaoGeraLinha(t *testing.T) {
	doc := documentoBase()
	doc.Itens[0].ICMS = nil
	grafo, err := ingest.Normalizar(doc)
	require.NoError(t, err)
	// Ausência não vira zero: nenhuma linha de imposto
	assert.Empty(t, grafo.Itens[0].Impostos)
}

func TestNormalizar_OrdemFixaDosImpostos(t *testing.T) {
	doc := documentoBase()
	doc.Itens[0].COFINS = &dto.COFINSNFe{CST: "01", BaseCalculo: nd("100"), Aliquota: nd("7.60"), Valor: nd("7.60")}
	doc.Itens[0].PIS = &dto.PISNFe{CST: "01", BaseCalculo: nd("100"), Aliquota: nd("1.65"), Valor: nd("1.65")}
	doc.Itens[0].IPI = &dto.IPINFe{CST: "50", BaseCalculo: nd("100"), Aliquota: nd("5.00"), Valor: nd("5.00")}

	grafo, err := ingest.Normalizar(doc)
	require.NoError(t, err)

	var tipos []string
	for _, imp := range grafo.Itens[0].Impostos {
		tipos = append(tipos, imp.TipoImposto())
	}
	assert.Equal(t, []string{"ICMS", "IPI", "PIS", "COFINS"}, tipos)
}

func TestNormalizar_EnderecosDaNota(t *testing.T) {
	doc := documentoBase()
	doc.Retirada = &dto.EnderecoNFe{Logradouro: "Deposito 1", Municipio: "Guarulhos", UF: "SP"}
	doc.Entrega = &dto.EnderecoNFe{Logradouro: "Obra 7", Municipio: "Osasco", UF: "SP"}

	grafo, err := ingest.Normalizar(doc)
	require.NoError(t, err)

	require.Len(t, grafo.EnderecosNota, 2)
	assert.Equal(t, entity.TipoEnderecoRetirada, grafo.EnderecosNota[0].Tipo)
	assert.Equal(t, entity.TipoEnderecoEntrega, grafo.EnderecosNota[1].Tipo)
}

func TestNormalizar_TransporteComVolumesELacres(t *testing.T) {
	doc := documentoBase()
	modFrete := 1
	doc.Transporte = &dto.TransporteNFe{
		ModalidadeFrete: &modFrete,
		Transportadora:  &dto.ParteNFe{CNPJ: "99888777000166", Nome: "Transportes Rapido"},
		Volumes: []dto.VolumeNFe{
			{Especie: "CAIXA", Lacres: []string{"L-001", "L-002"}},
			{Especie: "PALLET"},
		},
		Veiculo: &dto.VeiculoNFe{Placa: "ABC1D23", UF: "SP"},
		Lacres:  []string{"L-SOLTO"},
	}

	grafo, err := ingest.Normalizar(doc)
	require.NoError(t, err)
	require.NotNil(t, grafo.Transporte)

	require.NotNil(t, grafo.Transporte.Transportadora)
	assert.Equal(t, entity.TipoPessoaTransportadora, grafo.Transporte.Transportadora.Tipo)

	require.Len(t, grafo.Transporte.Volumes, 2)
	assert.Len(t, grafo.Transporte.Volumes[0].Lacres, 2)
	assert.Empty(t, grafo.Transporte.Volumes[1].Lacres)
	require.Len(t, grafo.Transporte.Veiculos, 1)
	require.Len(t, grafo.Transporte.Lacres, 1)
	assert.Equal(t, "L-SOLTO", grafo.Transporte.Lacres[0].Numero)
}

func TestNormalizar_TransportadoraSemIdentificador(t *testing.T) {
	doc := documentoBase()
	doc.Transporte = &dto.TransporteNFe{
		Transportadora: &dto.ParteNFe{Nome: "Sem Documento"},
	}
	grafo, err := ingest.Normalizar(doc)
	require.NoError(t, err)
	// Transportadora descartada, o transporte permanece
	require.NotNil(t, grafo.Transporte)
	assert.Nil(t, grafo.Transporte.Transportadora)
}

func TestNormalizar_TransportadoraComDoisIdentificadores(t *testing.T) {
	doc := documentoBase()
	doc.Transporte = &dto.TransporteNFe{
		Transportadora: &dto.ParteNFe{CNPJ: "99888777000166", CPF: "12345678901"},
	}
	_, err := ingest.Normalizar(doc)
	require.ErrorIs(t, err, domain.ErrIdentidadeAmbigua)
}

func TestNormalizar_Deterministico(t *testing.T) {
	doc := documentoBase()
	doc.Itens[0].PIS = &dto.PISNFe{CST: "01", BaseCalculo: nd("100"), Aliquota: nd("1.65"), Valor: nd("1.65")}

	a, err := ingest.Normalizar(doc)
	require.NoError(t, err)
	b, err := ingest.Normalizar(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
