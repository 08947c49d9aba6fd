// Package nfexml extrai a árvore tipada de um XML de NF-e (layout 4.00 do
// portalfiscal). Livre de efeitos: não toca banco nem storage.
package nfexml

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/nfe"
)

// Precisão dos tipos semânticos: monetário 2 casas, quantidade/valor unitário 4.
const (
	casasMoeda      = 2
	casasQuantidade = 4
)

// Parser converte bytes brutos de NF-e em dto.DocumentoNFe.
type Parser struct{}

// NewParser cria o parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse lê o documento e devolve a árvore tipada. Devolve
// domain.ErrDocumentoMalformado quando faltam campos obrigatórios (chave,
// série, número, data de emissão, ao menos um item) ou a chave reprova no
// dígito verificador.
func (p *Parser) Parse(raw []byte) (*dto.DocumentoNFe, error) {
	tree := etree.NewDocument()
	// Notas antigas circulam em ISO-8859-1; converter para UTF-8 na leitura.
	tree.ReadSettings.CharsetReader = latinCharsetReader
	if err := tree.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: xml inválido: %v", domain.ErrDocumentoMalformado, err)
	}

	infNFe := tree.FindElement("//infNFe")
	if infNFe == nil {
		return nil, fmt.Errorf("%w: grupo infNFe ausente", domain.ErrDocumentoMalformado)
	}

	chave := strings.TrimPrefix(infNFe.SelectAttrValue("Id", ""), "NFe")
	if chave == "" {
		return nil, fmt.Errorf("%w: chave de acesso ausente", domain.ErrDocumentoMalformado)
	}
	if err := nfe.Validar(chave); err != nil {
		return nil, fmt.Errorf("%w: chave de acesso: %v", domain.ErrDocumentoMalformado, err)
	}

	doc := &dto.DocumentoNFe{
		ChaveAcesso: chave,
		Versao:      infNFe.SelectAttrValue("versao", ""),
	}

	ide := infNFe.FindElement("ide")
	if ide == nil {
		return nil, fmt.Errorf("%w: grupo ide ausente", domain.ErrDocumentoMalformado)
	}
	var err error
	if doc.Identificacao, err = parseIdentificacao(ide); err != nil {
		return nil, err
	}
	if err := conferirChave(nfe.Chave(chave), doc.Identificacao); err != nil {
		return nil, err
	}

	if emit := infNFe.FindElement("emit"); emit != nil {
		doc.Emitente = parseParte(emit, "enderEmit")
	}
	if dest := infNFe.FindElement("dest"); dest != nil {
		doc.Destinatario = parseParte(dest, "enderDest")
	}
	if ret := infNFe.FindElement("retirada"); ret != nil {
		doc.Retirada = parseEndereco(ret)
	}
	if ent := infNFe.FindElement("entrega"); ent != nil {
		doc.Entrega = parseEndereco(ent)
	}

	dets := infNFe.FindElements("det")
	if len(dets) == 0 {
		return nil, fmt.Errorf("%w: nota sem itens", domain.ErrDocumentoMalformado)
	}
	for i, det := range dets {
		item, err := parseItem(det, i+1)
		if err != nil {
			return nil, err
		}
		doc.Itens = append(doc.Itens, *item)
	}

	if tot := infNFe.FindElement("total/ICMSTot"); tot != nil {
		if doc.Totais, err = parseTotais(tot); err != nil {
			return nil, err
		}
	}
	if transp := infNFe.FindElement("transp"); transp != nil {
		doc.Transporte = parseTransporte(transp)
	}
	if infAdic := infNFe.FindElement("infAdic"); infAdic != nil {
		doc.InfAdicionais = &dto.InfAdicionaisNFe{
			InfoContribuinte: texto(infAdic, "infCpl"),
			InfoFisco:        texto(infAdic, "infAdFisco"),
		}
	}

	return doc, nil
}

// conferirChave cruza os campos do ide com os componentes embutidos na chave
// de acesso. Divergência indica documento adulterado ou remontado a partir de
// outra nota. Modelo e cUF só são conferidos quando presentes no XML.
func conferirChave(chave nfe.Chave, id dto.IdentificacaoNFe) error {
	if chave.Serie() != id.Serie {
		return fmt.Errorf("%w: série %d diverge da embutida na chave (%d)",
			domain.ErrDocumentoMalformado, id.Serie, chave.Serie())
	}
	if chave.Numero() != id.Numero {
		return fmt.Errorf("%w: número %d diverge do embutido na chave (%d)",
			domain.ErrDocumentoMalformado, id.Numero, chave.Numero())
	}
	if id.Modelo != 0 && chave.Modelo() != id.Modelo {
		return fmt.Errorf("%w: modelo %d diverge do embutido na chave (%d)",
			domain.ErrDocumentoMalformado, id.Modelo, chave.Modelo())
	}
	if id.CodigoUF != 0 && chave.CodigoUF() != id.CodigoUF {
		return fmt.Errorf("%w: cUF %d diverge do embutido na chave (%d)",
			domain.ErrDocumentoMalformado, id.CodigoUF, chave.CodigoUF())
	}
	return nil
}

func parseIdentificacao(ide *etree.Element) (dto.IdentificacaoNFe, error) {
	var id dto.IdentificacaoNFe

	serie, err := inteiroObrigatorio(ide, "serie")
	if err != nil {
		return id, err
	}
	numero, err := inteiroObrigatorio(ide, "nNF")
	if err != nil {
		return id, err
	}
	emissao, err := parseData(texto(ide, "dhEmi"))
	if err != nil {
		return id, fmt.Errorf("%w: data de emissão: %v", domain.ErrDocumentoMalformado, err)
	}

	id.Serie = serie
	id.Numero = numero
	id.DataEmissao = emissao
	id.CodigoUF = inteiroOuZero(ide, "cUF")
	id.CodigoNF = texto(ide, "cNF")
	id.NaturezaOperacao = texto(ide, "natOp")
	id.IndicadorPagamento = inteiroOpcional(ide, "indPag")
	id.Modelo = inteiroOuZero(ide, "mod")
	id.TipoNF = inteiroOuZero(ide, "tpNF")
	id.CodigoMunicipioFG = texto(ide, "cMunFG")
	id.TipoImpressao = inteiroOuZero(ide, "tpImp")
	id.TipoEmissao = inteiroOuZero(ide, "tpEmis")
	id.DigitoVerificador = inteiroOuZero(ide, "cDV")
	id.Ambiente = inteiroOuZero(ide, "tpAmb")
	id.FinalidadeNF = inteiroOuZero(ide, "finNFe")
	id.ProcessoEmissao = inteiroOuZero(ide, "procEmi")
	id.VersaoProcesso = texto(ide, "verProc")

	if saida := texto(ide, "dhSaiEnt"); saida != "" {
		t, err := parseData(saida)
		if err != nil {
			return id, fmt.Errorf("%w: data de saída/entrada: %v", domain.ErrDocumentoMalformado, err)
		}
		id.DataSaidaEntrada = &t
	}
	return id, nil
}

func parseParte(el *etree.Element, tagEndereco string) *dto.ParteNFe {
	parte := &dto.ParteNFe{
		CNPJ:              texto(el, "CNPJ"),
		CPF:               texto(el, "CPF"),
		IDEstrangeiro:     texto(el, "idEstrangeiro"),
		Nome:              texto(el, "xNome"),
		NomeFantasia:      texto(el, "xFant"),
		InscricaoEstadual: texto(el, "IE"),
		Email:             texto(el, "email"),
		RegimeTributario:  inteiroOpcional(el, "CRT"),
	}
	if ender := el.FindElement(tagEndereco); ender != nil {
		parte.Endereco = parseEndereco(ender)
	}
	return parte
}

func parseEndereco(el *etree.Element) *dto.EnderecoNFe {
	return &dto.EnderecoNFe{
		Logradouro:      texto(el, "xLgr"),
		Numero:          texto(el, "nro"),
		Complemento:     texto(el, "xCpl"),
		Bairro:          texto(el, "xBairro"),
		CodigoMunicipio: texto(el, "cMun"),
		Municipio:       texto(el, "xMun"),
		UF:              texto(el, "UF"),
		CEP:             texto(el, "CEP"),
		CodigoPais:      texto(el, "cPais"),
		Pais:            texto(el, "xPais"),
		Telefone:        texto(el, "fone"),
	}
}

func parseItem(det *etree.Element, posicao int) (*dto.ItemNFe, error) {
	numero := posicao
	if n, err := strconv.Atoi(det.SelectAttrValue("nItem", "")); err == nil {
		numero = n
	}
	item := &dto.ItemNFe{NumeroItem: numero}

	prod := det.FindElement("prod")
	if prod == nil {
		return nil, fmt.Errorf("%w: item %d sem grupo prod", domain.ErrDocumentoMalformado, numero)
	}
	item.CodigoProduto = texto(prod, "cProd")
	item.GTIN = texto(prod, "cEAN")
	item.Descricao = texto(prod, "xProd")
	item.NCM = texto(prod, "NCM")
	item.CFOP = texto(prod, "CFOP")
	item.UnidadeComercial = texto(prod, "uCom")
	item.GTINTributavel = texto(prod, "cEANTrib")
	item.UnidadeTributavel = texto(prod, "uTrib")

	var err error
	if item.QuantidadeComercial, err = decimalObrigatorio(prod, "qCom", casasQuantidade, numero); err != nil {
		return nil, err
	}
	if item.ValorUnitarioComercial, err = decimalObrigatorio(prod, "vUnCom", casasQuantidade, numero); err != nil {
		return nil, err
	}
	if item.ValorTotalBruto, err = decimalObrigatorio(prod, "vProd", casasMoeda, numero); err != nil {
		return nil, err
	}
	item.QuantidadeTributavel = decimalOuZero(prod, "qTrib", casasQuantidade)
	item.ValorUnitarioTributavel = decimalOuZero(prod, "vUnTrib", casasQuantidade)

	if imposto := det.FindElement("imposto"); imposto != nil {
		parseImpostos(imposto, item)
	}
	return item, nil
}

// parseImpostos preenche apenas os blocos presentes no XML. Bloco ausente
// permanece nil: nenhuma linha de imposto será gerada para ele.
func parseImpostos(imposto *etree.Element, item *dto.ItemNFe) {
	if icms := imposto.FindElement("ICMS"); icms != nil {
		// O grupo ICMS embrulha exatamente um filho (ICMS00..ICMS90, CSOSN...).
		if grupo := primeiroFilho(icms); grupo != nil {
			cst := texto(grupo, "CST")
			if cst == "" {
				cst = texto(grupo, "CSOSN")
			}
			item.ICMS = &dto.ICMSNFe{
				Origem:              inteiroOpcional(grupo, "orig"),
				CST:                 cst,
				ModalidadeBC:        inteiroOpcional(grupo, "modBC"),
				BaseCalculo:         decimalOpcional(grupo, "vBC", casasMoeda),
				Aliquota:            decimalOpcional(grupo, "pICMS", casasMoeda),
				Valor:               decimalOpcional(grupo, "vICMS", casasMoeda),
				PercentualReducaoBC: decimalOpcional(grupo, "pRedBC", casasMoeda),
			}
		}
	}
	if ipi := imposto.FindElement("IPI"); ipi != nil {
		bloco := &dto.IPINFe{CodigoEnquadramento: texto(ipi, "cEnq")}
		if grupo := ipi.FindElement("IPITrib"); grupo != nil {
			bloco.CST = texto(grupo, "CST")
			bloco.BaseCalculo = decimalOpcional(grupo, "vBC", casasMoeda)
			bloco.Aliquota = decimalOpcional(grupo, "pIPI", casasMoeda)
			bloco.Valor = decimalOpcional(grupo, "vIPI", casasMoeda)
		} else if grupo := ipi.FindElement("IPINT"); grupo != nil {
			bloco.CST = texto(grupo, "CST")
		}
		item.IPI = bloco
	}
	if pis := imposto.FindElement("PIS"); pis != nil {
		if grupo := primeiroFilho(pis); grupo != nil {
			item.PIS = &dto.PISNFe{
				CST:         texto(grupo, "CST"),
				BaseCalculo: decimalOpcional(grupo, "vBC", casasMoeda),
				Aliquota:    decimalOpcional(grupo, "pPIS", casasMoeda),
				Valor:       decimalOpcional(grupo, "vPIS", casasMoeda),
			}
		}
	}
	if cofins := imposto.FindElement("COFINS"); cofins != nil {
		if grupo := primeiroFilho(cofins); grupo != nil {
			item.COFINS = &dto.COFINSNFe{
				CST:         texto(grupo, "CST"),
				BaseCalculo: decimalOpcional(grupo, "vBC", casasMoeda),
				Aliquota:    decimalOpcional(grupo, "pCOFINS", casasMoeda),
				Valor:       decimalOpcional(grupo, "vCOFINS", casasMoeda),
			}
		}
	}
}

func parseTotais(tot *etree.Element) (*dto.TotaisNFe, error) {
	valorNFe, err := decimalObrigatorio(tot, "vNF", casasMoeda, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: total vNF ausente", domain.ErrDocumentoMalformado)
	}
	return &dto.TotaisNFe{
		BaseCalculoICMS:   decimalOpcional(tot, "vBC", casasMoeda),
		ValorICMS:         decimalOpcional(tot, "vICMS", casasMoeda),
		BaseCalculoICMSST: decimalOpcional(tot, "vBCST", casasMoeda),
		ValorICMSST:       decimalOpcional(tot, "vST", casasMoeda),
		ValorProdutos:     decimalOuZero(tot, "vProd", casasMoeda),
		ValorFrete:        decimalOpcional(tot, "vFrete", casasMoeda),
		ValorSeguro:       decimalOpcional(tot, "vSeg", casasMoeda),
		ValorDesconto:     decimalOpcional(tot, "vDesc", casasMoeda),
		ValorII:           decimalOpcional(tot, "vII", casasMoeda),
		ValorIPI:          decimalOpcional(tot, "vIPI", casasMoeda),
		ValorPIS:          decimalOpcional(tot, "vPIS", casasMoeda),
		ValorCOFINS:       decimalOpcional(tot, "vCOFINS", casasMoeda),
		ValorOutros:       decimalOpcional(tot, "vOutro", casasMoeda),
		ValorTotalNFe:     valorNFe,
	}, nil
}

func parseTransporte(transp *etree.Element) *dto.TransporteNFe {
	t := &dto.TransporteNFe{ModalidadeFrete: inteiroOpcional(transp, "modFrete")}

	if transporta := transp.FindElement("transporta"); transporta != nil {
		parte := &dto.ParteNFe{
			CNPJ:              texto(transporta, "CNPJ"),
			CPF:               texto(transporta, "CPF"),
			Nome:              texto(transporta, "xNome"),
			InscricaoEstadual: texto(transporta, "IE"),
		}
		// O endereço da transportadora não é estruturado no layout (xEnder
		// livre); mantém-se como logradouro com o resto em branco.
		if ender := texto(transporta, "xEnder"); ender != "" || texto(transporta, "xMun") != "" {
			parte.Endereco = &dto.EnderecoNFe{
				Logradouro: ender,
				Municipio:  texto(transporta, "xMun"),
				UF:         texto(transporta, "UF"),
			}
		}
		t.Transportadora = parte
	}

	for _, vol := range transp.FindElements("vol") {
		volume := dto.VolumeNFe{
			Quantidade:  inteiroOpcional(vol, "qVol"),
			Especie:     texto(vol, "esp"),
			Marca:       texto(vol, "marca"),
			Numeracao:   texto(vol, "nVol"),
			PesoLiquido: decimalOpcional(vol, "pesoL", casasQuantidade),
			PesoBruto:   decimalOpcional(vol, "pesoB", casasQuantidade),
		}
		for _, lacre := range vol.FindElements("lacres") {
			if n := texto(lacre, "nLacre"); n != "" {
				volume.Lacres = append(volume.Lacres, n)
			}
		}
		t.Volumes = append(t.Volumes, volume)
	}

	// Lacres soltos, fora de qualquer volume.
	for _, lacre := range transp.FindElements("lacres") {
		if n := texto(lacre, "nLacre"); n != "" {
			t.Lacres = append(t.Lacres, n)
		}
	}

	if veic := transp.FindElement("veicTransp"); veic != nil {
		t.Veiculo = &dto.VeiculoNFe{
			Placa: texto(veic, "placa"),
			UF:    texto(veic, "UF"),
			RNTC:  texto(veic, "RNTC"),
		}
	}
	return t
}

// latinCharsetReader aceita as variantes Latin-1 comuns em notas antigas.
func latinCharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "":
		return input, nil
	}
	return nil, fmt.Errorf("charset não suportado: %s", charset)
}

// parseData aceita data-hora com offset (dhEmi) e data pura (layouts antigos).
func parseData(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("vazia")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("formato inválido: %q", s)
}

func primeiroFilho(el *etree.Element) *etree.Element {
	filhos := el.ChildElements()
	if len(filhos) == 0 {
		return nil
	}
	return filhos[0]
}

func texto(el *etree.Element, caminho string) string {
	if filho := el.FindElement(caminho); filho != nil {
		return strings.TrimSpace(filho.Text())
	}
	return ""
}

func inteiroObrigatorio(el *etree.Element, caminho string) (int, error) {
	n, err := strconv.Atoi(texto(el, caminho))
	if err != nil {
		return 0, fmt.Errorf("%w: campo %s ausente ou inválido", domain.ErrDocumentoMalformado, caminho)
	}
	return n, nil
}

func inteiroOuZero(el *etree.Element, caminho string) int {
	n, _ := strconv.Atoi(texto(el, caminho))
	return n
}

func inteiroOpcional(el *etree.Element, caminho string) *int {
	s := texto(el, caminho)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func decimalObrigatorio(el *etree.Element, caminho string, casas int32, numeroItem int) (decimal.Decimal, error) {
	s := texto(el, caminho)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: item %d campo %s ausente ou inválido",
			domain.ErrDocumentoMalformado, numeroItem, caminho)
	}
	return d.Round(casas), nil
}

func decimalOuZero(el *etree.Element, caminho string, casas int32) decimal.Decimal {
	d, err := decimal.NewFromString(texto(el, caminho))
	if err != nil {
		return decimal.Zero.Round(casas)
	}
	return d.Round(casas)
}

func decimalOpcional(el *etree.Element, caminho string, casas int32) decimal.NullDecimal {
	s := texto(el, caminho)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d.Round(casas), Valid: true}
}
