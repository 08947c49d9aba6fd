package entity

import "time"

// Status da nota. Espelha o último registro de processamento (coluna de
// conveniência; o histórico completo vive em processamento_nfe).
const (
	StatusPendente   = "PENDENTE"   // carga ainda não concluída
	StatusProcessada = "PROCESSADA" // carga concluída com sucesso
	StatusFalha      = "FALHA"      // última tentativa falhou; retentável
)

// NotaFiscal cabeçalho de uma NF-e, uma linha por chave de acesso.
// Imutável após a primeira carga bem-sucedida, exceto AtualizadoEm em
// reprocessamentos da mesma chave.
type NotaFiscal struct {
	ID                 int64
	ChaveAcesso        string // 44 dígitos, âncora de idempotência
	Versao             string
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
	Status             string
	CriadoEm           time.Time
	AtualizadoEm       time.Time
}

// InformacoesAdicionais texto livre do contribuinte e do fisco.
type InformacoesAdicionais struct {
	InfoContribuinte string
	InfoFisco        string
}
