package dto

import "time"

// ResultadoProcessamento resposta da operação processar-documento. Falhas de
// dado (parse, normalização, constraint) são resultado, não erro: o lote nunca
// para por causa de um documento ruim.
type ResultadoProcessamento struct {
	Status      string `json:"status"`       // PROCESSADA ou FALHA
	ChaveAcesso string `json:"chave_acesso"` // vazia se o parse não extraiu a chave
	Motivo      string `json:"motivo,omitempty"`
}

// StatusProcessamentoResponse último registro de processamento de uma chave,
// consumido pelo agendador para decidir entre pular, repetir ou recarregar.
type StatusProcessamentoResponse struct {
	ChaveAcesso  string    `json:"chave_acesso"`
	Status       string    `json:"status"`
	Mensagem     string    `json:"mensagem,omitempty"`
	ProcessadoEm time.Time `json:"processado_em"`
	Tentativas   int       `json:"tentativas"`
}

// NotaResumoResponse linha da listagem resumida de notas.
type NotaResumoResponse struct {
	ChaveAcesso       string    `json:"chave_acesso"`
	Numero            int       `json:"numero"`
	Serie             int       `json:"serie"`
	DataEmissao       time.Time `json:"data_emissao"`
	NaturezaOperacao  string    `json:"natureza_operacao"`
	Status            string    `json:"status"`
	EmitenteNome      string    `json:"emitente_nome"`
	EmitenteDocumento string    `json:"emitente_documento"`
	DestinatarioNome  string    `json:"destinatario_nome"`
	ValorTotal        string    `json:"valor_total,omitempty"`
}
