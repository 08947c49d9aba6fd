package entity

import "time"

// Resultado de uma tentativa de processamento.
const (
	ProcessamentoSucesso = "SUCESSO"
	ProcessamentoFalha   = "FALHA"
)

// Processamento registro de auditoria de uma tentativa de carga. Append-only:
// uma linha por tentativa, nunca alterada nem removida. Guarda os snapshots
// bruto e normalizado para replay forense.
type Processamento struct {
	ID                 string // uuid
	NotaFiscalID       *int64 // nil quando a falha ocorreu antes da nota existir
	ChaveAcesso        string // vazia quando o parse não chegou a extrair a chave
	Status             string // SUCESSO, FALHA
	Mensagem           string
	XMLOriginal        string
	PayloadNormalizado []byte // grafo normalizado em JSON; nil em falha de parse
	ProcessadoEm       time.Time
}
