package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	// ErrDocumentoMalformado documento sem os campos obrigatórios ou com chave de acesso inválida.
	// Não é retentável sem corrigir o arquivo de origem.
	ErrDocumentoMalformado = errors.New("documento malformado")
	// ErrIdentidadeAmbigua a pessoa do documento traz mais de um identificador (CNPJ e CPF ao mesmo tempo).
	ErrIdentidadeAmbigua = errors.New("identidade ambígua")
	// ErrIdentidadeAusente a pessoa do documento não traz nenhum identificador.
	ErrIdentidadeAusente = errors.New("identidade ausente")
	// ErrCargaFalhou violação de constraint durante a gravação; a transação inteira é revertida.
	ErrCargaFalhou = errors.New("carga da nota falhou")
	// ErrChaveDuplicada outra carga da mesma chave de acesso já concluiu ou está em andamento.
	// Benigno: a nota já está (ou estará) persistida por outro escritor.
	ErrChaveDuplicada = errors.New("chave de acesso duplicada")
	// ErrNotaNaoEncontrada consulta por chave ou id sem resultado.
	ErrNotaNaoEncontrada = errors.New("nota fiscal não encontrada")
)
