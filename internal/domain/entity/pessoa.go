package entity

// Papéis que uma pessoa pode exercer em uma nota.
const (
	TipoPessoaEmitente       = "EMITENTE"
	TipoPessoaDestinatario   = "DESTINATARIO"
	TipoPessoaTransportadora = "TRANSPORTADORA"
)

// Métodos de identificação mutuamente exclusivos.
const (
	IdentidadeCNPJ        = "CNPJ"           // pessoa jurídica
	IdentidadeCPF         = "CPF"            // pessoa física
	IdentidadeEstrangeiro = "ID_ESTRANGEIRO" // destinatário no exterior
)

// Identidade é o identificador único da pessoa: exatamente um tipo, um valor.
// A exclusão mútua CNPJ/CPF/idEstrangeiro é garantida na normalização; aqui o
// tipo já vem resolvido.
type Identidade struct {
	Tipo  string
	Valor string
}

// Pessoa representa emitente, destinatário ou transportadora de forma
// generalizada. Uma mesma pessoa pode ser referenciada por várias notas.
type Pessoa struct {
	ID                int64
	Tipo              string // EMITENTE, DESTINATARIO, TRANSPORTADORA
	Identidade        Identidade
	Nome              string
	NomeFantasia      string
	InscricaoEstadual string
	Email             string
	RegimeTributario  *int // CRT do emitente; nil quando o papel não o informa
	EnderecoPrincipal *Endereco
}
