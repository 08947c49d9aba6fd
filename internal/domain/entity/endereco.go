package entity

// Discriminador do endereço generalizado.
const (
	TipoEnderecoPrincipal = "PRINCIPAL" // pertence a uma pessoa
	TipoEnderecoRetirada  = "RETIRADA"  // pertence diretamente à nota
	TipoEnderecoEntrega   = "ENTREGA"   // pertence diretamente à nota
)

// Endereco registro de localização generalizado. O dono é exatamente um:
// a pessoa (PRINCIPAL) ou a nota (RETIRADA/ENTREGA) — nunca ambos.
type Endereco struct {
	ID              int64
	Tipo            string
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
