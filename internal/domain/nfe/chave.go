// Package nfe: regras puras da chave de acesso da NF-e (Manual de Orientação
// do Contribuinte). A chave tem 44 dígitos; o último é o dígito verificador
// calculado por módulo 11 com pesos 2..9 aplicados da direita para a esquerda.
package nfe

import (
	"fmt"
	"strconv"
)

// TamanhoChave é o comprimento fixo da chave de acesso.
const TamanhoChave = 44

// Chave é a chave de acesso validada de uma NF-e.
type Chave string

// NovaChave valida a estrutura da chave e devolve o valor tipado.
func NovaChave(s string) (Chave, error) {
	if err := Validar(s); err != nil {
		return "", err
	}
	return Chave(s), nil
}

// String devolve a chave como texto.
func (c Chave) String() string { return string(c) }

// Validar verifica comprimento, composição numérica e dígito verificador.
func Validar(s string) error {
	if len(s) != TamanhoChave {
		return fmt.Errorf("chave deve ter %d dígitos, tem %d", TamanhoChave, len(s))
	}
	for i, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("chave contém caractere não numérico na posição %d", i+1)
		}
	}
	dv := DigitoVerificador(s[:TamanhoChave-1])
	if byte(dv)+'0' != s[TamanhoChave-1] {
		return fmt.Errorf("dígito verificador inválido: esperado %d", dv)
	}
	return nil
}

// DigitoVerificador calcula o DV (módulo 11) dos 43 primeiros dígitos.
// Pesos 2..9 em ciclo, a partir do dígito mais à direita. Resto 0 ou 1 => DV 0.
func DigitoVerificador(base43 string) int {
	peso := 2
	soma := 0
	for i := len(base43) - 1; i >= 0; i-- {
		soma += int(base43[i]-'0') * peso
		peso++
		if peso > 9 {
			peso = 2
		}
	}
	resto := soma % 11
	if resto < 2 {
		return 0
	}
	return 11 - resto
}

// Componentes da chave, nas posições definidas pelo layout oficial:
// cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1).

// CodigoUF devolve o código IBGE da UF do emitente.
func (c Chave) CodigoUF() int { return c.trecho(0, 2) }

// AnoMes devolve AAMM da emissão.
func (c Chave) AnoMes() string { return string(c)[2:6] }

// CNPJEmitente devolve o CNPJ do emitente embutido na chave.
func (c Chave) CNPJEmitente() string { return string(c)[6:20] }

// Modelo devolve o modelo do documento fiscal (55 para NF-e).
func (c Chave) Modelo() int { return c.trecho(20, 22) }

// Serie devolve a série da nota.
func (c Chave) Serie() int { return c.trecho(22, 25) }

// Numero devolve o número da nota.
func (c Chave) Numero() int { return c.trecho(25, 34) }

// TipoEmissao devolve o tpEmis embutido na chave.
func (c Chave) TipoEmissao() int { return c.trecho(34, 35) }

// CodigoNumerico devolve o cNF (código numérico aleatório).
func (c Chave) CodigoNumerico() string { return string(c)[35:43] }

// DV devolve o dígito verificador.
func (c Chave) DV() int { return c.trecho(43, 44) }

func (c Chave) trecho(ini, fim int) int {
	n, _ := strconv.Atoi(string(c)[ini:fim])
	return n
}
