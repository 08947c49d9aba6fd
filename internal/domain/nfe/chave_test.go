package nfe_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brfiscal/nfe-ingest/internal/domain/nfe"
)

// Chaves montadas pelo layout oficial com DV calculado manualmente (módulo 11):
//
//	cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1)
const (
	chaveValidaSP = "35230112345678000199550010000001011123456780" // DV 0
	chaveValidaRS = "43240698765432000188550020000043211876543216" // DV 6
)

func TestValidar_ChavesConhecidas(t *testing.T) {
	require.NoError(t, nfe.Validar(chaveValidaSP))
	require.NoError(t, nfe.Validar(chaveValidaRS))
}

func TestValidar_DVIncorreto(t *testing.T) {
	// Troca apenas o último dígito: o DV deixa de bater.
	alterada := chaveValidaSP[:43] + "5"
	err := nfe.Validar(alterada)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dígito verificador")
}

func TestValidar_ComprimentoErrado(t *testing.T) {
	require.Error(t, nfe.Validar(chaveValidaSP[:43]))
	require.Error(t, nfe.Validar(chaveValidaSP+"0"))
	require.Error(t, nfe.Validar(""))
}

func TestValidar_CaractereNaoNumerico(t *testing.T) {
	alterada := strings.Replace(chaveValidaSP, "3", "X", 1)
	err := nfe.Validar(alterada)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "não numérico")
}

func TestDigitoVerificador_RestoMenorQueDois(t *testing.T) {
	// chaveValidaSP foi escolhida com resto < 2 => DV 0.
	assert.Equal(t, 0, nfe.DigitoVerificador(chaveValidaSP[:43]))
	assert.Equal(t, 6, nfe.DigitoVerificador(chaveValidaRS[:43]))
}

func TestChave_Componentes(t *testing.T) {
	c, err := nfe.NovaChave(chaveValidaSP)
	require.NoError(t, err)

	assert.Equal(t, 35, c.CodigoUF())
	assert.Equal(t, "2301", c.AnoMes())
	assert.Equal(t, "12345678000199", c.CNPJEmitente())
	assert.Equal(t, 55, c.Modelo())
	assert.Equal(t, 1, c.Serie())
	assert.Equal(t, 101, c.Numero())
	assert.Equal(t, 1, c.TipoEmissao())
	assert.Equal(t, "12345678", c.CodigoNumerico())
	assert.Equal(t, 0, c.DV())
}
