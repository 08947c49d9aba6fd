package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brfiscal/nfe-ingest/internal/domain"
)

func TestClassificarErroCarga_ViolacaoDeIntegridade(t *testing.T) {
	casos := map[string]string{
		"unique":      "23505",
		"foreign key": "23503",
		"check":       "23514",
		"not null":    "23502",
	}
	for nome, codigo := range casos {
		t.Run(nome, func(t *testing.T) {
			origem := fmt.Errorf("insert item: %w", &pgconn.PgError{Code: codigo, Message: "violação"})
			err := classificarErroCarga(origem)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCargaFalhou)
		})
	}
}

func TestClassificarErroCarga_InfraestruturaPassaIntocada(t *testing.T) {
	// Conexão caída e transação abortada não são rejeições de dado.
	casos := []error{
		errors.New("commit transaction: dial tcp: connection refused"),
		fmt.Errorf("buscar pessoa: %w", &pgconn.PgError{Code: "25P02", Message: "current transaction is aborted"}),
	}
	for _, origem := range casos {
		err := classificarErroCarga(origem)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrCargaFalhou)
		assert.Equal(t, origem, err)
	}
}

func TestClassificarErroCarga_Nil(t *testing.T) {
	assert.NoError(t, classificarErroCarga(nil))
}
