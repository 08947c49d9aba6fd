package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brfiscal/nfe-ingest/internal/domain"
)

// classificarErroCarga traduz violações de integridade (SQLSTATE classe 23:
// unique, foreign key, check, not null) em domain.ErrCargaFalhou, que marca a
// carga como rejeição de dado. Qualquer outro erro (conexão caída, timeout,
// begin/commit) passa intocado e é tratado como falha de infraestrutura,
// deixando o documento elegível para nova tentativa.
func classificarErroCarga(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %v", domain.ErrCargaFalhou, err)
	}
	return err
}

// nullIfEmpty converte string vazia em NULL no bind.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
