package ingest

import (
	"context"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

// Parser porta do extrator de documentos: bytes brutos -> árvore tipada.
type Parser interface {
	Parse(raw []byte) (*dto.DocumentoNFe, error)
}

// TxRunner executa fn dentro de uma transação com repositórios atados à tx.
// fn devolvendo erro provoca rollback; a carga é tudo-ou-nada por documento.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		pessoaRepo repository.PessoaRepository,
		notaRepo repository.NotaFiscalRepository,
		itemRepo repository.ItemRepository,
		transporteRepo repository.TransporteRepository,
	) error) error
}
