package ingest

import (
	"fmt"

	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

// carregarGrafo grava o grafo completo em ordem de chave estrangeira:
// pessoas -> nota -> vínculos -> endereços -> itens/impostos -> transporte ->
// totais -> infAdic. Chamado dentro de uma transação; qualquer erro reverte
// tudo. Ao retornar sem erro, grafo.Nota.ID está preenchido.
func carregarGrafo(
	grafo *entity.Grafo,
	pessoaRepo repository.PessoaRepository,
	notaRepo repository.NotaFiscalRepository,
	itemRepo repository.ItemRepository,
	transporteRepo repository.TransporteRepository,
) error {
	if err := upsertPessoa(pessoaRepo, &grafo.Emitente); err != nil {
		return err
	}
	if err := upsertPessoa(pessoaRepo, &grafo.Destinatario); err != nil {
		return err
	}
	if grafo.Transporte != nil && grafo.Transporte.Transportadora != nil {
		if err := upsertPessoa(pessoaRepo, grafo.Transporte.Transportadora); err != nil {
			return err
		}
	}

	// O FOR UPDATE serializa cargas concorrentes da mesma chave: a segunda
	// espera a primeira terminar e então enxerga a nota já criada.
	existente, err := notaRepo.BuscarPorChaveParaCarga(grafo.Nota.ChaveAcesso)
	if err != nil {
		return err
	}
	if existente != nil {
		// Reprocessamento: identidade e criado_em preservados, dependentes
		// substituídos por inteiro.
		grafo.Nota.ID = existente.ID
		grafo.Nota.CriadoEm = existente.CriadoEm
		if err := notaRepo.RemoverDependentes(existente.ID); err != nil {
			return err
		}
		if err := notaRepo.AtualizarReprocessada(&grafo.Nota); err != nil {
			return err
		}
	} else if err := notaRepo.Criar(&grafo.Nota); err != nil {
		// ErrChaveDuplicada sobe intacto: outro escritor venceu a corrida.
		return err
	}
	notaID := grafo.Nota.ID

	if err := notaRepo.VincularPessoa(notaID, grafo.Emitente.ID, entity.TipoPessoaEmitente); err != nil {
		return err
	}
	if err := notaRepo.VincularPessoa(notaID, grafo.Destinatario.ID, entity.TipoPessoaDestinatario); err != nil {
		return err
	}

	for i := range grafo.EnderecosNota {
		if err := notaRepo.CriarEnderecoNota(notaID, &grafo.EnderecosNota[i]); err != nil {
			return err
		}
	}

	for i := range grafo.Itens {
		if err := itemRepo.Criar(notaID, &grafo.Itens[i]); err != nil {
			return fmt.Errorf("item %d: %w", grafo.Itens[i].NumeroItem, err)
		}
	}

	if grafo.Transporte != nil {
		if err := transporteRepo.Criar(notaID, grafo.Transporte); err != nil {
			return err
		}
	}

	if grafo.Totais != nil {
		if err := notaRepo.CriarTotais(notaID, grafo.Totais); err != nil {
			return err
		}
	}

	if grafo.InfAdicionais != nil {
		if err := notaRepo.CriarInformacoesAdicionais(notaID, grafo.InfAdicionais); err != nil {
			return err
		}
	}

	grafo.Nota.Status = entity.StatusProcessada
	return notaRepo.AtualizarStatus(notaID, entity.StatusProcessada)
}

// upsertPessoa grava (ou reusa) a pessoa pela identidade e o endereço
// PRINCIPAL apenas na criação, para não duplicá-lo entre notas da mesma pessoa.
func upsertPessoa(repo repository.PessoaRepository, pessoa *entity.Pessoa) error {
	criada, err := repo.UpsertPorIdentidade(pessoa)
	if err != nil {
		return fmt.Errorf("pessoa %s: %w", pessoa.Tipo, err)
	}
	if criada && pessoa.EnderecoPrincipal != nil {
		if err := repo.CriarEnderecoPrincipal(pessoa.ID, pessoa.EnderecoPrincipal); err != nil {
			return fmt.Errorf("endereço de %s: %w", pessoa.Tipo, err)
		}
	}
	return nil
}
