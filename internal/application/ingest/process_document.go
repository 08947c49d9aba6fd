package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
	"github.com/brfiscal/nfe-ingest/pkg/logger"
)

// ProcessarDocumentoUseCase orquestra o pipeline de um documento:
// parse -> normalização -> carga transacional -> registro de processamento.
// Idempotente por chave de acesso: chamadas repetidas com os mesmos bytes
// convergem para o mesmo estado final.
type ProcessarDocumentoUseCase struct {
	parser            Parser
	txRunner          TxRunner
	processamentoRepo repository.ProcessamentoRepository
	log               *logger.Logger
}

// NewProcessarDocumentoUseCase constrói o caso de uso.
func NewProcessarDocumentoUseCase(
	parser Parser,
	txRunner TxRunner,
	processamentoRepo repository.ProcessamentoRepository,
	log *logger.Logger,
) *ProcessarDocumentoUseCase {
	return &ProcessarDocumentoUseCase{
		parser:            parser,
		txRunner:          txRunner,
		processamentoRepo: processamentoRepo,
		log:               log,
	}
}

// Processar executa o pipeline para um documento bruto. Falhas de dado
// (documento malformado, normalização, ErrCargaFalhou) viram resultado FALHA
// com registro de processamento. O erro retornado é reservado para falhas de
// infraestrutura (conexão, transação, não conseguir gravar a auditoria):
// nesses casos nenhum veredito é emitido e o documento pode ser
// reapresentado.
func (uc *ProcessarDocumentoUseCase) Processar(ctx context.Context, raw []byte) (*dto.ResultadoProcessamento, error) {
	doc, err := uc.parser.Parse(raw)
	if err != nil {
		return uc.falha("", nil, raw, nil, err)
	}
	chave := doc.ChaveAcesso

	grafo, err := Normalizar(doc)
	if err != nil {
		return uc.falha(chave, nil, raw, nil, err)
	}

	// Snapshot normalizado para replay forense; structs sem mapas geram
	// JSON determinístico.
	payload, err := json.Marshal(grafo)
	if err != nil {
		return nil, fmt.Errorf("serializar grafo: %w", err)
	}

	err = uc.txRunner.Run(ctx, func(
		pessoaRepo repository.PessoaRepository,
		notaRepo repository.NotaFiscalRepository,
		itemRepo repository.ItemRepository,
		transporteRepo repository.TransporteRepository,
	) error {
		return carregarGrafo(grafo, pessoaRepo, notaRepo, itemRepo, transporteRepo)
	})

	if errors.Is(err, domain.ErrChaveDuplicada) {
		// Corrida benigna: outro escritor carregou a mesma chave. A nota está
		// persistida; registra-se a tentativa e segue-se como processada.
		uc.log.Info().Str("chave", chave).Msg("chave já carregada por outro escritor")
		if err := uc.registrar(chave, nil, entity.ProcessamentoSucesso,
			"chave já processada por carga concorrente", raw, payload); err != nil {
			return nil, err
		}
		return &dto.ResultadoProcessamento{
			Status:      entity.StatusProcessada,
			ChaveAcesso: chave,
			Motivo:      "chave já processada",
		}, nil
	}
	if errors.Is(err, domain.ErrCargaFalhou) {
		return uc.falha(chave, nil, raw, payload, err)
	}
	if err != nil {
		// Falha de infraestrutura (conexão, begin/commit): não é veredito
		// sobre o documento. Nada é registrado como FALHA e o chamador pode
		// reapresentar os mesmos bytes depois.
		return nil, fmt.Errorf("carga da nota %s: %w", chave, err)
	}

	notaID := grafo.Nota.ID
	if err := uc.registrar(chave, &notaID, entity.ProcessamentoSucesso,
		"nota processada com sucesso", raw, payload); err != nil {
		return nil, err
	}
	uc.log.Info().Str("chave", chave).Int64("nota_id", notaID).Msg("nota processada")

	return &dto.ResultadoProcessamento{
		Status:      entity.StatusProcessada,
		ChaveAcesso: chave,
	}, nil
}

// falha registra a tentativa malsucedida e devolve o resultado FALHA.
func (uc *ProcessarDocumentoUseCase) falha(
	chave string,
	notaID *int64,
	raw, payload []byte,
	causa error,
) (*dto.ResultadoProcessamento, error) {
	uc.log.Warn().Str("chave", chave).Err(causa).Msg("falha ao processar documento")
	if err := uc.registrar(chave, notaID, entity.ProcessamentoFalha, causa.Error(), raw, payload); err != nil {
		return nil, err
	}
	return &dto.ResultadoProcessamento{
		Status:      entity.StatusFalha,
		ChaveAcesso: chave,
		Motivo:      causa.Error(),
	}, nil
}

// registrar grava o registro append-only da tentativa, fora da transação de
// carga: o rastro existe mesmo quando a carga reverteu.
func (uc *ProcessarDocumentoUseCase) registrar(
	chave string,
	notaID *int64,
	status, mensagem string,
	raw, payload []byte,
) error {
	p := &entity.Processamento{
		ID:                 uuid.New().String(),
		NotaFiscalID:       notaID,
		ChaveAcesso:        chave,
		Status:             status,
		Mensagem:           mensagem,
		XMLOriginal:        string(raw),
		PayloadNormalizado: payload,
		ProcessadoEm:       time.Now().UTC(),
	}
	if err := uc.processamentoRepo.Registrar(p); err != nil {
		return fmt.Errorf("registrar processamento: %w", err)
	}
	return nil
}
