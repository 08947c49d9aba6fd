package ingest_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brfiscal/nfe-ingest/internal/application/dto"
	"github.com/brfiscal/nfe-ingest/internal/application/ingest"
	"github.com/brfiscal/nfe-ingest/internal/domain"
	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
	"github.com/brfiscal/nfe-ingest/pkg/logger"
)

// ---------------------------------------------------------------------------
// Fakes em memória
// ---------------------------------------------------------------------------

type fakeParser struct {
	doc *dto.DocumentoNFe
	err error
}

func (p *fakeParser) Parse(raw []byte) (*dto.DocumentoNFe, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.doc, nil
}

type fakePessoaRepo struct {
	porIdentidade map[entity.Identidade]int64
	seq           int64
	enderecos     int
}

func newFakePessoaRepo() *fakePessoaRepo {
	return &fakePessoaRepo{porIdentidade: map[entity.Identidade]int64{}}
}

func (r *fakePessoaRepo) UpsertPorIdentidade(p *entity.Pessoa) (bool, error) {
	if id, ok := r.porIdentidade[p.Identidade]; ok {
		p.ID = id
		return false, nil
	}
	r.seq++
	r.porIdentidade[p.Identidade] = r.seq
	p.ID = r.seq
	return true, nil
}

func (r *fakePessoaRepo) CriarEnderecoPrincipal(pessoaID int64, end *entity.Endereco) error {
	r.enderecos++
	return nil
}

func (r *fakePessoaRepo) BuscarPorIdentidade(id entity.Identidade) (*entity.Pessoa, error) {
	return nil, nil
}

type fakeNotaRepo struct {
	porChave          map[string]*entity.NotaFiscal
	seq               int64
	removeDependentes int
	vinculos          map[int64][]string
	totais            int
	forcarDuplicada   bool
}

func newFakeNotaRepo() *fakeNotaRepo {
	return &fakeNotaRepo{porChave: map[string]*entity.NotaFiscal{}, vinculos: map[int64][]string{}}
}

func (r *fakeNotaRepo) BuscarPorChaveParaCarga(chave string) (*entity.NotaFiscal, error) {
	if n, ok := r.porChave[chave]; ok {
		copia := *n
		return &copia, nil
	}
	return nil, nil
}

func (r *fakeNotaRepo) Criar(nota *entity.NotaFiscal) error {
	if r.forcarDuplicada {
		return domain.ErrChaveDuplicada
	}
	r.seq++
	nota.ID = r.seq
	copia := *nota
	r.porChave[nota.ChaveAcesso] = &copia
	return nil
}

func (r *fakeNotaRepo) AtualizarReprocessada(nota *entity.NotaFiscal) error {
	copia := *nota
	r.porChave[nota.ChaveAcesso] = &copia
	return nil
}

func (r *fakeNotaRepo) RemoverDependentes(notaID int64) error {
	r.removeDependentes++
	delete(r.vinculos, notaID)
	return nil
}

func (r *fakeNotaRepo) VincularPessoa(notaID, pessoaID int64, tipoRelacao string) error {
	r.vinculos[notaID] = append(r.vinculos[notaID], tipoRelacao)
	return nil
}

func (r *fakeNotaRepo) CriarEnderecoNota(notaID int64, end *entity.Endereco) error { return nil }

func (r *fakeNotaRepo) CriarTotais(notaID int64, t *entity.Totais) error {
	r.totais++
	return nil
}

func (r *fakeNotaRepo) CriarInformacoesAdicionais(notaID int64, i *entity.InformacoesAdicionais) error {
	return nil
}

func (r *fakeNotaRepo) AtualizarStatus(notaID int64, status string) error {
	for _, n := range r.porChave {
		if n.ID == notaID {
			n.Status = status
		}
	}
	return nil
}

type fakeItemRepo struct {
	porNota map[int64][]entity.Item
}

func (r *fakeItemRepo) Criar(notaID int64, item *entity.Item) error {
	for _, imp := range item.Impostos {
		completa := false
		switch v := imp.(type) {
		case entity.ImpostoICMS:
			completa = v.Completa()
		case entity.ImpostoIPI:
			completa = v.Completa()
		case entity.ImpostoPIS:
			completa = v.Completa()
		case entity.ImpostoCOFINS:
			completa = v.Completa()
		}
		if !completa {
			return fmt.Errorf("%w: imposto %s do item %d incompleto",
				domain.ErrCargaFalhou, imp.TipoImposto(), item.NumeroItem)
		}
	}
	r.porNota[notaID] = append(r.porNota[notaID], *item)
	return nil
}

type fakeTransporteRepo struct {
	criados int
}

func (r *fakeTransporteRepo) Criar(notaID int64, t *entity.Transporte) error {
	r.criados++
	return nil
}

type fakeProcessamentoRepo struct {
	registros []*entity.Processamento
}

func (r *fakeProcessamentoRepo) Registrar(p *entity.Processamento) error {
	copia := *p
	r.registros = append(r.registros, &copia)
	return nil
}

func (r *fakeProcessamentoRepo) UltimoStatus(chave string) (*entity.Processamento, error) {
	var ultimo *entity.Processamento
	for _, p := range r.registros {
		if p.ChaveAcesso == chave {
			ultimo = p
		}
	}
	if ultimo == nil {
		return nil, domain.ErrNotaNaoEncontrada
	}
	return ultimo, nil
}

func (r *fakeProcessamentoRepo) ListarPorChave(chave string) ([]*entity.Processamento, error) {
	var lista []*entity.Processamento
	for _, p := range r.registros {
		if p.ChaveAcesso == chave {
			lista = append(lista, p)
		}
	}
	return lista, nil
}

// fakeTxRunner executa o callback direto, sem transação real. forcarErro
// simula a transação falhando antes de chegar ao callback.
type fakeTxRunner struct {
	pessoaRepo     *fakePessoaRepo
	notaRepo       *fakeNotaRepo
	itemRepo       *fakeItemRepo
	transporteRepo *fakeTransporteRepo
	forcarErro     error
}

func newFakeTxRunner() *fakeTxRunner {
	return &fakeTxRunner{
		pessoaRepo:     newFakePessoaRepo(),
		notaRepo:       newFakeNotaRepo(),
		itemRepo:       &fakeItemRepo{porNota: map[int64][]entity.Item{}},
		transporteRepo: &fakeTransporteRepo{},
	}
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	pessoaRepo repository.PessoaRepository,
	notaRepo repository.NotaFiscalRepository,
	itemRepo repository.ItemRepository,
	transporteRepo repository.TransporteRepository,
) error) error {
	if r.forcarErro != nil {
		return r.forcarErro
	}
	return fn(r.pessoaRepo, r.notaRepo, r.itemRepo, r.transporteRepo)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// ---------------------------------------------------------------------------
// Testes
// ---------------------------------------------------------------------------

func TestProcessar_Sucesso(t *testing.T) {
	doc := documentoBase()
	runner := newFakeTxRunner()
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusProcessada, resultado.Status)
	assert.Equal(t, doc.ChaveAcesso, resultado.ChaveAcesso)
	assert.Empty(t, resultado.Motivo)

	nota := runner.notaRepo.porChave[doc.ChaveAcesso]
	require.NotNil(t, nota)
	assert.Equal(t, entity.StatusProcessada, nota.Status)
	assert.Equal(t, []string{"EMITENTE", "DESTINATARIO"}, runner.notaRepo.vinculos[nota.ID])
	assert.Len(t, runner.itemRepo.porNota[nota.ID], 1)
	assert.Len(t, runner.pessoaRepo.porIdentidade, 2)

	require.Len(t, procRepo.registros, 1)
	reg := procRepo.registros[0]
	assert.Equal(t, entity.ProcessamentoSucesso, reg.Status)
	assert.Equal(t, doc.ChaveAcesso, reg.ChaveAcesso)
	require.NotNil(t, reg.NotaFiscalID)
	assert.Equal(t, nota.ID, *reg.NotaFiscalID)
	assert.NotEmpty(t, reg.PayloadNormalizado)
}

func TestProcessar_IdempotentePorChave(t *testing.T) {
	doc := documentoBase()
	runner := newFakeTxRunner()
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	primeiro, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)
	idOriginal := runner.notaRepo.porChave[doc.ChaveAcesso].ID
	criadoEm := runner.notaRepo.porChave[doc.ChaveAcesso].CriadoEm

	segundo, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, primeiro.Status, segundo.Status)
	// Mesma chave converge para a mesma nota: id e criado_em preservados,
	// dependentes substituídos
	assert.Equal(t, idOriginal, runner.notaRepo.porChave[doc.ChaveAcesso].ID)
	assert.Equal(t, criadoEm, runner.notaRepo.porChave[doc.ChaveAcesso].CriadoEm)
	assert.Equal(t, 1, runner.notaRepo.removeDependentes)
	// Pessoas não se duplicam; endereço principal gravado só na criação
	assert.Len(t, runner.pessoaRepo.porIdentidade, 2)
	assert.Equal(t, 1, runner.pessoaRepo.enderecos)
	// Uma linha de processamento por tentativa
	assert.Len(t, procRepo.registros, 2)
}

func TestProcessar_FalhaDeParse(t *testing.T) {
	runner := newFakeTxRunner()
	procRepo := &fakeProcessamentoRepo{}
	parser := &fakeParser{err: fmt.Errorf("%w: xml inválido", domain.ErrDocumentoMalformado)}
	uc := ingest.NewProcessarDocumentoUseCase(parser, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("lixo"))
	require.NoError(t, err, "falha de dado é resultado, não erro")

	assert.Equal(t, entity.StatusFalha, resultado.Status)
	assert.Empty(t, resultado.ChaveAcesso)
	assert.Contains(t, resultado.Motivo, "xml inválido")

	// A tentativa fica registrada mesmo sem chave, com o XML bruto preservado
	require.Len(t, procRepo.registros, 1)
	assert.Equal(t, entity.ProcessamentoFalha, procRepo.registros[0].Status)
	assert.Equal(t, "lixo", procRepo.registros[0].XMLOriginal)
	assert.Nil(t, procRepo.registros[0].NotaFiscalID)
}

func TestProcessar_FalhaDeNormalizacao(t *testing.T) {
	doc := documentoBase()
	doc.Emitente.CPF = "98765432100" // identidade ambígua
	runner := newFakeTxRunner()
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFalha, resultado.Status)
	assert.Equal(t, doc.ChaveAcesso, resultado.ChaveAcesso)
	assert.Empty(t, runner.notaRepo.porChave)
	require.Len(t, procRepo.registros, 1)
	assert.Equal(t, entity.ProcessamentoFalha, procRepo.registros[0].Status)
}

func TestProcessar_ImpostoIncompletoReverteCarga(t *testing.T) {
	doc := documentoBase()
	doc.Itens[0].ICMS.Valor.Valid = false // base e alíquota presentes, valor não
	runner := newFakeTxRunner()
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFalha, resultado.Status)
	assert.Contains(t, resultado.Motivo, "ICMS")
	require.Len(t, procRepo.registros, 1)
	assert.Equal(t, entity.ProcessamentoFalha, procRepo.registros[0].Status)
}

func TestProcessar_ChaveDuplicadaEhBenigna(t *testing.T) {
	doc := documentoBase()
	runner := newFakeTxRunner()
	runner.notaRepo.forcarDuplicada = true // outro escritor venceu a corrida
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusProcessada, resultado.Status)
	assert.Equal(t, "chave já processada", resultado.Motivo)
	require.Len(t, procRepo.registros, 1)
	assert.Equal(t, entity.ProcessamentoSucesso, procRepo.registros[0].Status)
}

func TestProcessar_ErroDeInfraestruturaNaoEhVeredito(t *testing.T) {
	doc := documentoBase()
	runner := newFakeTxRunner()
	runner.forcarErro = fmt.Errorf("commit transaction: dial tcp 10.0.0.5:5432: connection refused")
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))

	// Banco fora do ar não é rejeição do documento: sobe como erro, sem
	// resultado FALHA e sem registro de processamento, para que os mesmos
	// bytes sejam reapresentados depois.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, resultado)
	assert.Empty(t, procRepo.registros)
}

func TestProcessar_ViolacaoDeConstraintViraFalha(t *testing.T) {
	doc := documentoBase()
	runner := newFakeTxRunner()
	runner.forcarErro = fmt.Errorf("%w: violação de constraint item_nfe_numero_unico",
		domain.ErrCargaFalhou)
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFalha, resultado.Status)
	assert.Contains(t, resultado.Motivo, "item_nfe_numero_unico")
	require.Len(t, procRepo.registros, 1)
	assert.Equal(t, entity.ProcessamentoFalha, procRepo.registros[0].Status)
}

func TestProcessar_TransporteETotais(t *testing.T) {
	doc := documentoBase()
	modFrete := 0
	doc.Transporte = &dto.TransporteNFe{
		ModalidadeFrete: &modFrete,
		Transportadora:  &dto.ParteNFe{CNPJ: "99888777000166", Nome: "Transportes Rapido"},
	}
	doc.Totais = &dto.TotaisNFe{
		ValorProdutos: decimal.NewFromInt(100),
		ValorTotalNFe: decimal.NewFromInt(100),
	}
	runner := newFakeTxRunner()
	procRepo := &fakeProcessamentoRepo{}
	uc := ingest.NewProcessarDocumentoUseCase(&fakeParser{doc: doc}, runner, procRepo, testLogger())

	resultado, err := uc.Processar(context.Background(), []byte("<xml/>"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusProcessada, resultado.Status)
	assert.Equal(t, 1, runner.transporteRepo.criados)
	assert.Equal(t, 1, runner.notaRepo.totais)
	// Transportadora também vira pessoa global
	assert.Len(t, runner.pessoaRepo.porIdentidade, 3)
}
