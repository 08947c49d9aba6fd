package postgres

import (
	"context"
	"fmt"

	"github.com/brfiscal/nfe-ingest/internal/domain/entity"
	"github.com/brfiscal/nfe-ingest/internal/domain/repository"
)

var _ repository.TransporteRepository = (*TransporteRepo)(nil)

// TransporteRepo implementação de TransporteRepository (usável com pool ou tx).
type TransporteRepo struct {
	q Querier
}

// NewTransporteRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewTransporteRepository(q Querier) *TransporteRepo {
	return &TransporteRepo{q: q}
}

// Criar grava o transporte e seus itens. Cada volume é gravado antes dos
// lacres aninhados nele, de modo que pai_id já exista ao gravar o filho.
// A transportadora, quando presente, já foi upsertada e traz ID preenchido.
func (r *TransporteRepo) Criar(notaID int64, t *entity.Transporte) error {
	var transportadoraID *int64
	if t.Transportadora != nil {
		transportadoraID = &t.Transportadora.ID
	}

	query := `
		INSERT INTO nfe.transporte (nfe_id, modalidade_frete, transportadora_id)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query, notaID, t.ModalidadeFrete, transportadoraID).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert transporte: %w", err)
	}

	for i := range t.Volumes {
		vol := &t.Volumes[i]
		query := `
			INSERT INTO nfe.transporte_item (transporte_id, tipo, quantidade, especie, marca,
			                                 numeracao, peso_liquido, peso_bruto)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`
		err := r.q.QueryRow(context.Background(), query,
			t.ID, entity.TipoItemTransporteVolume, vol.Quantidade, nullIfEmpty(vol.Especie),
			nullIfEmpty(vol.Marca), nullIfEmpty(vol.Numeracao), vol.PesoLiquido, vol.PesoBruto,
		).Scan(&vol.ID)
		if err != nil {
			return fmt.Errorf("insert volume: %w", err)
		}
		for j := range vol.Lacres {
			if err := r.criarLacre(t.ID, &vol.ID, &vol.Lacres[j]); err != nil {
				return err
			}
		}
	}

	for i := range t.Veiculos {
		v := &t.Veiculos[i]
		query := `
			INSERT INTO nfe.transporte_item (transporte_id, tipo, placa, uf, rntc)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		err := r.q.QueryRow(context.Background(), query,
			t.ID, entity.TipoItemTransporteVeiculo, v.Placa, v.UF, nullIfEmpty(v.RNTC),
		).Scan(&v.ID)
		if err != nil {
			return fmt.Errorf("insert veiculo: %w", err)
		}
	}

	// Lacres soltos: fora de qualquer volume, sem pai
	for i := range t.Lacres {
		if err := r.criarLacre(t.ID, nil, &t.Lacres[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *TransporteRepo) criarLacre(transporteID int64, paiID *int64, lacre *entity.Lacre) error {
	query := `
		INSERT INTO nfe.transporte_item (transporte_id, tipo, pai_id, numero_lacre)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		transporteID, entity.TipoItemTransporteLacre, paiID, lacre.Numero,
	).Scan(&lacre.ID)
	if err != nil {
		return fmt.Errorf("insert lacre: %w", err)
	}
	return nil
}
