package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/brfiscal/nfe-ingest/pkg/config"
)

// Staging área de entrada dos XMLs: o worker varre o prefixo de entrada,
// baixa cada objeto e, após o processamento, o move para o prefixo de
// processados ou de erro.
type Staging struct {
	client      *minio.Client
	bucket      string
	prefEntrada string
	prefOK      string
	prefErro    string
}

// NewStaging conecta ao MinIO e garante que o bucket exista.
func NewStaging(ctx context.Context, cfg config.StorageConfig) (*Staging, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("conectar ao MinIO: %w", err)
	}

	existe, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("verificar bucket %s: %w", cfg.Bucket, err)
	}
	if !existe {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("criar bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Staging{
		client:      client,
		bucket:      cfg.Bucket,
		prefEntrada: cfg.PrefixEntrada,
		prefOK:      cfg.PrefixOK,
		prefErro:    cfg.PrefixErro,
	}, nil
}

// ListarPendentes devolve até limite chaves de objeto sob o prefixo de
// entrada, na ordem em que o listing as entrega.
func (s *Staging) ListarPendentes(ctx context.Context, limite int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var chaves []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefEntrada,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listar objetos: %w", obj.Err)
		}
		chaves = append(chaves, obj.Key)
		if limite > 0 && len(chaves) >= limite {
			break
		}
	}
	return chaves, nil
}

// Baixar lê o conteúdo completo de um objeto.
func (s *Staging) Baixar(ctx context.Context, chave string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, chave, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("baixar %s: %w", chave, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("ler %s: %w", chave, err)
	}
	return buf.Bytes(), nil
}

// ArquivarProcessado move o objeto para o prefixo de processados.
func (s *Staging) ArquivarProcessado(ctx context.Context, chave string) error {
	return s.mover(ctx, chave, s.prefOK)
}

// ArquivarErro move o objeto para o prefixo de erro, preservando-o para
// inspeção e reprocessamento manual.
func (s *Staging) ArquivarErro(ctx context.Context, chave string) error {
	return s.mover(ctx, chave, s.prefErro)
}

// mover copia o objeto para o destino datado e remove o original. S3 não tem
// rename; copy+remove é a operação equivalente.
func (s *Staging) mover(ctx context.Context, chave, prefixoDestino string) error {
	destino := prefixoDestino + time.Now().UTC().Format("2006/01/02/") + path.Base(chave)

	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: destino},
		minio.CopySrcOptions{Bucket: s.bucket, Object: chave},
	)
	if err != nil {
		return fmt.Errorf("copiar %s para %s: %w", chave, destino, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, chave, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remover %s: %w", chave, err)
	}
	return nil
}
