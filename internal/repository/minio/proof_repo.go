package minio

import (
	"bytes"
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ProofRepo хранит подтверждения оплаты в MinIO.
type ProofRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewProofRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ProofRepo {
	return &ProofRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload загружает файл в MinIO и возвращает ключ объекта.
func (p *ProofRepo) Upload(ctx context.Context, proof *domain.PaymentProof) (string, error) {
	reader := bytes.NewReader(proof.Bytes)

	info, err := p.mc.PutObject(ctx, p.cfg.BucketName, proof.ObjectKey, reader, proof.Size, minio.PutObjectOptions{
		ContentType:  proof.ContentType,
		UserMetadata: map[string]string{"order-id": proof.OrderID, "proof-id": proof.ID},
	})
	if err != nil {
		return "", e.Unavailable(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (p *ProofRepo) Delete(ctx context.Context, key string) error {
	if err := p.mc.RemoveObject(ctx, p.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
