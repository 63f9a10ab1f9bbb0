package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	cleanupAttempts = 3
	cleanupTimeout  = 30 * time.Second
)

// ProofInfrastructure управляет загрузкой и очисткой подтверждений оплаты в MinIO.
type ProofInfrastructure struct {
	proofRepo   usecase.ProofRepository
	bucket      string
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewProofInfrastructure(proofRepo usecase.ProofRepository, bucket string, logger logger.Logger, shutdownCtx context.Context) *ProofInfrastructure {
	return &ProofInfrastructure{
		proofRepo:   proofRepo,
		bucket:      bucket,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		baseDelay:   time.Second,
		maxDelay:    8 * time.Second,
	}
}

// UploadProof загружает файл под ключом orders/<orderID>/proof-<uuid>.<ext>.
func (m *ProofInfrastructure) UploadProof(ctx context.Context, req *usecase.UploadProofReq) (*usecase.UploadProofRes, error) {
	const op = "ProofInfrastructure.UploadProof"

	ext, err := infrastructure.GetExtensionFromMIME(req.Proof.MimeType)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("invalid mime type %s for %s: %w", req.Proof.MimeType, req.Proof.Name, err))
	}

	proofID := uuid.NewString()
	objKey := fmt.Sprintf("orders/%s/proof-%s.%s", req.OrderID, proofID, ext)
	proof := domain.NewPaymentProof(proofID, req.OrderID, m.bucket, objKey, req.Proof.Data, req.Proof.MimeType)

	key, err := m.proofRepo.Upload(ctx, proof)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("upload %s failed: %w", req.Proof.Name, err))
	}

	m.logger.Infof("payment proof uploaded: order_id=%s key=%s size=%d", req.OrderID, key, proof.Size)
	return usecase.NewUploadProofRes(key), nil
}

// CleanupProofs запускает фоновую очистку указанных ключей MinIO
func (m *ProofInfrastructure) CleanupProofs(keys []string) {
	if len(keys) == 0 {
		return
	}

	m.wg.Add(1)
	go m.cleanupKeys(keys)
}

// cleanupKeys удаляет указанные объекты из MinIO с экспоненциальной задержкой и jitter.
func (m *ProofInfrastructure) cleanupKeys(keys []string) {
	defer m.wg.Done()
	const op = "ProofInfrastructure.cleanupKeys"
	m.logger.Infof("%s: Cleaning up %d payment proofs", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.proofRepo.Delete(ctx, key)
			if err == nil {
				break
			}

			if ctx.Err() != nil {
				m.logger.Warnf("cleanup interrupted by shutdown, key=%v", key)
				return
			}

			if attempt == cleanupAttempts-1 {
				m.logger.Errorf(err, "%s: giving up on key=%s after %d attempts", op, key, cleanupAttempts)
				break
			}

			select {
			case <-time.After(jitter.ExponentialBackoff(m.baseDelay, m.maxDelay, attempt, jitter.DefaultJitter)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown during backoff, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *ProofInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}
