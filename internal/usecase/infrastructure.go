package usecase

import "context"

type ProofInfra interface {
	UploadProof(ctx context.Context, req *UploadProofReq) (*UploadProofRes, error)
	CleanupProofs(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
