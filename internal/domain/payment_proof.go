package domain

// PaymentProof описывает файл подтверждения оплаты, который хранится в S3
type PaymentProof struct {
	ID          string // uuid
	OrderID     string
	Bucket      string
	ObjectKey   string
	Bytes       []byte
	Size        int64
	ContentType string // Example: "image/png"
}

func NewPaymentProof(id, orderID, bucket, objectKey string, data []byte, contentType string) *PaymentProof {
	return &PaymentProof{
		ID:          id,
		OrderID:     orderID,
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Bytes:       data,
		Size:        int64(len(data)),
		ContentType: contentType,
	}
}
