package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// ORDER STORE

// CreateOrderReq — запрос на создание заказа. Product содержит снимок товара, который видел покупатель.
type CreateOrderReq struct {
	UserID          string
	Username        string
	Product         domain.Product
	Quantity        int64
	ShippingDetails *domain.ShippingDetails
}

// ProofFile — файл подтверждения оплаты, загруженный через multipart/form-data.
type ProofFile struct {
	Data     []byte // байты файла
	MimeType string // определённый по содержимому Content-Type
	Name     string // оригинальное имя файла (для логов)
}

// AttachPaymentProofReq — запрос покупателя на прикрепление подтверждения оплаты.
type AttachPaymentProofReq struct {
	OrderID string
	UserID  string
	Proof   ProofFile
}

// TransitionResult описывает результат перехода статуса.
// Applied=false означает, что переход недопустим или статус уже изменён конкурентно; это не ошибка.
type TransitionResult struct {
	OrderID string
	From    domain.OrderStatus
	To      domain.OrderStatus
	Applied bool
	// Settled: выполнены побочные эффекты оплаты (списание остатка, ваучеры).
	Settled bool
}

// UserMessagesRes — лента сообщений пользователя.
type UserMessagesRes struct {
	Messages []domain.Message
	Unread   int
}

// INFRASTRUCTURE

type UploadProofReq struct {
	OrderID string
	Proof   ProofFile
}

type UploadProofRes struct {
	Key string
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	OrderStatusChanged OutboxEventType = "order.status_changed"
)

// OutboxEvent — событие, записанное в той же транзакции, что и изменение заказа.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	OrderID     string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// OrderStatusChangedPayload — содержимое события order.status_changed.
type OrderStatusChangedPayload struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int64     `json:"quantity"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Settled    bool      `json:"settled"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MAPPERS

func NewUploadProofReq(orderID string, proof ProofFile) *UploadProofReq {
	return &UploadProofReq{OrderID: orderID, Proof: proof}
}

func NewUploadProofRes(key string) *UploadProofRes {
	return &UploadProofRes{Key: key}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{Key: key, Payload: payload}
}

func NewProofFile(data []byte, mimeType string, name string) *ProofFile {
	return &ProofFile{Data: data, MimeType: mimeType, Name: name}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, orderID string, payload []byte, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderID:   orderID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: now,
	}
}
