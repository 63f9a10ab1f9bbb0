package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type OrderUC interface {
	CreateOrder(ctx context.Context, req *CreateOrderReq) (string, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	OrdersForUser(ctx context.Context, userID string) ([]domain.Order, error)
	SubscribeOrders(ctx context.Context, fn func([]domain.Order)) (func(), error)
	SubscribeUserOrders(ctx context.Context, userID string, fn func([]domain.Order)) (func(), error)
	TransitionOrder(ctx context.Context, orderID string, status domain.OrderStatus) (*TransitionResult, error)
	AttachPaymentProof(ctx context.Context, req *AttachPaymentProofReq) (string, error)
	HideOrderForUser(ctx context.Context, userID, orderID string) error
	HardDeleteOrder(ctx context.Context, orderID string) error
	HardDeleteOrdersByUser(ctx context.Context, userID string) (int, error)

	SendMessage(ctx context.Context, target, title, content string) (*domain.Message, error)
	MessagesForUser(ctx context.Context, userID string) (*UserMessagesRes, error)
	SubscribeMessages(ctx context.Context, fn func([]domain.Message)) (func(), error)
	MarkMessageRead(ctx context.Context, messageID string) error
	DeleteMessage(ctx context.Context, messageID string) error
}

type ProductUC interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SaveProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	RestockProduct(ctx context.Context, id string, stock int64) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SubscribeProducts(ctx context.Context, fn func([]domain.Product)) (func(), error)
}
