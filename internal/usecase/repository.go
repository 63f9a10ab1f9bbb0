package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// Subscribe-методы сразу доставляют текущую коллекцию целиком, а затем — после каждого изменения.
// Возвращаемая функция отменяет подписку.

type ProductRepository interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	// GetForUpdate читает продукт с блокировкой строки до конца текущей транзакции.
	GetForUpdate(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	// Upsert сохраняет карточку. При обновлении stock/totalSold остаются прежними: их меняет только UpdateCounters.
	Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateCounters(ctx context.Context, id string, stock, totalSold int64) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, fn func([]domain.Product)) (func(), error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	// CompareAndSwapStatus меняет статус только если текущий равен from. Возвращает false, если статус уже другой.
	CompareAndSwapStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	SetPaymentProof(ctx context.Context, id string, key string) error
	SetHiddenForUser(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Subscribe(ctx context.Context, fn func([]domain.Order)) (func(), error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	List(ctx context.Context) ([]domain.Message, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, fn func([]domain.Message)) (func(), error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type CacheRepository interface {
	// GetProduct возвращает (nil, nil) при промахе кэша.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	DeleteProducts(ctx context.Context, ids []string) error
}

// ProofRepository хранит файлы подтверждений оплаты в объектном хранилище.
type ProofRepository interface {
	Upload(ctx context.Context, proof *domain.PaymentProof) (string, error)
	Delete(ctx context.Context, key string) error
}

// TxManager выполняет fn в одной транзакции хранилища; транзакция доступна репозиториям через ctx.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
