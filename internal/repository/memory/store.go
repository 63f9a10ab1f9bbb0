// Package memory реализует хранилище в памяти процесса с теми же контрактами, что и PostgreSQL,
// включая подписки и транзакции с откатом.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/feed"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

type txKey struct{}

// Store хранит все коллекции. Транзакции сериализуются отдельным мьютексом,
// одиночные операции вне транзакций выполняются под mu.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	orders   map[string]domain.Order
	messages map[string]domain.Message
	outbox   []usecase.OutboxEvent
	outboxID int64

	txMu sync.Mutex

	productFeed *feed.Feed
	orderFeed   *feed.Feed
	messageFeed *feed.Feed

	logger logger.Logger
}

type Option func(*Store)

// WithLogger задаёт логгер для ошибок загрузки снимков подписчикам.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.logger = log }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		products:    make(map[string]domain.Product),
		orders:      make(map[string]domain.Order),
		messages:    make(map[string]domain.Message),
		productFeed: feed.New(),
		orderFeed:   feed.New(),
		messageFeed: feed.New(),
		logger:      logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }
func (s *Store) Orders() *OrderRepo     { return &OrderRepo{s: s} }
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s: s} }
func (s *Store) Outbox() *OutboxRepo    { return &OutboxRepo{s: s} }

// Do выполняет fn в транзакции: при ошибке все коллекции откатываются к состоянию до начала.
// Вложенный вызов выполняется в рамках внешней транзакции.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}

	return nil
}

// Close останавливает все подписки.
// subscribe вызывает load сразу и после каждого изменения коллекции. Ошибки load логируются.
func (s *Store) subscribe(f *feed.Feed, collection string, load func() error) func() {
	return f.Subscribe(func() {
		if err := load(); err != nil {
			s.logger.Warnf("Failed to load %s snapshot for subscriber: %v", collection, err)
		}
	})
}

func (s *Store) Close() {
	s.productFeed.Close()
	s.orderFeed.Close()
	s.messageFeed.Close()
}

type storeSnapshot struct {
	products map[string]domain.Product
	orders   map[string]domain.Order
	messages map[string]domain.Message
	outbox   []usecase.OutboxEvent
	outboxID int64
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return storeSnapshot{
		products: maps.Clone(s.products),
		orders:   maps.Clone(s.orders),
		messages: maps.Clone(s.messages),
		outbox:   append([]usecase.OutboxEvent(nil), s.outbox...),
		outboxID: s.outboxID,
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	s.products = snap.products
	s.orders = snap.orders
	s.messages = snap.messages
	s.outbox = snap.outbox
	s.outboxID = snap.outboxID
	s.mu.Unlock()

	s.productFeed.Publish()
	s.orderFeed.Publish()
	s.messageFeed.Publish()
}
