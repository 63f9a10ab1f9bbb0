package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// OrderStore — агрегат, координирующий жизненный цикл заказов, ленту сообщений и хранилище.
type OrderStore struct {
	orderRepo   OrderRepository
	messageRepo MessageRepository
	lifecycle   *OrderLifecycle
	sweeper     *ExpirySweeper
	dispatcher  *NotificationDispatcher
	proofInfra  ProofInfra
	maxQuantity int64
	logger      logger.Logger
	now         func() time.Time
}

// DefaultMaxOrderQuantity — предел количества в одном заказе, если конфигурация его не задаёт.
const DefaultMaxOrderQuantity = 1000

func NewOrderStore(
	orderRepo OrderRepository,
	messageRepo MessageRepository,
	lifecycle *OrderLifecycle,
	sweeper *ExpirySweeper,
	dispatcher *NotificationDispatcher,
	proofInfra ProofInfra,
	maxQuantity int64,
	logger logger.Logger,
	now func() time.Time,
) *OrderStore {
	if now == nil {
		now = time.Now
	}
	if maxQuantity <= 0 {
		maxQuantity = DefaultMaxOrderQuantity
	}

	return &OrderStore{
		orderRepo:   orderRepo,
		messageRepo: messageRepo,
		lifecycle:   lifecycle,
		sweeper:     sweeper,
		dispatcher:  dispatcher,
		proofInfra:  proofInfra,
		maxQuantity: maxQuantity,
		logger:      logger,
		now:         now,
	}
}

// CreateOrder создаёт заказ в статусе PENDING по снимку товара. Остаток здесь не проверяется и не резервируется.
func (s *OrderStore) CreateOrder(ctx context.Context, req *CreateOrderReq) (string, error) {
	const op = "OrderStore.CreateOrder"

	if err := s.validateCreateOrder(req); err != nil {
		return "", e.Wrap(op, err)
	}

	order := domain.NewOrder(
		uuid.NewString(),
		req.UserID,
		req.Username,
		req.Product,
		req.Quantity,
		req.ShippingDetails,
		s.now().UTC(),
	)

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return "", e.Wrap(op, err)
	}

	s.logger.Infof("order %s created: user=%s product=%s qty=%d total=%s",
		order.ID, order.UserID, order.Item.Product.ID, order.Item.Quantity, order.TotalPrice)

	return order.ID, nil
}

// ListOrders возвращает все заказы (представление администратора), включая скрытые покупателями.
func (s *OrderStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "OrderStore.ListOrders"

	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	sortOrders(orders)

	return orders, nil
}

// OrdersForUser возвращает заказы пользователя без скрытых им.
func (s *OrderStore) OrdersForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	return FilterUserOrders(orders, userID), nil
}

// SubscribeOrders подписывает fn на полную ленту заказов, отсортированную по времени (новые первыми).
// Каждый снимок проверяется ExpirySweeper'ом.
func (s *OrderStore) SubscribeOrders(ctx context.Context, fn func([]domain.Order)) (func(), error) {
	const op = "OrderStore.SubscribeOrders"

	unsubscribe, err := s.orderRepo.Subscribe(ctx, func(orders []domain.Order) {
		sortOrders(orders)
		s.sweeper.Observe(orders)
		fn(orders)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return unsubscribe, nil
}

// SubscribeUserOrders работает как SubscribeOrders, но с фильтром представления покупателя.
func (s *OrderStore) SubscribeUserOrders(ctx context.Context, userID string, fn func([]domain.Order)) (func(), error) {
	return s.SubscribeOrders(ctx, func(orders []domain.Order) {
		fn(FilterUserOrders(orders, userID))
	})
}

// TransitionOrder делегирует переход статуса OrderLifecycle.
func (s *OrderStore) TransitionOrder(ctx context.Context, orderID string, status domain.OrderStatus) (*TransitionResult, error) {
	return s.lifecycle.Transition(ctx, orderID, status)
}

// AttachPaymentProof загружает подтверждение оплаты и привязывает его к заказу.
// После этого заказ неизменяем для покупателя, пока администратор не сменит статус.
func (s *OrderStore) AttachPaymentProof(ctx context.Context, req *AttachPaymentProofReq) (string, error) {
	const op = "OrderStore.AttachPaymentProof"

	if len(req.Proof.Data) == 0 {
		return "", e.Wrap(op, e.ErrNoProof)
	}

	order, err := s.ownedOrder(ctx, req.UserID, req.OrderID)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	if order.Status != domain.OrderStatusPending || order.HasPaymentProof() {
		return "", e.Wrap(op, e.ErrOrderLocked)
	}

	uploaded, err := s.proofInfra.UploadProof(ctx, NewUploadProofReq(order.ID, req.Proof))
	if err != nil {
		return "", e.Wrap(op, err)
	}

	if err := s.orderRepo.SetPaymentProof(ctx, order.ID, uploaded.Key); err != nil {
		s.logger.Warnf("Cleaning up orphaned payment proof after write failure. order_id: %s, error: %v", order.ID, e.Wrap(op, err))
		s.proofInfra.CleanupProofs([]string{uploaded.Key})
		return "", e.Wrap(op, err)
	}

	return uploaded.Key, nil
}

// HideOrderForUser скрывает заказ из представления покупателя; администратор продолжает его видеть.
func (s *OrderStore) HideOrderForUser(ctx context.Context, userID, orderID string) error {
	const op = "OrderStore.HideOrderForUser"

	if _, err := s.ownedOrder(ctx, userID, orderID); err != nil {
		return e.Wrap(op, err)
	}

	if err := s.orderRepo.SetHiddenForUser(ctx, orderID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// HardDeleteOrder физически удаляет заказ (действие администратора).
func (s *OrderStore) HardDeleteOrder(ctx context.Context, orderID string) error {
	const op = "OrderStore.HardDeleteOrder"

	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return e.Wrap(op, err)
	}

	s.cleanupProofs([]domain.Order{*order})
	return nil
}

// HardDeleteOrdersByUser удаляет все заказы пользователя и возвращает их число.
func (s *OrderStore) HardDeleteOrdersByUser(ctx context.Context, userID string) (int, error) {
	const op = "OrderStore.HardDeleteOrdersByUser"

	if strings.TrimSpace(userID) == "" {
		return 0, e.Wrap(op, e.ErrAuthFailure)
	}

	deleted, err := s.orderRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	s.cleanupProofs(deleted)
	return len(deleted), nil
}

func (s *OrderStore) ownedOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, e.ErrForbidden
	}

	return order, nil
}

func (s *OrderStore) cleanupProofs(orders []domain.Order) {
	keys := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.HasPaymentProof() {
			keys = append(keys, o.PaymentProof)
		}
	}

	s.proofInfra.CleanupProofs(keys)
}

func (s *OrderStore) validateCreateOrder(req *CreateOrderReq) error {
	if strings.TrimSpace(req.UserID) == "" {
		return e.ErrAuthFailure
	}

	if strings.TrimSpace(req.Product.ID) == "" {
		return e.ErrProductRequired
	}

	if req.Quantity <= 0 {
		return e.ErrInvalidQuantity
	}

	if req.Quantity > s.maxQuantity {
		return e.ErrQuantityTooLarge
	}

	return nil
}

// FilterUserOrders оставляет заказы пользователя, которые он не скрыл.
func FilterUserOrders(orders []domain.Order, userID string) []domain.Order {
	res := make([]domain.Order, 0)
	for _, o := range orders {
		if o.UserID == userID && !o.HiddenForUser {
			res = append(res, o)
		}
	}

	return res
}

func sortOrders(orders []domain.Order) {
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}
