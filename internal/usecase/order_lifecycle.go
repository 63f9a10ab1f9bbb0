package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// errStatusChanged — статус заказа изменился между чтением и записью; транзакция откатывается.
var errStatusChanged = errors.New("order status changed concurrently")

// OrderLifecycle владеет переходами статусов заказа и их побочными эффектами.
type OrderLifecycle struct {
	orderRepo  OrderRepository
	outboxRepo OutboxRepository
	txManager  TxManager
	ledger     *StockLedger
	vouchers   *VoucherGenerator
	dispatcher *NotificationDispatcher
	logger     logger.Logger
	now        func() time.Time
}

func NewOrderLifecycle(
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	txManager TxManager,
	ledger *StockLedger,
	vouchers *VoucherGenerator,
	dispatcher *NotificationDispatcher,
	logger logger.Logger,
	now func() time.Time,
) *OrderLifecycle {
	if now == nil {
		now = time.Now
	}

	return &OrderLifecycle{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		txManager:  txManager,
		ledger:     ledger,
		vouchers:   vouchers,
		dispatcher: dispatcher,
		logger:     logger,
		now:        now,
	}
}

// Transition переводит заказ в target.
//
// Вход в PAID или COMPLETED из PENDING/CANCELLED/REJECTED ровно один раз списывает остаток,
// для цифровых товаров сразу завершает заказ, а при настроенном автосообщении выдаёт ваучеры.
// Смена статуса и списание фиксируются в одной транзакции через compare-and-swap по статусу,
// поэтому повторное или параллельное подтверждение оплаты не списывает остаток дважды.
// Недопустимые переходы не являются ошибкой: возвращается Applied=false.
func (l *OrderLifecycle) Transition(ctx context.Context, orderID string, target domain.OrderStatus) (*TransitionResult, error) {
	const op = "OrderLifecycle.Transition"

	if _, ok := domain.ParseOrderStatus(string(target)); !ok {
		return nil, e.Wrap(op, e.ErrUnknownStatus)
	}

	order, err := l.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	from := order.Status
	to := target
	settle := target.IsSettlement() && from.AwaitsPayment()
	if settle && order.Item.Product.IsDigital() {
		to = domain.OrderStatusCompleted
	}

	res := &TransitionResult{OrderID: orderID, From: from, To: to}
	if !domain.CanTransition(from, to) {
		l.logger.Debugf("%s: inert transition %s -> %s for order %s", op, from, to, orderID)
		return res, nil
	}

	live := order.Item.Product
	err = l.txManager.Do(ctx, func(ctx context.Context) error {
		swapped, err := l.orderRepo.CompareAndSwapStatus(ctx, orderID, from, to)
		if err != nil {
			return err
		}
		if !swapped {
			return errStatusChanged
		}

		if settle {
			product, err := l.ledger.Deduct(ctx, order.Item.Product.ID, order.Item.Quantity)
			switch {
			case errors.Is(err, e.ErrNotFound):
				l.logger.Warnf("%s: product %s of order %s no longer exists, stock not deducted", op, order.Item.Product.ID, orderID)
			case err != nil:
				return err
			default:
				live = *product
			}

			// Коды выпускаются после фиксации, поэтому заказ, для которого их не выпустить, не списывается.
			if live.HasAutoMessage() && order.Item.Quantity > MaxVouchersPerIssue {
				return e.ErrQuantityTooLarge
			}
		}

		return l.recordEvent(ctx, order, from, to, settle)
	})
	if errors.Is(err, errStatusChanged) {
		l.logger.Infof("%s: order %s changed concurrently, transition %s -> %s skipped", op, orderID, from, to)
		return res, nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res.Applied = true
	res.Settled = settle
	if !settle {
		return res, nil
	}

	l.ledger.InvalidateCache(ctx, order.Item.Product.ID)

	if live.HasAutoMessage() {
		if err := l.deliverVouchers(ctx, order, &live); err != nil {
			return res, e.Wrap(op, err)
		}
	}

	return res, nil
}

// Expire переводит просроченный PENDING-заказ в CANCELLED. Повторный вызов безопасен.
func (l *OrderLifecycle) Expire(ctx context.Context, orderID string) (bool, error) {
	const op = "OrderLifecycle.Expire"

	order, err := l.orderRepo.Get(ctx, orderID)
	if err != nil {
		return false, e.Wrap(op, err)
	}
	if order.Status != domain.OrderStatusPending {
		return false, nil
	}

	expired := false
	err = l.txManager.Do(ctx, func(ctx context.Context) error {
		swapped, err := l.orderRepo.CompareAndSwapStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCancelled)
		if err != nil || !swapped {
			return err
		}
		expired = true

		return l.recordEvent(ctx, order, domain.OrderStatusPending, domain.OrderStatusCancelled, false)
	})
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return expired, nil
}

// deliverVouchers выпускает коды и отправляет их покупателю. Вызывается только после фиксации списания.
func (l *OrderLifecycle) deliverVouchers(ctx context.Context, order *domain.Order, product *domain.Product) error {
	codes, err := l.vouchers.Issue(order.Item.Quantity)
	if err != nil {
		return err
	}

	title, content := l.vouchers.Compose(product, order.Item.Quantity, codes)
	if _, err := l.dispatcher.Send(ctx, order.UserID, title, content, true); err != nil {
		return err
	}

	return nil
}

func (l *OrderLifecycle) recordEvent(ctx context.Context, order *domain.Order, from, to domain.OrderStatus, settled bool) error {
	eventID := uuid.NewString()
	now := l.now().UTC()

	payload, err := json.Marshal(OrderStatusChangedPayload{
		EventID:    eventID,
		OrderID:    order.ID,
		UserID:     order.UserID,
		ProductID:  order.Item.Product.ID,
		Quantity:   order.Item.Quantity,
		From:       string(from),
		To:         string(to),
		Settled:    settled,
		OccurredAt: now,
	})
	if err != nil {
		return err
	}

	_, err = l.outboxRepo.Create(ctx, NewOutboxEvent(eventID, OrderStatusChanged, order.ID, payload, now))
	return err
}
