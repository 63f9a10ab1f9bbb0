package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// Expiry — заказ, который нужно перевести в CANCELLED.
type Expiry struct {
	OrderID string
	Age     time.Duration
}

// Sweep возвращает PENDING-заказы, ожидающие оплаты дольше timeout. Чистая функция без побочных эффектов.
func Sweep(now time.Time, orders []domain.Order, timeout time.Duration) []Expiry {
	var expiries []Expiry
	for i := range orders {
		if orders[i].IsExpired(now, timeout) {
			expiries = append(expiries, Expiry{OrderID: orders[i].ID, Age: now.Sub(orders[i].Timestamp)})
		}
	}

	return expiries
}

type orderExpirer interface {
	Expire(ctx context.Context, orderID string) (bool, error)
}

// ExpirySweeper отменяет просроченные заказы при каждом наблюдении ленты заказов
// и периодически, если хост-процесс запустил Run.
type ExpirySweeper struct {
	orderRepo    OrderRepository
	expirer      orderExpirer
	timeout      time.Duration
	writeTimeout time.Duration
	logger       logger.Logger
	now          func() time.Time
	wg           sync.WaitGroup
}

func NewExpirySweeper(orderRepo OrderRepository, expirer orderExpirer, timeout time.Duration, logger logger.Logger, now func() time.Time) *ExpirySweeper {
	if timeout <= 0 {
		timeout = domain.PendingTimeout
	}
	if now == nil {
		now = time.Now
	}

	return &ExpirySweeper{
		orderRepo:    orderRepo,
		expirer:      expirer,
		timeout:      timeout,
		writeTimeout: 10 * time.Second,
		logger:       logger,
		now:          now,
	}
}

// Observe запускает отмену просроченных заказов из снимка в фоне (fire-and-forget).
// Ошибки только логируются: следующее наблюдение повторит попытку.
func (s *ExpirySweeper) Observe(orders []domain.Order) {
	expiries := Sweep(s.now(), orders, s.timeout)
	if len(expiries) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		s.apply(ctx, expiries)
	}()
}

// SweepOnce читает все заказы и синхронно отменяет просроченные. Возвращает число отменённых заказов.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	const op = "ExpirySweeper.SweepOnce"

	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	return s.apply(ctx, Sweep(s.now(), orders, s.timeout)), nil
}

// Run периодически вызывает SweepOnce до отмены ctx. Интервал размывается джиттером,
// чтобы несколько экземпляров не выполняли проход одновременно.
func (s *ExpirySweeper) Run(ctx context.Context, interval time.Duration) {
	const jitterFactor = 0.1

	for {
		timer := time.NewTimer(jitter.Spread(interval, jitterFactor))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Infof("Expiry sweeper stopped by context cancellation")
			return
		case <-timer.C:
		}

		n, err := s.SweepOnce(ctx)
		if err != nil {
			s.logger.Warnf("expiry sweep failed: %v", err)
			continue
		}
		if n > 0 {
			s.logger.Infof("expiry sweep cancelled %d stale orders", n)
		}
	}
}

// Wait ожидает завершения фоновых отмен, запущенных Observe.
func (s *ExpirySweeper) Wait() {
	s.wg.Wait()
}

func (s *ExpirySweeper) apply(ctx context.Context, expiries []Expiry) int {
	cancelled := 0
	for _, exp := range expiries {
		ok, err := s.expirer.Expire(ctx, exp.OrderID)
		if err != nil {
			s.logger.Warnf("failed to expire order %s (age %s): %v", exp.OrderID, exp.Age, err)
			continue
		}
		if ok {
			cancelled++
		}
	}

	return cancelled
}
