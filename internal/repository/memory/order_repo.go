package memory

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

type OrderRepo struct {
	s *Store
}

func (r *OrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	r.s.orders[order.ID] = cloneOrder(*order)
	r.s.mu.Unlock()

	r.s.orderFeed.Publish()
	return nil
}

func (r *OrderRepo) Get(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, e.Wrap("order "+id, e.ErrNotFound)
	}

	res := cloneOrder(o)
	return &res, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]domain.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		res = append(res, cloneOrder(o))
	}

	return res, nil
}

func (r *OrderRepo) CompareAndSwapStatus(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	swapped, err := r.update(id, func(o *domain.Order) bool {
		if o.Status != from {
			return false
		}
		o.Status = to
		return true
	})

	return swapped, err
}

func (r *OrderRepo) SetPaymentProof(_ context.Context, id string, key string) error {
	_, err := r.update(id, func(o *domain.Order) bool {
		o.PaymentProof = key
		return true
	})

	return err
}

func (r *OrderRepo) SetHiddenForUser(_ context.Context, id string) error {
	_, err := r.update(id, func(o *domain.Order) bool {
		if o.HiddenForUser {
			return false
		}
		o.HiddenForUser = true
		return true
	})

	return err
}

func (r *OrderRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	if _, ok := r.s.orders[id]; !ok {
		r.s.mu.Unlock()
		return e.Wrap("order "+id, e.ErrNotFound)
	}
	delete(r.s.orders, id)
	r.s.mu.Unlock()

	r.s.orderFeed.Publish()
	return nil
}

func (r *OrderRepo) DeleteByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.s.mu.Lock()
	var deleted []domain.Order
	for id, o := range r.s.orders {
		if o.UserID == userID {
			deleted = append(deleted, cloneOrder(o))
			delete(r.s.orders, id)
		}
	}
	r.s.mu.Unlock()

	if len(deleted) > 0 {
		r.s.orderFeed.Publish()
	}
	return deleted, nil
}

func (r *OrderRepo) Subscribe(ctx context.Context, fn func([]domain.Order)) (func(), error) {
	return r.s.subscribe(r.s.orderFeed, "orders", func() error {
		orders, err := r.List(ctx)
		if err != nil {
			return err
		}

		fn(orders)
		return nil
	}), nil
}

// update применяет mutate к заказу; подписчики уведомляются, только если mutate вернул true.
func (r *OrderRepo) update(id string, mutate func(o *domain.Order) bool) (bool, error) {
	r.s.mu.Lock()
	o, ok := r.s.orders[id]
	if !ok {
		r.s.mu.Unlock()
		return false, e.Wrap("order "+id, e.ErrNotFound)
	}

	changed := mutate(&o)
	if changed {
		r.s.orders[id] = o
	}
	r.s.mu.Unlock()

	if changed {
		r.s.orderFeed.Publish()
	}
	return changed, nil
}
