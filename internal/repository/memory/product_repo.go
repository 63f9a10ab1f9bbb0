package memory

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

type ProductRepo struct {
	s *Store
}

func (r *ProductRepo) Get(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, e.Wrap("product "+id, e.ErrNotFound)
	}

	res := cloneProduct(p)
	return &res, nil
}

// GetForUpdate совпадает с Get: транзакции в памяти уже сериализованы.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return r.Get(ctx, id)
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		res = append(res, cloneProduct(p))
	}

	return res, nil
}

func (r *ProductRepo) Upsert(_ context.Context, product *domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()

	r.s.mu.Lock()
	stored := cloneProduct(*product)
	if prev, ok := r.s.products[product.ID]; ok {
		stored.CreatedAt = prev.CreatedAt
		stored.UpdatedAt = &now
		stored.Stock = prev.Stock
		stored.TotalSold = prev.TotalSold
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	r.s.products[product.ID] = stored
	r.s.mu.Unlock()

	r.s.productFeed.Publish()

	res := cloneProduct(stored)
	return &res, nil
}

func (r *ProductRepo) UpdateCounters(_ context.Context, id string, stock, totalSold int64) error {
	r.s.mu.Lock()
	p, ok := r.s.products[id]
	if !ok {
		r.s.mu.Unlock()
		return e.Wrap("product "+id, e.ErrNotFound)
	}
	p.Stock = stock
	p.TotalSold = totalSold
	r.s.products[id] = p
	r.s.mu.Unlock()

	r.s.productFeed.Publish()
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	if _, ok := r.s.products[id]; !ok {
		r.s.mu.Unlock()
		return e.Wrap("product "+id, e.ErrNotFound)
	}
	delete(r.s.products, id)
	r.s.mu.Unlock()

	r.s.productFeed.Publish()
	return nil
}

func (r *ProductRepo) Subscribe(ctx context.Context, fn func([]domain.Product)) (func(), error) {
	return r.s.subscribe(r.s.productFeed, "products", func() error {
		products, err := r.List(ctx)
		if err != nil {
			return err
		}

		fn(products)
		return nil
	}), nil
}
