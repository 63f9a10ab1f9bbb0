package memory

import (
	"context"
	"sync"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// Cache — кэш продуктов в памяти с тем же контрактом, что и Redis-кэш.
type Cache struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewCache() *Cache {
	return &Cache{products: make(map[string]domain.Product)}
}

func (c *Cache) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}

	res := cloneProduct(p)
	return &res, nil
}

func (c *Cache) SetProducts(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		c.products[p.ID] = cloneProduct(p)
	}

	return nil
}

func (c *Cache) DeleteProducts(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.products, id)
	}

	return nil
}
