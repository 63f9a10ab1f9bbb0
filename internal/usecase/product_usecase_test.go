package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveProduct(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	saved, err := env.products.SaveProduct(ctx, &domain.Product{
		Name:            "  Keyboard ",
		OriginalPrice:   1000,
		DiscountedPrice: 750,
		DiscountPercent: 99,
		Stock:           3,
		Category:        domain.CategoryPhysical,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Keyboard", saved.Name)
	assert.Equal(t, int64(25), saved.DiscountPercent)
	assert.False(t, saved.CreatedAt.IsZero())
}

func TestSaveProductValidation(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name    string
		product domain.Product
		want    error
	}{
		{"no name", domain.Product{OriginalPrice: 1, DiscountedPrice: 1, Category: domain.CategoryDigital}, e.ErrProductNameRequired},
		{"zero price", domain.Product{Name: "x", DiscountedPrice: 1, Category: domain.CategoryDigital}, e.ErrPriceMustBePositive},
		{"bad category", domain.Product{Name: "x", OriginalPrice: 1, DiscountedPrice: 1, Category: "food"}, e.ErrInvalidCategory},
		{"negative stock", domain.Product{Name: "x", OriginalPrice: 1, DiscountedPrice: 1, Category: domain.CategoryDigital, Stock: -1}, e.ErrInvalidQuantity},
		{"bad wholesale", domain.Product{
			Name: "x", OriginalPrice: 1, DiscountedPrice: 1, Category: domain.CategoryDigital,
			Wholesale: &domain.WholesaleRule{Enabled: true, MinQty: 0, Percent: 10},
		}, e.ErrInvalidWholesale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.products.SaveProduct(context.Background(), &tt.product)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetProductReadThroughCache(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 10})

	got, err := env.products.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)

	require.Eventually(t, func() bool {
		cached, err := env.cache.GetProduct(ctx, "p1")
		return err == nil && cached != nil
	}, time.Second, 5*time.Millisecond)

	p.Name = "Updated"
	env.seedProduct(t, p)

	cached, err := env.cache.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	got, err = env.products.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Name)

	_, err = env.products.GetProduct(ctx, "missing")
	require.ErrorIs(t, err, e.ErrNotFound)
}

func TestListProductsSortedByName(t *testing.T) {
	env := newEnv(t)
	env.seedProduct(t, domain.Product{ID: "b", Name: "Beta"})
	env.seedProduct(t, domain.Product{ID: "a", Name: "Alpha"})
	env.seedProduct(t, domain.Product{ID: "c", Name: "Gamma"})

	products, err := env.products.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Alpha", products[0].Name)
	assert.Equal(t, "Beta", products[1].Name)
	assert.Equal(t, "Gamma", products[2].Name)
}

func TestDeleteProduct(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1"})
	orderID := env.placeOrder(t, "u1", p, 1)

	require.NoError(t, env.products.DeleteProduct(ctx, "p1"))
	require.ErrorIs(t, env.products.DeleteProduct(ctx, "p1"), e.ErrNotFound)

	assert.Equal(t, "p1", env.order(t, orderID).Item.Product.ID)
}

func TestSaveProductKeepsCountersAfterSale(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	form := env.seedProduct(t, domain.Product{ID: "p1", Name: "Mouse", Stock: 10})

	orderID := env.placeOrder(t, "u1", form, 4)
	_, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	// Администратор отправляет форму, открытую до продажи.
	form.Name = "Wireless Mouse"
	saved, err := env.products.SaveProduct(ctx, &form)
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", saved.Name)
	assert.Equal(t, int64(6), saved.Stock)
	assert.Equal(t, int64(4), saved.TotalSold)

	stored := env.product(t, "p1")
	assert.Equal(t, int64(6), stored.Stock)
	assert.Equal(t, int64(4), stored.TotalSold)

	form.TotalSold = 0
	form.Stock = 999
	_, err = env.products.SaveProduct(ctx, &form)
	require.NoError(t, err)
	assert.Equal(t, int64(4), env.product(t, "p1").TotalSold)
	assert.Equal(t, int64(6), env.product(t, "p1").Stock)
}

func TestRestockProduct(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, domain.Product{ID: "p1", Stock: 3})

	orderID := env.placeOrder(t, "u1", p, 2)
	_, err := env.orders.TransitionOrder(ctx, orderID, domain.OrderStatusPaid)
	require.NoError(t, err)

	_, err = env.products.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		cached, err := env.cache.GetProduct(ctx, "p1")
		return err == nil && cached != nil
	}, time.Second, 5*time.Millisecond)

	restocked, err := env.products.RestockProduct(ctx, "p1", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), restocked.Stock)
	assert.Equal(t, int64(2), restocked.TotalSold)

	cached, err := env.cache.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, err = env.products.RestockProduct(ctx, "p1", -5)
	require.ErrorIs(t, err, e.ErrInvalidQuantity)
	assert.Equal(t, int64(25), env.product(t, "p1").Stock)

	_, err = env.products.RestockProduct(ctx, "missing", 5)
	require.ErrorIs(t, err, e.ErrNotFound)
}
