package converter

import (
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductConverterOptionalRules(t *testing.T) {
	conv := &ProductConverterImpl{}

	model, err := conv.ToModel(&domain.Product{ID: "p1", Name: "a", Category: domain.CategoryDigital})
	require.NoError(t, err)
	assert.Nil(t, model.Wholesale)
	assert.Nil(t, model.AutoMessage)

	entity, err := conv.ToEntity(model)
	require.NoError(t, err)
	assert.Nil(t, entity.Wholesale)
	assert.Nil(t, entity.AutoMessage)

	model.Wholesale = []byte(`{"enabled":true,"minQty":10,"percent":12.5}`)
	entity, err = conv.ToEntity(model)
	require.NoError(t, err)
	require.NotNil(t, entity.Wholesale)
	assert.Equal(t, int64(10), entity.Wholesale.MinQty)
	assert.InDelta(t, 12.5, entity.Wholesale.Percent, 1e-9)
}

func TestOrderConverterKeepsExactTotal(t *testing.T) {
	conv := &OrderConverterImpl{}
	order := domain.NewOrder("o1", "u1", "ann", domain.Product{
		ID:              "p1",
		Name:            "Cable",
		DiscountedPrice: 999,
		Wholesale:       &domain.WholesaleRule{Enabled: true, MinQty: 1, Percent: 12.5},
	}, 1, &domain.ShippingDetails{Address: "x"}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	model, err := conv.ToModel(order)
	require.NoError(t, err)
	assert.Equal(t, "874.125", model.TotalPrice)
	assert.Equal(t, "p1", model.ProductID)

	back, err := conv.ToEntity(model)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("874.125").Equal(back.TotalPrice))
	assert.Equal(t, "Cable", back.Item.Product.Name)
	assert.Equal(t, "x", back.ShippingDetails.Address)
	assert.Equal(t, order.Timestamp, back.Timestamp)
}

func TestOrderConverterRejectsBadTotal(t *testing.T) {
	_, err := (&OrderConverterImpl{}).ToEntity(&OrderModel{TotalPrice: "n/a", ProductSnapshot: []byte(`{}`)})
	require.Error(t, err)
}
