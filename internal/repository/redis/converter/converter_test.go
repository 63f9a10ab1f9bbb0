package converter

import (
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestProductConverterRoundTrip(t *testing.T) {
	conv := &ProductConverterImpl{}
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	product := &domain.Product{
		ID:              "p1",
		Name:            "Mouse",
		OriginalPrice:   100,
		DiscountedPrice: 80,
		DiscountPercent: 20,
		Stock:           3,
		Category:        domain.CategoryPhysical,
		Wholesale:       &domain.WholesaleRule{Enabled: false, MinQty: 5, Percent: 10},
		AutoMessage:     &domain.AutoMessageRule{Enabled: true, Text: "hi"},
		CreatedAt:       updated.Add(-time.Hour),
		UpdatedAt:       &updated,
	}

	assert.Equal(t, product, conv.ToDomain(conv.ToRedisModel(product)))
}

func TestProductConverterKeepsAbsentRules(t *testing.T) {
	conv := &ProductConverterImpl{}

	back := conv.ToDomain(conv.ToRedisModel(&domain.Product{ID: "p1"}))

	assert.Nil(t, back.Wholesale)
	assert.Nil(t, back.AutoMessage)
	assert.Nil(t, conv.ToArrRedisModel(nil))
}
