package converter

import (
	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type ProductConverter interface {
	ToRedisModel(entity *domain.Product) *ProductRedisModel
	ToDomain(model *ProductRedisModel) *domain.Product
	ToArrRedisModel(entities []domain.Product) []ProductRedisModel
}

type ProductConverterImpl struct{}

func (c *ProductConverterImpl) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	if entity == nil {
		return nil
	}

	model := &ProductRedisModel{
		ID:              entity.ID,
		Name:            entity.Name,
		Description:     entity.Description,
		ImageURL:        entity.ImageURL,
		OriginalPrice:   entity.OriginalPrice,
		DiscountedPrice: entity.DiscountedPrice,
		DiscountPercent: entity.DiscountPercent,
		Stock:           entity.Stock,
		TotalSold:       entity.TotalSold,
		IsSaleClosed:    entity.IsSaleClosed,
		IsComingSoon:    entity.IsComingSoon,
		Category:        string(entity.Category),
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}

	if w := entity.Wholesale; w != nil {
		model.HasWholesale = true
		model.WholesaleEnabled = w.Enabled
		model.WholesaleMinQty = w.MinQty
		model.WholesalePercent = w.Percent
	}

	if m := entity.AutoMessage; m != nil {
		model.HasAutoMessage = true
		model.AutoMessageEnabled = m.Enabled
		model.AutoMessageText = m.Text
	}

	return model
}

func (c *ProductConverterImpl) ToDomain(model *ProductRedisModel) *domain.Product {
	if model == nil {
		return nil
	}

	entity := &domain.Product{
		ID:              model.ID,
		Name:            model.Name,
		Description:     model.Description,
		ImageURL:        model.ImageURL,
		OriginalPrice:   model.OriginalPrice,
		DiscountedPrice: model.DiscountedPrice,
		DiscountPercent: model.DiscountPercent,
		Stock:           model.Stock,
		TotalSold:       model.TotalSold,
		IsSaleClosed:    model.IsSaleClosed,
		IsComingSoon:    model.IsComingSoon,
		Category:        domain.Category(model.Category),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.HasWholesale {
		entity.Wholesale = &domain.WholesaleRule{
			Enabled: model.WholesaleEnabled,
			MinQty:  model.WholesaleMinQty,
			Percent: model.WholesalePercent,
		}
	}

	if model.HasAutoMessage {
		entity.AutoMessage = &domain.AutoMessageRule{
			Enabled: model.AutoMessageEnabled,
			Text:    model.AutoMessageText,
		}
	}

	return entity
}

func (c *ProductConverterImpl) ToArrRedisModel(entities []domain.Product) []ProductRedisModel {
	if entities == nil {
		return nil
	}

	res := make([]ProductRedisModel, len(entities))
	for i := range entities {
		res[i] = *c.ToRedisModel(&entities[i])
	}

	return res
}
