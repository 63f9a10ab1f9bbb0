package converter

import (
	"encoding/json"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) (*ProductModel, error)
	ToEntity(model *ProductModel) (*domain.Product, error)
}

// OrderConverter преобразует сущности Order между domain и моделью PostgreSQL.
type OrderConverter interface {
	ToModel(entity *domain.Order) (*OrderModel, error)
	ToEntity(model *OrderModel) (*domain.Order, error)
}

// MessageConverter преобразует сущности Message между domain и моделью PostgreSQL.
type MessageConverter interface {
	ToModel(entity *domain.Message) *MessageModel
	ToEntity(model *MessageModel) *domain.Message
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) (*ProductModel, error) {
	if entity == nil {
		return nil, nil
	}

	wholesale, err := marshalNullable(entity.Wholesale)
	if err != nil {
		return nil, err
	}

	autoMessage, err := marshalNullable(entity.AutoMessage)
	if err != nil {
		return nil, err
	}

	return &ProductModel{
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
		Wholesale:       wholesale,
		AutoMessage:     autoMessage,
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}, nil
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel) (*domain.Product, error) {
	if model == nil {
		return nil, nil
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

	if err := unmarshalNullable(model.Wholesale, &entity.Wholesale); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(model.AutoMessage, &entity.AutoMessage); err != nil {
		return nil, err
	}

	return entity, nil
}

type OrderConverterImpl struct{}

func (c *OrderConverterImpl) ToModel(entity *domain.Order) (*OrderModel, error) {
	if entity == nil {
		return nil, nil
	}

	snapshot, err := json.Marshal(entity.Item.Product)
	if err != nil {
		return nil, err
	}

	shipping, err := marshalNullable(entity.ShippingDetails)
	if err != nil {
		return nil, err
	}

	return &OrderModel{
		ID:              entity.ID,
		UserID:          entity.UserID,
		Username:        entity.Username,
		ProductID:       entity.Item.Product.ID,
		ProductSnapshot: snapshot,
		Quantity:        entity.Item.Quantity,
		TotalPrice:      entity.TotalPrice.String(),
		Status:          string(entity.Status),
		PaymentProof:    entity.PaymentProof,
		ShippingDetails: shipping,
		HiddenForUser:   entity.HiddenForUser,
		CreatedAt:       entity.Timestamp,
	}, nil
}

func (c *OrderConverterImpl) ToEntity(model *OrderModel) (*domain.Order, error) {
	if model == nil {
		return nil, nil
	}

	total, err := decimal.NewFromString(model.TotalPrice)
	if err != nil {
		return nil, err
	}

	entity := &domain.Order{
		ID:            model.ID,
		UserID:        model.UserID,
		Username:      model.Username,
		Item:          domain.OrderItem{Quantity: model.Quantity},
		TotalPrice:    total,
		Status:        domain.OrderStatus(model.Status),
		Timestamp:     model.CreatedAt,
		PaymentProof:  model.PaymentProof,
		HiddenForUser: model.HiddenForUser,
	}

	if err := json.Unmarshal(model.ProductSnapshot, &entity.Item.Product); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(model.ShippingDetails, &entity.ShippingDetails); err != nil {
		return nil, err
	}

	return entity, nil
}

type MessageConverterImpl struct{}

func (c *MessageConverterImpl) ToModel(entity *domain.Message) *MessageModel {
	if entity == nil {
		return nil
	}

	return &MessageModel{
		ID:        entity.ID,
		UserID:    entity.UserID,
		Title:     entity.Title,
		Content:   entity.Content,
		IsRead:    entity.IsRead,
		FromAdmin: entity.FromAdmin,
		CreatedAt: entity.Timestamp,
	}
}

func (c *MessageConverterImpl) ToEntity(model *MessageModel) *domain.Message {
	if model == nil {
		return nil
	}

	return &domain.Message{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		Content:   model.Content,
		Timestamp: model.CreatedAt,
		IsRead:    model.IsRead,
		FromAdmin: model.FromAdmin,
	}
}

type OutboxEventConverterImpl struct{}

func (c *OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		OrderID:     entity.OrderID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		OrderID:     model.OrderID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c *OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	if models == nil {
		return nil
	}

	res := make([]*usecase.OutboxEvent, len(models))
	for i, m := range models {
		res[i] = c.ToEntity(m)
	}

	return res
}

// marshalNullable кодирует необязательное значение в jsonb; nil превращается в SQL NULL.
func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	return json.Marshal(v)
}

func unmarshalNullable[T any](data []byte, dst **T) error {
	if len(data) == 0 || string(data) == "null" {
		*dst = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = &v

	return nil
}
