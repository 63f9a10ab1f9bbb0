package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingTimeout — через сколько неоплаченный заказ переводится в CANCELLED.
const PendingTimeout = 6 * time.Hour

// ShippingDetails — данные доставки физического товара.
type ShippingDetails struct {
	Recipient string `json:"recipient"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Note      string `json:"note,omitempty"`
}

// OrderItem — единственная позиция заказа. Product — снимок товара на момент создания заказа.
type OrderItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Order описывает заказ покупателя.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Username        string           `json:"username"`
	Item            OrderItem        `json:"item"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	Status          OrderStatus      `json:"status"`
	Timestamp       time.Time        `json:"timestamp"`
	PaymentProof    string           `json:"paymentProof,omitempty"` // ключ объекта в хранилище
	ShippingDetails *ShippingDetails `json:"shippingDetails,omitempty"`
	HiddenForUser   bool             `json:"hiddenForUser"`
}

// NewOrder создаёт заказ в статусе PENDING. Цена вычисляется один раз и больше не меняется.
func NewOrder(id, userID, username string, product Product, quantity int64, shipping *ShippingDetails, now time.Time) *Order {
	return &Order{
		ID:              id,
		UserID:          userID,
		Username:        username,
		Item:            OrderItem{Product: product, Quantity: quantity},
		TotalPrice:      Price(&product, quantity),
		Status:          OrderStatusPending,
		Timestamp:       now,
		ShippingDetails: shipping,
	}
}

// IsExpired сообщает, что заказ ждёт оплаты дольше timeout.
func (o *Order) IsExpired(now time.Time, timeout time.Duration) bool {
	return o.Status == OrderStatusPending && now.Sub(o.Timestamp) > timeout
}

// HasPaymentProof сообщает, что покупатель уже приложил подтверждение оплаты.
func (o *Order) HasPaymentProof() bool {
	return o.PaymentProof != ""
}
