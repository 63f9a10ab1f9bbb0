package domain

import (
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

// Category описывает способ исполнения заказа по продукту.
type Category string

const (
	CategoryPhysical Category = "physical"
	CategoryDigital  Category = "digital"
)

// Valid сообщает, является ли категория известной.
func (c Category) Valid() bool {
	return c == CategoryPhysical || c == CategoryDigital
}

// WholesaleRule — оптовая скидка: при quantity >= MinQty цена за единицу уменьшается на Percent процентов.
type WholesaleRule struct {
	Enabled bool    `json:"enabled"`
	MinQty  int64   `json:"minQty"`
	Percent float64 `json:"percent"`
}

// AutoMessageRule — сообщение, автоматически отправляемое покупателю после оплаты (выдача ваучеров).
type AutoMessageRule struct {
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
}

// Product описывает товар витрины.
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	OriginalPrice   int64            `json:"originalPrice"`
	DiscountedPrice int64            `json:"discountedPrice"`
	DiscountPercent int64            `json:"discountPercent"` // производное значение, см. DiscountPercent
	Stock           int64            `json:"stock"`
	TotalSold       int64            `json:"totalSold"`
	IsSaleClosed    bool             `json:"isSaleClosed"`
	IsComingSoon    bool             `json:"isComingSoon"`
	Category        Category         `json:"category"`
	Wholesale       *WholesaleRule   `json:"wholesale,omitempty"`
	AutoMessage     *AutoMessageRule `json:"autoMessage,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
}

// Validate проверяет данные продукта перед сохранением администратором.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return e.ErrProductNameRequired
	}

	if p.OriginalPrice <= 0 || p.DiscountedPrice <= 0 {
		return e.ErrPriceMustBePositive
	}

	if !p.Category.Valid() {
		return e.ErrInvalidCategory
	}

	if p.Stock < 0 || p.TotalSold < 0 {
		return e.ErrInvalidQuantity
	}

	if w := p.Wholesale; w != nil && w.Enabled {
		if w.MinQty <= 0 || w.Percent < 0 || w.Percent > 100 {
			return e.ErrInvalidWholesale
		}
	}

	return nil
}

// IsDigital сообщает, что товар не требует доставки.
func (p *Product) IsDigital() bool {
	return p.Category == CategoryDigital
}

// HasAutoMessage сообщает, нужно ли выдавать ваучеры при оплате.
func (p *Product) HasAutoMessage() bool {
	return p.AutoMessage != nil && p.AutoMessage.Enabled
}

// CheckPurchasable — предварительная проверка для UI перед созданием заказа.
// Ядро не проверяет остаток в момент записи заказа: остаток списывается только при оплате.
func (p *Product) CheckPurchasable(quantity int64) error {
	switch {
	case quantity <= 0:
		return e.ErrInvalidQuantity
	case p.IsComingSoon:
		return e.ErrComingSoon
	case p.IsSaleClosed:
		return e.ErrSaleClosed
	case quantity > p.Stock:
		return e.ErrInsufficientStock
	}

	return nil
}
