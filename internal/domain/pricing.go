package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// UnitPrice возвращает цену за единицу с учётом оптовой скидки.
// Скидка считается от DiscountedPrice, порог MinQty включительный.
func UnitPrice(p *Product, quantity int64) decimal.Decimal {
	unit := decimal.NewFromInt(p.DiscountedPrice)

	if w := p.Wholesale; w != nil && w.Enabled && quantity >= w.MinQty {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(w.Percent).Div(hundred))
		unit = unit.Mul(factor)
	}

	return unit
}

// Price возвращает итоговую стоимость заказа. Промежуточного округления нет.
func Price(p *Product, quantity int64) decimal.Decimal {
	return UnitPrice(p, quantity).Mul(decimal.NewFromInt(quantity))
}

// DiscountPercent — процент скидки для отображения: round((original-discounted)/original*100), не меньше 0.
func DiscountPercent(original, discounted int64) int64 {
	if original <= 0 || original <= discounted {
		return 0
	}

	diff := decimal.NewFromInt(original - discounted)
	return diff.Div(decimal.NewFromInt(original)).Mul(hundred).Round(0).IntPart()
}
