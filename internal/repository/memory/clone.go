package memory

import "github.com/DRSN-tech/storefront-backend/internal/domain"

// Значения в коллекциях не должны разделять указатели с вызывающим кодом.

func cloneProduct(p domain.Product) domain.Product {
	if p.Wholesale != nil {
		w := *p.Wholesale
		p.Wholesale = &w
	}
	if p.AutoMessage != nil {
		m := *p.AutoMessage
		p.AutoMessage = &m
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		p.UpdatedAt = &t
	}

	return p
}

func cloneOrder(o domain.Order) domain.Order {
	o.Item.Product = cloneProduct(o.Item.Product)
	if o.ShippingDetails != nil {
		sd := *o.ShippingDetails
		o.ShippingDetails = &sd
	}

	return o
}
