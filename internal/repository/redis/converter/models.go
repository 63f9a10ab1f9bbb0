package converter

import "time"

// ProductRedisModel — представление продукта в кэше.
type ProductRedisModel struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	OriginalPrice      int64      `json:"original_price"`
	DiscountedPrice    int64      `json:"discounted_price"`
	DiscountPercent    int64      `json:"discount_percent"`
	Stock              int64      `json:"stock"`
	TotalSold          int64      `json:"total_sold"`
	IsSaleClosed       bool       `json:"is_sale_closed"`
	IsComingSoon       bool       `json:"is_coming_soon"`
	Category           string     `json:"category"`
	WholesaleEnabled   bool       `json:"wholesale_enabled"`
	WholesaleMinQty    int64      `json:"wholesale_min_qty,omitempty"`
	WholesalePercent   float64    `json:"wholesale_percent,omitempty"`
	HasWholesale       bool       `json:"has_wholesale"`
	AutoMessageEnabled bool       `json:"auto_message_enabled"`
	AutoMessageText    string     `json:"auto_message_text,omitempty"`
	HasAutoMessage     bool       `json:"has_auto_message"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}
