package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	Description     string     `db:"description"`
	ImageURL        string     `db:"image_url"`
	OriginalPrice   int64      `db:"original_price"`
	DiscountedPrice int64      `db:"discounted_price"`
	DiscountPercent int64      `db:"discount_percent"`
	Stock           int64      `db:"stock"`
	TotalSold       int64      `db:"total_sold"`
	IsSaleClosed    bool       `db:"is_sale_closed"`
	IsComingSoon    bool       `db:"is_coming_soon"`
	Category        string     `db:"category"`
	Wholesale       []byte     `db:"wholesale"`    // jsonb
	AutoMessage     []byte     `db:"auto_message"` // jsonb
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
type OrderModel struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Username        string    `db:"username"`
	ProductID       string    `db:"product_id"`
	ProductSnapshot []byte    `db:"product_snapshot"` // jsonb
	Quantity        int64     `db:"quantity"`
	TotalPrice      string    `db:"total_price"` // numeric, читается как текст
	Status          string    `db:"status"`
	PaymentProof    string    `db:"payment_proof"`
	ShippingDetails []byte    `db:"shipping_details"` // jsonb
	HiddenForUser   bool      `db:"hidden_for_user"`
	CreatedAt       time.Time `db:"created_at"`
}

// MessageModel представляет запись таблицы messages в PostgreSQL.
type MessageModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	IsRead    bool      `db:"is_read"`
	FromAdmin bool      `db:"from_admin"`
	CreatedAt time.Time `db:"created_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	OrderID     string     `db:"order_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
