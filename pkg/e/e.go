package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки хранилища
	ErrNotFound         = fmt.Errorf("not found")
	ErrStoreUnavailable = fmt.Errorf("store unavailable")

	// Ошибки жизненного цикла заказа
	ErrInvalidTransition = fmt.Errorf("invalid order status transition")
	ErrUnknownStatus     = fmt.Errorf("unknown order status")
	ErrOrderLocked       = fmt.Errorf("order is locked until an admin acts on it")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrAuthFailure       = fmt.Errorf("authentication failure")

	// Предварительные проверки покупки (UI-level)
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrSaleClosed        = fmt.Errorf("sale is closed")
	ErrComingSoon        = fmt.Errorf("product is coming soon")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrProductRequired      = fmt.Errorf("product is required")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrPriceMustBePositive  = fmt.Errorf("price must be positive")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidQuantity      = fmt.Errorf("quantity must be positive")
	ErrQuantityTooLarge     = fmt.Errorf("quantity exceeds the allowed maximum")
	ErrInvalidCategory      = fmt.Errorf("invalid product category")
	ErrInvalidWholesale     = fmt.Errorf("invalid wholesale rule")
	ErrMessageRequired      = fmt.Errorf("message title and content are required")
	ErrNoProof              = fmt.Errorf("no payment proof provided")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Unavailable помечает ошибку транспорта/хранилища как ErrStoreUnavailable, сохраняя исходную причину.
func Unavailable(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrStoreUnavailable, err)
}
