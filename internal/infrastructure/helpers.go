package infrastructure

import "github.com/DRSN-tech/storefront-backend/pkg/e"

// GetExtensionFromMIME возвращает расширение файла подтверждения оплаты по MIME-типу.
// Поддерживает jpeg, jpg, png, webp, pdf. Возвращает ошибку e.ErrUnsupportedMediaType для неподдерживаемых типов.
func GetExtensionFromMIME(mime string) (string, error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	case "application/pdf":
		return "pdf", nil
	default:
		return "bin", e.ErrUnsupportedMediaType
	}
}
