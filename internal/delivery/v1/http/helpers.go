package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/infrastructure"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// errorStatuses — соответствие доменных ошибок HTTP-кодам. Порядок важен: проверяется первое совпадение.
var errorStatuses = []struct {
	err  error
	code int
}{
	{e.ErrAuthFailure, http.StatusUnauthorized},
	{e.ErrForbidden, http.StatusForbidden},
	{e.ErrNotFound, http.StatusNotFound},
	{e.ErrOrderLocked, http.StatusConflict},
	{e.ErrInvalidTransition, http.StatusConflict},
	{e.ErrInsufficientStock, http.StatusConflict},
	{e.ErrSaleClosed, http.StatusConflict},
	{e.ErrComingSoon, http.StatusConflict},
	{e.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{e.ErrStatusBadRequest, http.StatusBadRequest},
	{e.ErrExpectedMultipart, http.StatusBadRequest},
	{e.ErrUnknownStatus, http.StatusBadRequest},
	{e.ErrProductRequired, http.StatusBadRequest},
	{e.ErrProductNameRequired, http.StatusBadRequest},
	{e.ErrPriceMustBePositive, http.StatusBadRequest},
	{e.ErrInvalidPrice, http.StatusBadRequest},
	{e.ErrPricePrecision, http.StatusBadRequest},
	{e.ErrInvalidQuantity, http.StatusBadRequest},
	{e.ErrQuantityTooLarge, http.StatusBadRequest},
	{e.ErrInvalidCategory, http.StatusBadRequest},
	{e.ErrInvalidWholesale, http.StatusBadRequest},
	{e.ErrMessageRequired, http.StatusBadRequest},
	{e.ErrNoProof, http.StatusBadRequest},
	{e.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

func ToHTTPResponse(err error) (int, string) {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			return s.code, s.err.Error()
		}
	}
	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}
	return nil
}

// parsePriceToCents converts a string like "599.99" or "600" to int64 cents.
// Returns error if:
// - invalid format
// - more than 2 decimal places
// - not positive
// - exceeds reasonable limit (e.g. 10^9 rubles)
func parsePriceToCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if !d.IsPositive() {
		return 0, e.ErrPriceMustBePositive
	}

	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

var hundred = decimal.NewFromInt(100)

// formatPrice переводит сумму в копейках в рубли для ответа: 59999 -> "599.99".
func formatPrice(cents decimal.Decimal) string {
	return cents.Div(hundred).StringFixed(2)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}
	return nil
}

// parseProof читает единственный файл подтверждения оплаты. Тип определяется по содержимому, а не по заголовку клиента.
func parseProof(files []*multipart.FileHeader, maxSize int64) (*usecase.ProofFile, error) {
	if len(files) == 0 {
		return nil, e.ErrNoProof
	}

	data, mimeType, err := readFile(files[0], maxSize)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, e.ErrNoProof
	}
	if _, err := infrastructure.GetExtensionFromMIME(mimeType); err != nil {
		return nil, e.Wrap(mimeType, err)
	}

	return usecase.NewProofFile(data, mimeType, files[0].Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if fh.Size > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return data, mimeType, nil
}
