package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// SaveProductRequest — тело запроса администратора. Цены передаются строкой в рублях: "599.99".
// Stock задаёт начальный остаток нового товара; у существующего остаток меняется через RestockRequest.
type SaveProductRequest struct {
	Name            string                  `json:"name"`
	Description     string                  `json:"description"`
	ImageURL        string                  `json:"imageUrl"`
	OriginalPrice   string                  `json:"originalPrice"`
	DiscountedPrice string                  `json:"discountedPrice"`
	Stock           int64                   `json:"stock"`
	IsSaleClosed    bool                    `json:"isSaleClosed"`
	IsComingSoon    bool                    `json:"isComingSoon"`
	Category        domain.Category         `json:"category"`
	Wholesale       *domain.WholesaleRule   `json:"wholesale,omitempty"`
	AutoMessage     *domain.AutoMessageRule `json:"autoMessage,omitempty"`
}

func (req *SaveProductRequest) toDomain(id string) (*domain.Product, error) {
	original, err := parsePriceToCents(req.OriginalPrice)
	if err != nil {
		return nil, e.Wrap("originalPrice", err)
	}

	discounted := original
	if strings.TrimSpace(req.DiscountedPrice) != "" {
		if discounted, err = parsePriceToCents(req.DiscountedPrice); err != nil {
			return nil, e.Wrap("discountedPrice", err)
		}
	}

	return &domain.Product{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		OriginalPrice:   original,
		DiscountedPrice: discounted,
		Stock:           req.Stock,
		IsSaleClosed:    req.IsSaleClosed,
		IsComingSoon:    req.IsComingSoon,
		Category:        req.Category,
		Wholesale:       req.Wholesale,
		AutoMessage:     req.AutoMessage,
	}, nil
}

// RestockRequest — новый остаток товара.
type RestockRequest struct {
	Stock *int64 `json:"stock"`
}

// AvailabilityResponse — результат предварительной проверки покупки.
type AvailabilityResponse struct {
	ProductID  string `json:"productId"`
	Quantity   int64  `json:"quantity"`
	Available  bool   `json:"available"`
	Reason     string `json:"reason,omitempty"`
	TotalPrice string `json:"totalPrice"`
}

// listProducts
//
//	@Summary	Список товаров
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}		domain.Product
//	@Failure	503	{object}	ErrorResponse
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		p.logger.Errorf(err, "list products failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, products)
}

// getProduct
//
//	@Summary	Карточка товара
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"ID товара"
//	@Success	200	{object}	domain.Product
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := p.productUsecase.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

// checkAvailability
//
//	@Summary		Проверка возможности покупки
//	@Description	Предварительная проверка для UI: остаток, закрытая продажа, «скоро в продаже». Заказ не создаётся.
//	@Tags			products
//	@Produce		json
//	@Param			id			path		string	true	"ID товара"
//	@Param			quantity	query		int		true	"Количество"
//	@Success		200			{object}	AvailabilityResponse
//	@Router			/products/{id}/availability [get]
func (p *ProductHandler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	qty, err := strconv.ParseInt(r.URL.Query().Get("quantity"), 10, 64)
	if err != nil {
		WriteError(w, e.Wrap("quantity", e.ErrInvalidQuantity))
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	res := AvailabilityResponse{
		ProductID:  product.ID,
		Quantity:   qty,
		Available:  true,
		TotalPrice: formatPrice(domain.Price(product, max(qty, 0))),
	}
	if err := product.CheckPurchasable(qty); err != nil {
		res.Available = false
		res.Reason = err.Error()
	}

	WriteSuccess(w, http.StatusOK, res)
}

// saveProduct
//
//	@Summary	Создание или обновление товара
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"ID товара"
//	@Param		product	body		SaveProductRequest	true	"Товар"
//	@Success	200		{object}	domain.Product
//	@Failure	400		{object}	ErrorResponse
//	@Router		/admin/products/{id} [put]
func (p *ProductHandler) saveProduct(w http.ResponseWriter, r *http.Request) {
	var req SaveProductRequest
	if err := decodeJSON(r, &req); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := req.toDomain(chi.URLParam(r, "id"))
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	saved, err := p.productUsecase.SaveProduct(r.Context(), product)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, saved)
}

// restockProduct
//
//	@Summary		Установка остатка товара
//	@Description	Проданное количество не меняется.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"ID товара"
//	@Param			body	body		RestockRequest	true	"Остаток"
//	@Success		200		{object}	domain.Product
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/admin/products/{id}/stock [put]
func (p *ProductHandler) restockProduct(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}
	if req.Stock == nil {
		WriteError(w, e.Wrap("stock", e.ErrStatusBadRequest))
		return
	}

	product, err := p.productUsecase.RestockProduct(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		admin
//	@Param		id	path	string	true	"ID товара"
//	@Success	204
//	@Router		/admin/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := p.productUsecase.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
