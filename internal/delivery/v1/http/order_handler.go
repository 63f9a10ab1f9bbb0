package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderUsecase   usecase.OrderUC
	productUsecase usecase.ProductUC
	logger         logger.Logger
	maxUploadBytes int64
}

func NewOrderHandler(orderUsecase usecase.OrderUC, productUsecase usecase.ProductUC, logger logger.Logger, maxUploadBytes int64) *OrderHandler {
	return &OrderHandler{
		orderUsecase:   orderUsecase,
		productUsecase: productUsecase,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

type CreateOrderRequest struct {
	ProductID       string                  `json:"productId"`
	Quantity        int64                   `json:"quantity"`
	ShippingDetails *domain.ShippingDetails `json:"shippingDetails,omitempty"`
}

type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type TransitionResponse struct {
	OrderID string             `json:"orderId"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
	Applied bool               `json:"applied"`
	Settled bool               `json:"settled"`
	Warning string             `json:"warning,omitempty"`
}

// OrderResponse — заказ в ответе API. Сумма переводится из копеек в рубли.
type OrderResponse struct {
	ID              string                  `json:"id"`
	UserID          string                  `json:"userId"`
	Username        string                  `json:"username"`
	Item            domain.OrderItem        `json:"item"`
	TotalPrice      string                  `json:"totalPrice"`
	Status          domain.OrderStatus      `json:"status"`
	Timestamp       time.Time               `json:"timestamp"`
	HasPaymentProof bool                    `json:"hasPaymentProof"`
	ShippingDetails *domain.ShippingDetails `json:"shippingDetails,omitempty"`
	HiddenForUser   bool                    `json:"hiddenForUser"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Username:        o.Username,
		Item:            o.Item,
		TotalPrice:      formatPrice(o.TotalPrice),
		Status:          o.Status,
		Timestamp:       o.Timestamp,
		HasPaymentProof: o.HasPaymentProof(),
		ShippingDetails: o.ShippingDetails,
		HiddenForUser:   o.HiddenForUser,
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, toOrderResponse(o))
	}
	return res
}

// createOrder
//
//	@Summary		Создание заказа
//	@Description	Создаёт заказ в статусе PENDING по текущему снимку товара. Остаток списывается только при оплате.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header		string				true	"ID пользователя"
//	@Param			order		body		CreateOrderRequest	true	"Заказ"
//	@Success		201			{object}	CreateOrderResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/orders [post]
func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	id := identityFromCtx(r.Context())

	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := h.productUsecase.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	orderID, err := h.orderUsecase.CreateOrder(r.Context(), &usecase.CreateOrderReq{
		UserID:          id.UserID,
		Username:        id.Username,
		Product:         *product,
		Quantity:        req.Quantity,
		ShippingDetails: req.ShippingDetails,
	})
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	h.logger.Infof("order %s created by %s: product %s x%d", orderID, id.UserID, product.ID, req.Quantity)
	WriteSuccess(w, http.StatusCreated, CreateOrderResponse{OrderID: orderID})
}

// listMyOrders
//
//	@Summary	Заказы пользователя
//	@Tags		orders
//	@Produce	json
//	@Param		X-User-ID	header	string	true	"ID пользователя"
//	@Success	200			{array}	OrderResponse
//	@Router		/orders [get]
func (h *OrderHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUsecase.OrdersForUser(r.Context(), identityFromCtx(r.Context()).UserID)
	if err != nil {
		h.logger.Errorf(err, "list user orders failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponses(orders))
}

// attachPaymentProof
//
//	@Summary		Подтверждение оплаты
//	@Description	Прикрепляет скриншот или PDF оплаты. После этого заказ неизменяем до решения администратора.
//	@Tags			orders
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"ID пользователя"
//	@Param			id			path		string	true	"ID заказа"
//	@Param			proof		formData	file	true	"Файл подтверждения"
//	@Success		200			{object}	map[string]interface{}
//	@Failure		409			{object}	ErrorResponse	"Заказ заблокирован"
//	@Failure		413			{object}	ErrorResponse
//	@Failure		415			{object}	ErrorResponse
//	@Router			/orders/{id}/payment-proof [post]
func (h *OrderHandler) attachPaymentProof(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 4 << 20

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	proof, err := parseProof(r.MultipartForm.File["proof"], h.maxUploadBytes)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	key, err := h.orderUsecase.AttachPaymentProof(r.Context(), &usecase.AttachPaymentProofReq{
		OrderID: orderID,
		UserID:  identityFromCtx(r.Context()).UserID,
		Proof:   *proof,
	})
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"orderId":      orderID,
		"paymentProof": key,
	})
}

// hideOrder
//
//	@Summary	Скрыть заказ из истории
//	@Tags		orders
//	@Param		X-User-ID	header	string	true	"ID пользователя"
//	@Param		id			path	string	true	"ID заказа"
//	@Success	204
//	@Router		/orders/{id}/hide [post]
func (h *OrderHandler) hideOrder(w http.ResponseWriter, r *http.Request) {
	err := h.orderUsecase.HideOrderForUser(r.Context(), identityFromCtx(r.Context()).UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listAllOrders
//
//	@Summary	Все заказы
//	@Tags		admin
//	@Produce	json
//	@Success	200	{array}	OrderResponse
//	@Router		/admin/orders [get]
func (h *OrderHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUsecase.ListOrders(r.Context())
	if err != nil {
		h.logger.Errorf(err, "list orders failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponses(orders))
}

// updateStatus
//
//	@Summary		Смена статуса заказа
//	@Description	Недопустимый переход не является ошибкой: возвращается applied=false.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"ID заказа"
//	@Param			status	body		UpdateStatusRequest	true	"Новый статус"
//	@Success		200		{object}	TransitionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/admin/orders/{id}/status [post]
func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		h.logger.Warnf("%d %s: %q", http.StatusBadRequest, e.ErrUnknownStatus.Error(), req.Status)
		WriteError(w, e.ErrUnknownStatus)
		return
	}

	res, err := h.orderUsecase.TransitionOrder(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil && (res == nil || !res.Applied) {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	resp := TransitionResponse{
		OrderID: res.OrderID,
		From:    res.From,
		To:      res.To,
		Applied: res.Applied,
		Settled: res.Settled,
	}
	if err != nil {
		// статус уже сменён, не удалась только доставка ваучеров
		h.logger.Errorf(err, "order %s transitioned with post-commit failure", res.OrderID)
		resp.Warning = err.Error()
	}

	WriteSuccess(w, http.StatusOK, resp)
}

// deleteOrder
//
//	@Summary	Удаление заказа
//	@Tags		admin
//	@Param		id	path	string	true	"ID заказа"
//	@Success	204
//	@Router		/admin/orders/{id} [delete]
func (h *OrderHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orderUsecase.HardDeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteUserOrders
//
//	@Summary	Удаление всех заказов пользователя
//	@Tags		admin
//	@Produce	json
//	@Param		userId	path		string	true	"ID пользователя"
//	@Success	200		{object}	map[string]interface{}
//	@Router		/admin/users/{userId}/orders [delete]
func (h *OrderHandler) deleteUserOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.orderUsecase.HardDeleteOrdersByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{"deleted": n})
}
