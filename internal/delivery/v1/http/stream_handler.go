package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const sseKeepAlive = 25 * time.Second

type StreamHandler struct {
	orderUsecase   usecase.OrderUC
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewStreamHandler(orderUsecase usecase.OrderUC, productUsecase usecase.ProductUC, logger logger.Logger) *StreamHandler {
	return &StreamHandler{orderUsecase: orderUsecase, productUsecase: productUsecase, logger: logger}
}

// streamOrders
//
//	@Summary		Живая лента заказов (SSE)
//	@Description	Администратор получает все заказы, покупатель только свои нескрытые.
//	@Tags			streams
//	@Produce		text/event-stream
//	@Param			X-User-ID	header	string	true	"ID пользователя"
//	@Router			/stream/orders [get]
func (h *StreamHandler) streamOrders(w http.ResponseWriter, r *http.Request) {
	id := identityFromCtx(r.Context())

	subscribe := func(ctx context.Context, fn func([]domain.Order)) (func(), error) {
		if id.IsAdmin {
			return h.orderUsecase.SubscribeOrders(ctx, fn)
		}
		return h.orderUsecase.SubscribeUserOrders(ctx, id.UserID, fn)
	}

	streamSSE(w, r, h.logger, "orders", subscribe, toOrderResponses)
}

// streamProducts
//
//	@Summary	Живая лента каталога (SSE)
//	@Tags		streams
//	@Produce	text/event-stream
//	@Router		/stream/products [get]
func (h *StreamHandler) streamProducts(w http.ResponseWriter, r *http.Request) {
	streamSSE(w, r, h.logger, "products", h.productUsecase.SubscribeProducts,
		func(p []domain.Product) []domain.Product { return p })
}

// streamMessages
//
//	@Summary	Живая лента сообщений (SSE)
//	@Tags		streams
//	@Produce	text/event-stream
//	@Param		X-User-ID	header	string	true	"ID пользователя"
//	@Router		/stream/messages [get]
func (h *StreamHandler) streamMessages(w http.ResponseWriter, r *http.Request) {
	id := identityFromCtx(r.Context())

	streamSSE(w, r, h.logger, "messages", h.orderUsecase.SubscribeMessages, func(all []domain.Message) MessagesResponse {
		res := MessagesResponse{Messages: make([]domain.Message, 0)}
		for _, m := range all {
			if !id.IsAdmin && !m.VisibleTo(id.UserID) {
				continue
			}
			res.Messages = append(res.Messages, m)
			if m.UserID == id.UserID && m.CountsAsUnread() {
				res.Unread++
			}
		}
		return res
	})
}

// streamSSE подписывается на снимки и пишет их клиенту как события SSE.
// Если клиент не успевает читать, промежуточные снимки отбрасываются: важен только последний.
func streamSSE[T, R any](
	w http.ResponseWriter,
	r *http.Request,
	log logger.Logger,
	event string,
	subscribe func(ctx context.Context, fn func(T)) (func(), error),
	view func(T) R,
) {
	rc := http.NewResponseController(w)

	ctx := r.Context()
	latest := make(chan []byte, 1)

	unsubscribe, err := subscribe(ctx, func(snapshot T) {
		data, err := json.Marshal(view(snapshot))
		if err != nil {
			log.Errorf(err, "encode %s snapshot", event)
			return
		}
		select {
		case <-latest:
		default:
		}
		select {
		case latest <- data:
		default:
		}
	})
	if err != nil {
		log.Warnf("subscribe %s failed: %v", event, err)
		WriteError(w, err)
		return
	}
	defer unsubscribe()

	// соединение долгоживущее, серверный WriteTimeout к нему не применяется
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Warnf("stream %s: flush unsupported: %v", event, err)
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-latest:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
