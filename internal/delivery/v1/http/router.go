package http

import (
	"net/http"

	_ "github.com/DRSN-tech/storefront-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
	cfg    *cfg.HTTPConfig
}

func NewRouter(router *chi.Mux, logger logger.Logger, cfg *cfg.HTTPConfig) *Router {
	return &Router{router: router, logger: logger, cfg: cfg}
}

func (r *Router) Init(orderUC usecase.OrderUC, productUC usecase.ProductUC) {
	r.router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // ссылка на JSON
	))
	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	prHandler := NewProductHandler(productUC, r.logger)
	orderHandler := NewOrderHandler(orderUC, productUC, r.logger, r.cfg.MaxUploadBytes)
	msgHandler := NewMessageHandler(orderUC, r.logger)
	streamHandler := NewStreamHandler(orderUC, productUC, r.logger)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(Authenticate(r.cfg.AdminUserIDs, r.logger))

		registerProductRoutes(v1, prHandler)
		registerOrderRoutes(v1, orderHandler)
		registerMessageRoutes(v1, msgHandler)
		registerStreamRoutes(v1, streamHandler)

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(RequireAdmin(r.logger))
			registerAdminRoutes(admin, prHandler, orderHandler, msgHandler)
		})
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Get("/{id}/availability", prHandler.checkAvailability)
	})
}

func registerOrderRoutes(router chi.Router, orderHandler *OrderHandler) {
	router.Route("/orders", func(or chi.Router) {
		or.Post("/", orderHandler.createOrder)
		or.Get("/", orderHandler.listMyOrders)
		or.Post("/{id}/payment-proof", orderHandler.attachPaymentProof)
		or.Post("/{id}/hide", orderHandler.hideOrder)
	})
}

func registerMessageRoutes(router chi.Router, msgHandler *MessageHandler) {
	router.Route("/messages", func(mr chi.Router) {
		mr.Get("/", msgHandler.listMessages)
		mr.Post("/{id}/read", msgHandler.markRead)
	})
}

func registerStreamRoutes(router chi.Router, streamHandler *StreamHandler) {
	router.Route("/stream", func(sr chi.Router) {
		sr.Get("/orders", streamHandler.streamOrders)
		sr.Get("/products", streamHandler.streamProducts)
		sr.Get("/messages", streamHandler.streamMessages)
	})
}

func registerAdminRoutes(router chi.Router, prHandler *ProductHandler, orderHandler *OrderHandler, msgHandler *MessageHandler) {
	router.Post("/products", prHandler.saveProduct)
	router.Put("/products/{id}", prHandler.saveProduct)
	router.Put("/products/{id}/stock", prHandler.restockProduct)
	router.Delete("/products/{id}", prHandler.deleteProduct)

	router.Get("/orders", orderHandler.listAllOrders)
	router.Post("/orders/{id}/status", orderHandler.updateStatus)
	router.Delete("/orders/{id}", orderHandler.deleteOrder)
	router.Delete("/users/{userId}/orders", orderHandler.deleteUserOrders)

	router.Post("/messages", msgHandler.sendMessage)
	router.Delete("/messages/{id}", msgHandler.deleteMessage)
}
