package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/memory"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID = "admin-1"
	buyerID = "buyer-1"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeProofInfra struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeProofInfra) UploadProof(_ context.Context, req *usecase.UploadProofReq) (*usecase.UploadProofRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "orders/" + req.OrderID + "/proof.png"
	f.keys = append(f.keys, key)
	return usecase.NewUploadProofRes(key), nil
}

func (f *fakeProofInfra) CleanupProofs([]string) {}

type testAPI struct {
	handler http.Handler
	store   *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(store.Close)

	log := logger.NewNopLogger()
	cache := memory.NewCache()
	ledger := usecase.NewStockLedger(store.Products(), cache, log)
	dispatcher := usecase.NewNotificationDispatcher(store.Messages(), nil)
	lifecycle := usecase.NewOrderLifecycle(store.Orders(), store.Outbox(), store, ledger,
		usecase.NewVoucherGenerator("", ""), dispatcher, log, nil)
	sweeper := usecase.NewExpirySweeper(store.Orders(), lifecycle, domain.PendingTimeout, log, nil)
	orders := usecase.NewOrderStore(store.Orders(), store.Messages(), lifecycle, sweeper, dispatcher, &fakeProofInfra{}, 0, log, nil)
	products := usecase.NewProductUC(store.Products(), cache, ledger, store, log)

	mux := chi.NewRouter()
	NewRouter(mux, log, &cfg.HTTPConfig{MaxUploadBytes: 1 << 10, AdminUserIDs: []string{adminID}}).Init(orders, products)

	return &testAPI{handler: mux, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) uploadProof(t *testing.T, orderID, userID string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("proof", "proof.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/payment-proof", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(userIDHeader, userID)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (a *testAPI) seedProduct(t *testing.T, id string, stock int64) {
	t.Helper()

	rec := a.do(t, http.MethodPut, "/api/v1/admin/products/"+id, adminID, SaveProductRequest{
		Name:            "Keyboard",
		OriginalPrice:   "500",
		DiscountedPrice: "450.00",
		Stock:           stock,
		Category:        domain.CategoryPhysical,
		Wholesale:       &domain.WholesaleRule{Enabled: true, MinQty: 10, Percent: 20},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (a *testAPI) createOrder(t *testing.T, productID string, qty int64) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/orders", buyerID, CreateOrderRequest{ProductID: productID, Quantity: qty})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[CreateOrderResponse](t, rec).OrderID
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/admin/orders", buyerID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/admin/orders", adminID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveAndListProducts(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 5)

	rec := api.do(t, http.MethodGet, "/api/v1/products/kb", buyerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[domain.Product](t, rec)
	assert.Equal(t, int64(50000), p.OriginalPrice)
	assert.Equal(t, int64(45000), p.DiscountedPrice)
	assert.Equal(t, int64(10), p.DiscountPercent)

	rec = api.do(t, http.MethodGet, "/api/v1/products", buyerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 1)

	rec = api.do(t, http.MethodGet, "/api/v1/products/missing", buyerID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/bad", adminID, SaveProductRequest{
		Name: "Bad", OriginalPrice: "1.001", Category: domain.CategoryPhysical,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditProductKeepsCounters(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 10)

	orderID := api.createOrder(t, "kb", 4)
	rec := api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/status", adminID, UpdateStatusRequest{Status: "PAID"})
	require.Equal(t, http.StatusOK, rec.Code)

	api.seedProduct(t, "kb", 10)

	p, err := api.store.Products().Get(context.Background(), "kb")
	require.NoError(t, err)
	assert.Equal(t, int64(6), p.Stock)
	assert.Equal(t, int64(4), p.TotalSold)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/kb", adminID, map[string]any{
		"name": "Keyboard", "originalPrice": "500", "category": domain.CategoryPhysical, "totalSold": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestockProduct(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 2)

	orderID := api.createOrder(t, "kb", 2)
	rec := api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/status", adminID, UpdateStatusRequest{Status: "PAID"})
	require.Equal(t, http.StatusOK, rec.Code)

	stock := int64(30)
	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/kb/stock", adminID, RestockRequest{Stock: &stock})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[domain.Product](t, rec)
	assert.Equal(t, int64(30), p.Stock)
	assert.Equal(t, int64(2), p.TotalSold)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/kb/stock", buyerID, RestockRequest{Stock: &stock})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/kb/stock", adminID, RestockRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	negative := int64(-1)
	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/kb/stock", adminID, RestockRequest{Stock: &negative})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/api/v1/admin/products/missing/stock", adminID, RestockRequest{Stock: &stock})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckAvailability(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 5)

	rec := api.do(t, http.MethodGet, "/api/v1/products/kb/availability?quantity=2", buyerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[AvailabilityResponse](t, rec)
	assert.True(t, res.Available)
	assert.Equal(t, "900.00", res.TotalPrice)

	rec = api.do(t, http.MethodGet, "/api/v1/products/kb/availability?quantity=6", buyerID, nil)
	res = decode[AvailabilityResponse](t, rec)
	assert.False(t, res.Available)
	assert.Equal(t, "insufficient stock", res.Reason)

	rec = api.do(t, http.MethodGet, "/api/v1/products/kb/availability?quantity=x", buyerID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderFlow(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 20)

	// заказ сверх остатка создаётся: остаток проверяется только при оплате
	orderID := api.createOrder(t, "kb", 10)

	rec := api.do(t, http.MethodGet, "/api/v1/orders", buyerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]OrderResponse](t, rec)
	require.Len(t, orders, 1)
	assert.Equal(t, "3600.00", orders[0].TotalPrice)
	assert.Equal(t, domain.OrderStatusPending, orders[0].Status)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/status", adminID, UpdateStatusRequest{Status: "paid"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[TransitionResponse](t, rec)
	assert.True(t, res.Applied)
	assert.True(t, res.Settled)

	p, err := api.store.Products().Get(context.Background(), "kb")
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Stock)
	assert.Equal(t, int64(10), p.TotalSold)

	// повтор не применяется и не списывает остаток
	rec = api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/status", adminID, UpdateStatusRequest{Status: "PAID"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[TransitionResponse](t, rec).Applied)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/orders/"+orderID+"/status", adminID, UpdateStatusRequest{Status: "refunded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/hide", buyerID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/orders", buyerID, nil)
	assert.Empty(t, decode[[]OrderResponse](t, rec))

	rec = api.do(t, http.MethodGet, "/api/v1/admin/orders", adminID, nil)
	assert.Len(t, decode[[]OrderResponse](t, rec), 1)

	rec = api.do(t, http.MethodDelete, "/api/v1/admin/users/"+buyerID+"/orders", adminID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["deleted"])
}

func TestCreateOrderValidation(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 5)

	rec := api.do(t, http.MethodPost, "/api/v1/orders", buyerID, CreateOrderRequest{ProductID: "kb", Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/orders", buyerID, CreateOrderRequest{ProductID: "kb", Quantity: 1 << 60})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/orders", buyerID, CreateOrderRequest{ProductID: "missing", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/orders", buyerID, map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachPaymentProof(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 5)
	orderID := api.createOrder(t, "kb", 1)

	rec := api.uploadProof(t, orderID, buyerID, []byte("plain text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = api.uploadProof(t, orderID, buyerID, bytes.Repeat([]byte{0x89}, 2<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = api.uploadProof(t, orderID, "someone-else", pngHeader)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.uploadProof(t, orderID, buyerID, pngHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.uploadProof(t, orderID, buyerID, pngHeader)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/orders", buyerID, nil)
	assert.True(t, decode[[]OrderResponse](t, rec)[0].HasPaymentProof)
}

func TestMessages(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/admin/messages", adminID, SendMessageRequest{UserID: buyerID, Title: "Hi", Content: "Personal"})
	require.Equal(t, http.StatusCreated, rec.Code)
	personal := decode[domain.Message](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/messages", adminID, SendMessageRequest{Title: "News", Content: "For everyone"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/messages", adminID, SendMessageRequest{UserID: buyerID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/messages", buyerID, nil)
	res := decode[MessagesResponse](t, rec)
	assert.Len(t, res.Messages, 2)
	assert.Equal(t, 1, res.Unread)

	rec = api.do(t, http.MethodPost, "/api/v1/messages/"+personal.ID+"/read", "buyer-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/messages/"+personal.ID+"/read", buyerID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/messages", buyerID, nil)
	assert.Equal(t, 0, decode[MessagesResponse](t, rec).Unread)
}

func TestStreamProducts(t *testing.T) {
	api := newTestAPI(t)
	api.seedProduct(t, "kb", 5)

	srv := httptest.NewServer(api.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/stream/products", nil)
	require.NoError(t, err)
	req.Header.Set(userIDHeader, buyerID)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: products\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var products []domain.Product
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "kb", products[0].ID)
}
