package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/memory"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fakeProofs struct {
	mu        sync.Mutex
	uploaded  []string
	cleaned   []string
	uploadErr error
}

func (f *fakeProofs) UploadProof(_ context.Context, req *usecase.UploadProofReq) (*usecase.UploadProofRes, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := req.OrderID + "/" + req.Proof.Name
	f.uploaded = append(f.uploaded, key)
	return usecase.NewUploadProofRes(key), nil
}

func (f *fakeProofs) CleanupProofs(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}

// failingMessages — MessageRepository, запись в который всегда завершается ошибкой.
type failingMessages struct {
	usecase.MessageRepository
}

func (failingMessages) Create(context.Context, *domain.Message) error {
	return errors.New("messages unavailable")
}

type failingOutbox struct {
	usecase.OutboxRepository
}

func (failingOutbox) Create(context.Context, *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return nil, errors.New("outbox unavailable")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	store     *memory.Store
	cache     *memory.Cache
	proofs    *fakeProofs
	clock     *clock
	lifecycle *usecase.OrderLifecycle
	sweeper   *usecase.ExpirySweeper
	orders    *usecase.OrderStore
	products  *usecase.ProductUseCase
}

type envOption func(*envConfig)

type envConfig struct {
	messages usecase.MessageRepository
	outbox   usecase.OutboxRepository
}

func withFailingMessages() envOption {
	return func(c *envConfig) { c.messages = failingMessages{c.messages} }
}

func withFailingOutbox() envOption {
	return func(c *envConfig) { c.outbox = failingOutbox{c.outbox} }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(store.Close)

	cfg := &envConfig{messages: store.Messages(), outbox: store.Outbox()}
	for _, opt := range opts {
		opt(cfg)
	}

	log := logger.NewNopLogger()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := memory.NewCache()
	proofs := &fakeProofs{}

	ledger := usecase.NewStockLedger(store.Products(), cache, log)
	dispatcher := usecase.NewNotificationDispatcher(cfg.messages, clk.Now)
	lifecycle := usecase.NewOrderLifecycle(
		store.Orders(),
		cfg.outbox,
		store,
		ledger,
		usecase.NewVoucherGenerator("", ""),
		dispatcher,
		log,
		clk.Now,
	)
	sweeper := usecase.NewExpirySweeper(store.Orders(), lifecycle, domain.PendingTimeout, log, clk.Now)
	orders := usecase.NewOrderStore(store.Orders(), cfg.messages, lifecycle, sweeper, dispatcher, proofs, 0, log, clk.Now)

	return &env{
		store:     store,
		cache:     cache,
		proofs:    proofs,
		clock:     clk,
		lifecycle: lifecycle,
		sweeper:   sweeper,
		orders:    orders,
		products:  usecase.NewProductUC(store.Products(), cache, ledger, store, log),
	}
}

func (e *env) seedProduct(t *testing.T, p domain.Product) domain.Product {
	t.Helper()

	if p.Name == "" {
		p.Name = "Product " + p.ID
	}
	if p.OriginalPrice == 0 {
		p.OriginalPrice = 50000
	}
	if p.DiscountedPrice == 0 {
		p.DiscountedPrice = 45000
	}
	if p.Category == "" {
		p.Category = domain.CategoryPhysical
	}

	saved, err := e.products.SaveProduct(context.Background(), &p)
	require.NoError(t, err)
	return *saved
}

func (e *env) placeOrder(t *testing.T, userID string, p domain.Product, qty int64) string {
	t.Helper()

	id, err := e.orders.CreateOrder(context.Background(), &usecase.CreateOrderReq{
		UserID:   userID,
		Username: "user-" + userID,
		Product:  p,
		Quantity: qty,
	})
	require.NoError(t, err)
	return id
}

// storeOrder кладёт заказ напрямую в хранилище, минуя проверки CreateOrder.
func (e *env) storeOrder(t *testing.T, p domain.Product, qty int64) string {
	t.Helper()

	order := domain.NewOrder("big-"+p.ID, "u1", "user-u1", p, qty, nil, e.clock.Now())
	require.NoError(t, e.store.Orders().Create(context.Background(), order))
	return order.ID
}

func (e *env) product(t *testing.T, id string) *domain.Product {
	t.Helper()

	p, err := e.store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (e *env) order(t *testing.T, id string) *domain.Order {
	t.Helper()

	o, err := e.store.Orders().Get(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (e *env) messagesFor(t *testing.T, userID string) []domain.Message {
	t.Helper()

	res, err := e.orders.MessagesForUser(context.Background(), userID)
	require.NoError(t, err)
	return res.Messages
}
